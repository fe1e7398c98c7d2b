package main

import "github.com/crewboard/boardapi/cmd/boardapi/cmd"

func main() {
	cmd.Execute()
}
