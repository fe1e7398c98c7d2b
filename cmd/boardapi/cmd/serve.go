package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crewboard/boardapi/internal/db/bunx"
	"github.com/crewboard/boardapi/internal/repository"
	"github.com/crewboard/boardapi/internal/server"
	"github.com/crewboard/boardapi/internal/services/board"
	"github.com/crewboard/boardapi/internal/services/iam"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the board API server",
	Long:  `Starts the HTTP server with the board, user, and auth endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Connect to database
		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		log.Printf("Connected to database")

		// Initialize repositories
		userRepo := repository.NewBunUserRepository(db)
		sessionRepo := repository.NewBunSessionRepository(db)
		groupRepo := repository.NewBunGroupRepository(db)
		taskRepo := repository.NewBunTaskRepository(db)
		messageRepo := repository.NewBunTaskMessageRepository(db)

		// Initialize services
		iamService := iam.NewService(iam.Dependencies{
			Users:    userRepo,
			Sessions: sessionRepo,
		}, cfg.SessionTTL)
		boardService := board.NewService(groupRepo, taskRepo, messageRepo, userRepo)

		if cfg.DemoMode {
			log.Printf("WARNING: demo mode enabled, mounting credential-free impersonation endpoint")
		}

		r := server.NewRouter(server.RouterOptions{
			IAMService:   iamService,
			BoardService: boardService,
			SessionTTL:   cfg.SessionTTL,
			DemoMode:     cfg.DemoMode,
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Wait for interrupt signal
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Printf("Received signal %v, shutting down gracefully", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Printf("Server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
