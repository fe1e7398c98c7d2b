package board

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-bexpr"

	"github.com/crewboard/boardapi/internal/auth"
	"github.com/crewboard/boardapi/internal/db/models"
)

// filterCache stores compiled bexpr evaluators keyed by expression string.
var filterCache = &sync.Map{}

// compileFilter returns a task matcher for a bexpr expression like
// `status == "DONE" and dropdown == "backend"`. An empty expression matches
// everything; a malformed one is an input error.
func compileFilter(expr string) (func(*models.Task) bool, error) {
	if strings.TrimSpace(expr) == "" {
		return func(*models.Task) bool { return true }, nil
	}

	var evaluator *bexpr.Evaluator
	if cached, ok := filterCache.Load(expr); ok {
		evaluator = cached.(*bexpr.Evaluator)
	} else {
		compiled, err := bexpr.CreateEvaluator(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w: %v", expr, auth.ErrInvalidInput, err)
		}
		filterCache.Store(expr, compiled)
		evaluator = compiled
	}

	return func(task *models.Task) bool {
		matches, err := evaluator.Evaluate(filterableFields(task))
		if err != nil {
			// Evaluation failure (e.g. type mismatch) excludes the task.
			return false
		}
		return matches
	}, nil
}

// filterableFields projects a task onto the flat map the filter runs against.
// Nullable fields evaluate as empty strings when unset.
func filterableFields(task *models.Task) map[string]any {
	fields := map[string]any{
		"group_id": task.GroupID,
		"title":    task.Title,
		"status":   string(task.Status),
		"owner_id": "",
		"owner":    "",
		"dropdown": "",
	}
	if task.OwnerID != nil {
		fields["owner_id"] = *task.OwnerID
	}
	if task.Owner != nil {
		fields["owner"] = *task.Owner
	}
	if task.Dropdown != nil {
		fields["dropdown"] = *task.Dropdown
	}
	return fields
}
