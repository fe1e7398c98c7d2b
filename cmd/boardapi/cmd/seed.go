package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewboard/boardapi/internal/db/bunx"
	"github.com/crewboard/boardapi/internal/db/models"
	"github.com/crewboard/boardapi/internal/repository"
)

// seedCmd loads a small demo dataset for local development and demo mode.
// It is idempotent per email: existing users are reused, groups and tasks
// are always appended.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data",
	Long:  `Creates demo users, groups, tasks, and messages for local development.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		ctx := context.Background()
		userRepo := repository.NewBunUserRepository(db)
		groupRepo := repository.NewBunGroupRepository(db)
		taskRepo := repository.NewBunTaskRepository(db)
		messageRepo := repository.NewBunTaskMessageRepository(db)

		seedUser := func(name, email string, role models.Role) (*models.User, error) {
			existing, err := userRepo.GetByEmail(ctx, email)
			if err == nil {
				return existing, nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}

			hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
			if err != nil {
				return nil, err
			}
			user := &models.User{
				Name:         name,
				Email:        &email,
				Role:         role,
				PasswordHash: string(hash),
			}
			if err := userRepo.Create(ctx, user); err != nil {
				return nil, err
			}
			log.Printf("Created demo user %s (%s) with role %s", name, email, role)
			return user, nil
		}

		dana, err := seedUser("Dana", "dana@example.com", models.RoleDeveloper)
		if err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
		alex, err := seedUser("Alex", "alex@example.com", models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
		uma, err := seedUser("Uma", "uma@example.com", models.RoleUser)
		if err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}

		thisWeek := &models.Group{Name: "This Week"}
		nextWeek := &models.Group{Name: "Next Week"}
		for _, group := range []*models.Group{thisWeek, nextWeek} {
			if err := groupRepo.Create(ctx, group); err != nil {
				return fmt.Errorf("failed to seed group %q: %w", group.Name, err)
			}
		}

		now := time.Now()
		due := now.AddDate(0, 0, 3)
		backend := "backend"

		tasks := []struct {
			task      *models.Task
			assignees []string
		}{
			{
				task: &models.Task{
					GroupID:    thisWeek.ID,
					Title:      "Wire up login flow",
					OwnerID:    &dana.ID,
					Status:     models.StatusWorkingOnIt,
					DueDate:    &due,
					Dropdown:   &backend,
					AssignedAt: &now,
				},
				assignees: []string{uma.ID},
			},
			{
				task: &models.Task{
					GroupID:    thisWeek.ID,
					Title:      "Review board permissions",
					OwnerID:    &alex.ID,
					Status:     models.StatusNotStarted,
					AssignedAt: &now,
				},
			},
			{
				task: &models.Task{
					GroupID: nextWeek.ID,
					Title:   "Plan sprint retro",
					Status:  models.StatusNotStarted,
				},
			},
		}
		for _, t := range tasks {
			if err := taskRepo.Create(ctx, t.task, t.assignees); err != nil {
				return fmt.Errorf("failed to seed task %q: %w", t.task.Title, err)
			}
		}

		msg := &models.TaskMessage{
			TaskID: tasks[0].task.ID,
			UserID: dana.ID,
			Body:   "Session cookie handling is done, OAuth flow is next.",
		}
		if err := messageRepo.Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to seed task message: %w", err)
		}

		log.Printf("Demo data loaded (password for all demo users: demo1234)")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
