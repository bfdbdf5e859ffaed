// Package tasks implements owner-scoped task operations. Every mutation goes
// through Guard, and every read except PublicReader is filtered by owner.
package tasks

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/auth"
	"github.com/biosecret/go-tasks/models"
)

// Publisher receives task lifecycle events after a change is committed.
type Publisher interface {
	Publish(ctx context.Context, ev models.TaskEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.TaskEvent) {}

// Service is the owner-scoped task facade.
type Service struct {
	store     Store
	users     UserLookup
	guard     Guard
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service. publisher and logger may be nil.
func NewService(store Store, users UserLookup, publisher Publisher, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("task store is required")
	}
	if users == nil {
		return nil, oops.Errorf("user lookup is required")
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, users: users, publisher: publisher, logger: logger, now: time.Now}, nil
}

func identity(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return auth.Identity{}, apperr.Unauthorized("AUTH_REQUIRED", "authentication required")
	}
	return id, nil
}

// Create stores a new task owned by the identity in ctx.
func (s *Service) Create(ctx context.Context, in models.NewTask) (*models.Task, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}

	owner, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, apperr.NotFound("TASK_OWNER_NOT_FOUND", "user not found")
	}

	task, err := s.store.Create(ctx, owner.ID, in)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "task created", "task_id", task.ID, "owner_id", task.OwnerID)
	s.publish(ctx, models.TaskCreated, task.OwnerID, task.ID, task)
	return task, nil
}

// ListByOwner returns every task owned by the identity in ctx.
func (s *Service) ListByOwner(ctx context.Context) ([]models.Task, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListByOwner(ctx, id.UserID)
}

// Update applies patch to an owned task. The read, merge and write happen in
// one transaction; on any error nothing is stored.
func (s *Service) Update(ctx context.Context, taskID int64, patch models.TaskPatch) (*models.Task, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.Task
	err = s.store.InTx(ctx, func(tx Store) error {
		task, err := s.guard.AssertOwner(ctx, tx, id, taskID)
		if err != nil {
			return err
		}
		if patch.Empty() {
			updated = task
			return nil
		}
		if err := ApplyPatch(task, patch); err != nil {
			return err
		}
		updated, err = tx.Update(ctx, task)
		if err != nil {
			return err
		}
		if updated == nil {
			return apperr.NotFound("TASK_NOT_FOUND", "task not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return updated, nil
	}

	s.publish(ctx, models.TaskUpdated, updated.OwnerID, updated.ID, updated)
	return updated, nil
}

// Delete removes an owned task.
func (s *Service) Delete(ctx context.Context, taskID int64) (models.DeleteResult, error) {
	id, err := identity(ctx)
	if err != nil {
		return models.DeleteResult{}, err
	}

	err = s.store.InTx(ctx, func(tx Store) error {
		if _, err := s.guard.AssertOwner(ctx, tx, id, taskID); err != nil {
			return err
		}
		deleted, err := tx.Delete(ctx, id.UserID, taskID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.NotFound("TASK_NOT_FOUND", "task not found")
		}
		return nil
	})
	if err != nil {
		return models.DeleteResult{}, err
	}

	s.logger.InfoContext(ctx, "task deleted", "task_id", taskID, "owner_id", id.UserID)
	s.publish(ctx, models.TaskDeleted, id.UserID, taskID, nil)
	return models.DeleteResult{ID: taskID, Deleted: true}, nil
}

func (s *Service) publish(ctx context.Context, typ string, ownerID, taskID int64, task *models.Task) {
	s.publisher.Publish(ctx, models.TaskEvent{
		Type:    typ,
		OwnerID: ownerID,
		TaskID:  taskID,
		Task:    task,
		At:      s.now(),
	})
}

// ApplyPatch merges the fields present in patch into task. Owner and id are
// never touched.
func ApplyPatch(task *models.Task, patch models.TaskPatch) error {
	merged := *task

	if patch.Title.Set {
		if patch.Title.Null {
			return apperr.Validation("TASK_TITLE_REQUIRED", "title is required")
		}
		title := strings.TrimSpace(patch.Title.Value)
		if err := validateTitle(title); err != nil {
			return err
		}
		merged.Title = title
	}
	if patch.Description.Set {
		if patch.Description.Null {
			merged.Description = nil
		} else {
			d := patch.Description.Value
			merged.Description = &d
		}
	}
	if patch.DueAt.Set {
		if patch.DueAt.Null {
			merged.DueAt = nil
		} else {
			due := patch.DueAt.Value
			merged.DueAt = &due
		}
	}
	if patch.Completed.Set {
		merged.Completed = !patch.Completed.Null && patch.Completed.Value
	}

	*task = merged
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return apperr.Validation("TASK_TITLE_REQUIRED", "title is required")
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return apperr.Validation("TASK_TITLE_TOO_LONG", "title must be at most 255 characters")
	}
	return nil
}
