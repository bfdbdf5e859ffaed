package tasks

import (
	"context"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/auth"
	"github.com/biosecret/go-tasks/models"
)

// Guard enforces that a task operation is scoped to the requesting identity.
type Guard struct{}

// AssertOwner loads taskID only if it is owned by id. A task that exists but
// belongs to someone else is reported exactly like a missing one.
func (Guard) AssertOwner(ctx context.Context, store Store, id auth.Identity, taskID int64) (*models.Task, error) {
	task, err := store.FindOwned(ctx, id.UserID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("TASK_NOT_FOUND", "task not found")
	}
	return task, nil
}
