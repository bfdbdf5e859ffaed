package tasks

import (
	"context"

	"github.com/samber/oops"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/models"
)

// PublicReader is the one unscoped read path: any caller may fetch any task
// by id. It is deliberately a separate type so owner-scoped code never holds
// it; the router only constructs one when public reads are enabled.
type PublicReader struct {
	store Store
}

// NewPublicReader creates a PublicReader.
func NewPublicReader(store Store) (*PublicReader, error) {
	if store == nil {
		return nil, oops.Errorf("task store is required")
	}
	return &PublicReader{store: store}, nil
}

// GetByID returns the task with id regardless of owner.
func (r *PublicReader) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	task, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("TASK_NOT_FOUND", "task not found")
	}
	return task, nil
}
