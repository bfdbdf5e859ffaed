package tasks

import (
	"context"

	"github.com/biosecret/go-tasks/models"
)

// Store is the task persistence capability set. Lookups return (nil, nil)
// when nothing matches so the caller decides how absence is reported.
type Store interface {
	Create(ctx context.Context, ownerID int64, task models.NewTask) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Task, error)
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	// FindOwned returns the task only when it belongs to ownerID. Inside a
	// transaction the row stays locked until commit.
	FindOwned(ctx context.Context, ownerID, id int64) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id int64) (bool, error)
	// InTx runs fn against a transactional view of the store. Any error
	// returned by fn discards every write made through that view.
	InTx(ctx context.Context, fn func(Store) error) error
}

// UserLookup resolves task owners.
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}
