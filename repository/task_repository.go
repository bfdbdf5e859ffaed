package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/biosecret/go-tasks/models"
	"github.com/biosecret/go-tasks/tasks"
)

const taskColumns = `id, title, description, due_at, completed, owner_id, created_at, updated_at`

// TaskRepository implements tasks.Store. Every query that can change or
// reveal a task through an owner-scoped path filters on owner_id in SQL.
type TaskRepository struct {
	db DBTX
}

// NewTaskRepository creates a TaskRepository.
func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task for ownerID. A missing owner trips the foreign key.
func (r *TaskRepository) Create(ctx context.Context, ownerID int64, in models.NewTask) (*models.Task, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO tasks (title, description, due_at, completed, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+taskColumns,
		in.Title, in.Description, in.DueAt, in.Completed, ownerID,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, classify(oops.Code("TASK_CREATE_FAILED").With("owner_id", ownerID), err)
	}
	return task, nil
}

// ListByOwner returns ownerID's tasks in insertion order.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, classify(oops.Code("TASK_LIST_FAILED").With("owner_id", ownerID), err)
	}
	defer rows.Close()

	out := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, classify(oops.Code("TASK_LIST_FAILED").With("operation", "scan task row"), err)
		}
		out = append(out, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(oops.Code("TASK_LIST_FAILED").With("operation", "iterate tasks"), err)
	}
	return out, nil
}

// FindByID returns the task with id whoever owns it, or nil.
func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(oops.Code("TASK_GET_FAILED").With("task_id", id), err)
	}
	return task, nil
}

// FindOwned returns the task only if ownerID owns it, locking the row.
func (r *TaskRepository) FindOwned(ctx context.Context, ownerID, id int64) (*models.Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2 FOR UPDATE`, id, ownerID)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(oops.Code("TASK_GET_FAILED").With("task_id", id).With("owner_id", ownerID), err)
	}
	return task, nil
}

// Update writes the mutable fields of task. owner_id is part of the filter,
// never of the SET list.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, due_at = $3, completed = $4, updated_at = NOW()
		WHERE id = $5 AND owner_id = $6
		RETURNING `+taskColumns,
		task.Title, task.Description, task.DueAt, task.Completed, task.ID, task.OwnerID,
	)
	updated, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(oops.Code("TASK_UPDATE_FAILED").With("task_id", task.ID), err)
	}
	return updated, nil
}

// Delete removes the task if ownerID owns it and reports whether a row went away.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, classify(oops.Code("TASK_DELETE_FAILED").With("task_id", id).With("owner_id", ownerID), err)
	}
	return tag.RowsAffected() > 0, nil
}

// InTx runs fn inside a database transaction, committing only if fn succeeds.
func (r *TaskRepository) InTx(ctx context.Context, fn func(tasks.Store) error) error {
	var fnErr error
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		fnErr = fn(&TaskRepository{db: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return classify(oops.Code("TASK_TX_FAILED"), err)
	}
	return nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.DueAt, &t.Completed, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
