package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/models"
	"github.com/biosecret/go-tasks/tasks"
)

var taskCols = []string{"id", "title", "description", "due_at", "completed", "owner_id", "created_at", "updated_at"}

var stamp = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func taskRow(rows *pgxmock.Rows, id int64, title string, completed bool, owner int64) *pgxmock.Rows {
	return rows.AddRow(id, title, (*string)(nil), (*time.Time)(nil), completed, owner, stamp, stamp)
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestTaskRepository_Create(t *testing.T) {
	t.Run("inserts with owner", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks (title, description, due_at, completed, owner_id)")).
			WithArgs("buy milk", (*string)(nil), (*time.Time)(nil), false, int64(1)).
			WillReturnRows(taskRow(pgxmock.NewRows(taskCols), 10, "buy milk", false, 1))

		task, err := NewTaskRepository(mock).Create(context.Background(), 1, models.NewTask{Title: "buy milk"})
		require.NoError(t, err)
		assert.Equal(t, int64(10), task.ID)
		assert.Equal(t, int64(1), task.OwnerID)
		assert.False(t, task.Completed)
		assert.Nil(t, task.Description)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing owner trips foreign key", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks")).
			WithArgs("buy milk", (*string)(nil), (*time.Time)(nil), false, int64(99)).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "tasks_owner_id_fkey"})

		_, err := NewTaskRepository(mock).Create(context.Background(), 99, models.NewTask{Title: "buy milk"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	for _, code := range []string{pgerrcode.StringDataRightTruncationDataException, pgerrcode.CheckViolation} {
		t.Run("rejected value is a validation error "+code, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks")).
				WithArgs("buy milk", (*string)(nil), (*time.Time)(nil), false, int64(1)).
				WillReturnError(&pgconn.PgError{Code: code, ConstraintName: "tasks_title_check"})

			_, err := NewTaskRepository(mock).Create(context.Background(), 1, models.NewTask{Title: "buy milk"})
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.NotErrorIs(t, err, apperr.ErrInternal)
			assert.Equal(t, "invalid field value", apperr.Message(err))
		})
	}
}

func TestTaskRepository_ListByOwner(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      []int64
		wantErr   error
	}{
		{
			name: "owner scoped rows",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(taskCols)
				taskRow(rows, 1, "a", false, 7)
				taskRow(rows, 3, "b", true, 7)
				mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE owner_id = $1 ORDER BY id")).
					WithArgs(int64(7)).
					WillReturnRows(rows)
			},
			want: []int64{1, 3},
		},
		{
			name: "no rows is an empty list",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE owner_id = $1")).
					WithArgs(int64(7)).
					WillReturnRows(pgxmock.NewRows(taskCols))
			},
			want: []int64{},
		},
		{
			name: "query canceled is a timeout",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE owner_id = $1")).
					WithArgs(int64(7)).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.QueryCanceled})
			},
			wantErr: apperr.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			got, err := NewTaskRepository(mock).ListByOwner(context.Background(), 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			ids := []int64{}
			for _, task := range got {
				ids = append(ids, task.ID)
				assert.Equal(t, int64(7), task.OwnerID)
			}
			assert.Equal(t, tt.want, ids)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTaskRepository_FindOwned(t *testing.T) {
	t.Run("other owner reads as absent", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1 AND owner_id = $2 FOR UPDATE")).
			WithArgs(int64(5), int64(2)).
			WillReturnRows(pgxmock.NewRows(taskCols))

		task, err := NewTaskRepository(mock).FindOwned(context.Background(), 2, 5)
		require.NoError(t, err)
		assert.Nil(t, task)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("owned", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1 AND owner_id = $2")).
			WithArgs(int64(5), int64(1)).
			WillReturnRows(taskRow(pgxmock.NewRows(taskCols), 5, "x", false, 1))

		task, err := NewTaskRepository(mock).FindOwned(context.Background(), 1, 5)
		require.NoError(t, err)
		require.NotNil(t, task)
		assert.Equal(t, "x", task.Title)
	})
}

func TestTaskRepository_FindByID(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(taskRow(pgxmock.NewRows(taskCols), 5, "x", false, 3))

	task, err := NewTaskRepository(mock).FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), task.OwnerID)
}

func TestTaskRepository_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"removed", 1, true},
		{"nothing owned", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1 AND owner_id = $2")).
				WithArgs(int64(5), int64(1)).
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			got, err := NewTaskRepository(mock).Delete(context.Background(), 1, 5)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTaskRepository_InTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1 AND owner_id = $2 FOR UPDATE")).
			WithArgs(int64(5), int64(1)).
			WillReturnRows(taskRow(pgxmock.NewRows(taskCols), 5, "x", false, 1))
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks")).
			WithArgs("x", pgxmock.AnyArg(), pgxmock.AnyArg(), true, int64(5), int64(1)).
			WillReturnRows(taskRow(pgxmock.NewRows(taskCols), 5, "x", true, 1))
		mock.ExpectCommit()

		repo := NewTaskRepository(mock)
		var updated *models.Task
		err := repo.InTx(context.Background(), func(tx tasks.Store) error {
			task, err := tx.FindOwned(context.Background(), 1, 5)
			if err != nil {
				return err
			}
			task.Completed = true
			updated, err = tx.Update(context.Background(), task)
			return err
		})
		require.NoError(t, err)
		assert.True(t, updated.Completed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("validation failed")
		err := NewTaskRepository(mock).InTx(context.Background(), func(tasks.Store) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

		called := false
		err := NewTaskRepository(mock).InTx(context.Background(), func(tasks.Store) error {
			called = true
			return nil
		})
		assert.False(t, called)
		assert.ErrorIs(t, err, apperr.ErrInternal)
	})
}
