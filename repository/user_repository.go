package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/biosecret/go-tasks/models"
)

const userColumns = `id, name, email, password_hash, created_at`

// UserRepository implements auth.UserStore and tasks.UserLookup.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// FindByName returns the user called name, or nil.
func (r *UserRepository) FindByName(ctx context.Context, name string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE name = $1`, name)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(oops.Code("USER_GET_BY_NAME_FAILED").With("name", name), err)
	}
	return user, nil
}

// FindByID returns the user with id, or nil.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(oops.Code("USER_GET_BY_ID_FAILED").With("id", id), err)
	}
	return user, nil
}

// Create inserts a user. The unique index on name rejects duplicates even
// when two registrations race past the caller's pre-check.
func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		name, email, passwordHash,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, classify(oops.Code("USER_CREATE_FAILED").With("name", name), err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
