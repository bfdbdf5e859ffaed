// Package auth issues and validates the credentials that establish who is
// making a request: password registration and login, signed session tokens,
// and the per-request Identity.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/models"
)

// maxPasswordBytes is the bcrypt input limit; longer passwords are rejected
// rather than truncated.
const maxPasswordBytes = 72

// UserStore is the user persistence capability the credential service needs.
// Find methods return (nil, nil) when no user matches.
type UserStore interface {
	FindByName(ctx context.Context, name string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)
}

// Credentials registers users, authenticates them and validates their tokens.
type Credentials struct {
	users  UserStore
	hasher PasswordHasher
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewCredentials creates a Credentials service.
func NewCredentials(users UserStore, hasher PasswordHasher, tokens *TokenIssuer, logger *slog.Logger) (*Credentials, error) {
	if users == nil {
		return nil, oops.Errorf("user store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Credentials{users: users, hasher: hasher, tokens: tokens, logger: logger}, nil
}

// Register creates a new user. The name must be unused.
func (s *Credentials) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, apperr.Validation("AUTH_REGISTER_INVALID", "name, email and password are required")
	}
	if utf8.RuneCountInString(name) > models.MaxNameLength || utf8.RuneCountInString(email) > models.MaxEmailLength {
		return nil, apperr.Validation("AUTH_REGISTER_TOO_LONG", "name and email must be at most 255 characters")
	}
	if len(password) > maxPasswordBytes {
		return nil, apperr.Validation("AUTH_PASSWORD_TOO_LONG", "password must be at most 72 bytes")
	}

	existing, err := s.users.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("AUTH_USER_EXISTS", "user already exists")
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.Validation("AUTH_PASSWORD_TOO_LONG", "password must be at most 72 bytes")
	}
	if err != nil {
		return nil, apperr.Storage(oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password"), err)
	}

	user, err := s.users.Create(ctx, name, email, hash)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks a name/password pair and issues a session token.
func (s *Credentials) Authenticate(ctx context.Context, name, password string) (*models.User, string, error) {
	user, err := s.users.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", apperr.NotFound("AUTH_USER_NOT_FOUND", "user does not exist")
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, "", apperr.Storage(oops.Code("AUTH_LOGIN_FAILED").With("user_id", user.ID), err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "login rejected", "user_id", user.ID)
		return nil, "", apperr.Unauthorized("AUTH_INVALID_CREDENTIALS", "incorrect password")
	}

	token, err := s.tokens.Issue(Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, "", apperr.Storage(oops.Code("AUTH_LOGIN_FAILED").With("user_id", user.ID), err)
	}
	return user, token, nil
}

// Validate returns the identity carried by a bearer token.
func (s *Credentials) Validate(token string) (Identity, error) {
	return s.tokens.Parse(token)
}
