package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/auth"
)

// TokenValidator recovers the identity carried by a bearer token.
type TokenValidator interface {
	Validate(token string) (auth.Identity, error)
}

// JWTMiddleware authenticates the Authorization: Bearer header. On success
// the identity is stored in the request's user context and under the
// "user_id" local; otherwise the request stops with 401.
func JWTMiddleware(validator TokenValidator, observe func(ok bool)) fiber.Handler {
	if observe == nil {
		observe = func(bool) {}
	}
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			observe(false)
			return apperr.Unauthorized("AUTH_TOKEN_MISSING", "missing token")
		}

		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			observe(false)
			return apperr.Unauthorized("AUTH_TOKEN_FORMAT", "invalid token format")
		}

		id, err := validator.Validate(strings.TrimSpace(tokenString))
		if err != nil {
			observe(false)
			return err
		}
		observe(true)

		c.Locals("user_id", id.UserID)
		c.SetUserContext(auth.WithIdentity(c.UserContext(), id))
		return c.Next()
	}
}
