package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/auth"
	"github.com/biosecret/go-tasks/models"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	creds   *auth.Credentials
	observe func(ok bool)
}

// NewAuthHandler creates an AuthHandler. observe, if set, is told the outcome of each login.
func NewAuthHandler(creds *auth.Credentials, observe func(ok bool)) *AuthHandler {
	if observe == nil {
		observe = func(bool) {}
	}
	return &AuthHandler{creds: creds, observe: observe}
}

// RegisterHandler creates a user.
//
//	@Summary	Register a user
//	@Tags		Usuarios
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.RegisterRequest	true	"New user"
//	@Success	200		{object}	models.Envelope
//	@Failure	409		{object}	models.Envelope
//	@Router		/usuarios [post]
func (h *AuthHandler) RegisterHandler(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.creds.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(models.Success(user, "user created"))
}

// LoginHandler exchanges a name and password for a session token.
//
//	@Summary	Log in
//	@Tags		Usuarios
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.LoginRequest	true	"Credentials"
//	@Success	200		{object}	models.Envelope
//	@Failure	401		{object}	models.Envelope
//	@Failure	404		{object}	models.Envelope
//	@Router		/login [post]
func (h *AuthHandler) LoginHandler(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, token, err := h.creds.Authenticate(c.UserContext(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) || errors.Is(err, apperr.ErrNotFound) {
			h.observe(false)
		}
		return err
	}
	h.observe(true)

	return c.Status(fiber.StatusOK).JSON(models.Success(models.LoginResult{User: user, Token: token}, "login successful"))
}
