package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/biosecret/go-tasks/handlers"
	"github.com/biosecret/go-tasks/middleware"
)

// Routes carries everything SetupRoutes wires. A nil Public disables the
// unscoped single-task read; a nil Metrics hides /metrics.
type Routes struct {
	Auth           *handlers.AuthHandler
	Tasks          *handlers.TaskHandler
	Public         *handlers.PublicTaskHandler
	Events         *handlers.EventsHandler
	Validator      middleware.TokenValidator
	ObserveToken   func(ok bool)
	RequestTimeout time.Duration
	Metrics        fiber.Handler
}

func SetupRoutes(app *fiber.App, r Routes) {
	app.Get("/health", handlers.HandleHealthCheck)
	if r.Metrics != nil {
		app.Get("/metrics", r.Metrics)
	}

	timeout := middleware.RequestTimeout(r.RequestTimeout)
	jwt := middleware.JWTMiddleware(r.Validator, r.ObserveToken)

	app.Post("/usuarios", timeout, r.Auth.RegisterHandler)
	app.Post("/login", timeout, r.Auth.LoginHandler)

	app.Post("/tareas", jwt, timeout, r.Tasks.HandleCreateTask)
	app.Get("/listarTareas", jwt, timeout, r.Tasks.HandleAllTasks)
	app.Put("/editarTareas/:id", jwt, timeout, r.Tasks.HandleUpdateTask)
	app.Delete("/eliminarTareas/:id", jwt, timeout, r.Tasks.HandleDeleteTask)

	if r.Public != nil {
		app.Get("/listarTareas/:id", timeout, r.Public.HandleGetOneTask)
	}

	if r.Events != nil {
		// Streams outlive any request timeout.
		app.Get("/eventosTareas", jwt, r.Events.HandleTaskEvents)
	}
}
