package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/biosecret/go-tasks/auth"
	"github.com/biosecret/go-tasks/config"
	"github.com/biosecret/go-tasks/database"
	"github.com/biosecret/go-tasks/events"
	"github.com/biosecret/go-tasks/handlers"
	"github.com/biosecret/go-tasks/logging"
	"github.com/biosecret/go-tasks/metrics"
	"github.com/biosecret/go-tasks/repository"
	"github.com/biosecret/go-tasks/repository/memstore"
	"github.com/biosecret/go-tasks/router"
	"github.com/biosecret/go-tasks/tasks"
)

// Deps are the collaborators NewApp assembles into an HTTP application.
type Deps struct {
	Config     *config.Config
	Logger     *slog.Logger
	Users      auth.UserStore
	Tasks      tasks.Store
	Hasher     auth.PasswordHasher
	Metrics    *metrics.Metrics
	Publishers []tasks.Publisher
}

// NewApp builds the Fiber application with every route and middleware wired.
func NewApp(d Deps) (*fiber.App, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Hasher == nil {
		d.Hasher = auth.NewBcryptHasher(0)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	issuer, err := auth.NewTokenIssuer(d.Config.JWTSecret, d.Config.TokenTTL)
	if err != nil {
		return nil, err
	}
	creds, err := auth.NewCredentials(d.Users, d.Hasher, issuer, d.Logger)
	if err != nil {
		return nil, err
	}

	hub := events.NewHub(d.Logger)
	if err := d.Metrics.TrackStreams(hub.Len); err != nil {
		return nil, oops.Code("METRICS_REGISTER_FAILED").Wrap(err)
	}
	publisher := events.Fanout(append([]tasks.Publisher{hub, d.Metrics}, d.Publishers...))
	svc, err := tasks.NewService(d.Tasks, d.Users, publisher, d.Logger)
	if err != nil {
		return nil, err
	}

	routes := router.Routes{
		Auth:           handlers.NewAuthHandler(creds, func(ok bool) { d.Metrics.Auth("login", ok) }),
		Tasks:          handlers.NewTaskHandler(svc),
		Events:         handlers.NewEventsHandler(hub, d.Logger),
		Validator:      creds,
		ObserveToken:   func(ok bool) { d.Metrics.Auth("token", ok) },
		RequestTimeout: d.Config.RequestTimeout,
		Metrics:        d.Metrics.Handler(),
	}
	if d.Config.PublicTaskRead {
		reader, err := tasks.NewPublicReader(d.Tasks)
		if err != nil {
			return nil, err
		}
		routes.Public = handlers.NewPublicTaskHandler(reader)
	}

	app := fiber.New(fiber.Config{
		AppName: "go-tasks",
		ErrorHandler: handlers.ErrorHandler(d.Logger, func(status int) {
			d.Metrics.Responses.WithLabelValues(statusLabel(status)).Inc()
		}),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "[${ip}]:${port} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
	}))

	router.SetupRoutes(app, routes)
	config.AddSwaggerRoutes(app)

	return app, nil
}

func statusLabel(status int) string {
	return strconv.Itoa(status)
}

// SetupAndRunApp loads configuration, connects storage and serves until the
// process receives SIGINT or SIGTERM.
func SetupAndRunApp(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.Setup("go-tasks", cfg.LogFormat, nil)

	deps := Deps{Config: cfg, Logger: log}

	switch cfg.Store {
	case config.StoreMemory:
		store := memstore.New()
		deps.Users, deps.Tasks = store, store.Tasks()
		log.Warn("using in-memory store; data is lost on exit")
	default:
		pool, err := database.StartPostgreSQL(ctx, cfg.PostgreSQLURI, log)
		if err != nil {
			return err
		}
		defer database.ClosePostgreSQL(pool, log)
		deps.Users = repository.NewUserRepository(pool)
		deps.Tasks = repository.NewTaskRepository(pool)
	}

	if cfg.MQTTURL != "" {
		pub, err := events.ConnectMQTT(cfg.MQTTURL, "go-tasks-"+uuid.NewString()[:8], log)
		if err != nil {
			// Notifications are optional; the API keeps working without them.
			logging.LogError(log, "mqtt unavailable, task events will not be published", err)
		} else {
			defer pub.Close()
			deps.Publishers = append(deps.Publishers, pub)
		}
	}

	app, err := NewApp(deps)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logging.LogError(log, "shutdown", err)
		}
	}()

	log.Info("listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("port", cfg.Port).Wrap(err)
	}
	return nil
}
