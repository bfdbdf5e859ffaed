package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
)

// Config holds every process-level setting. It is read once at startup and
// handed to the components that need it; nothing below the app package reads
// the environment.
type Config struct {
	Port           string
	PostgreSQLURI  string
	Store          string
	JWTSecret      []byte
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	PublicTaskRead bool
	MQTTURL        string
	LogFormat      string
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var (
	loadOnce sync.Once
	loaded   *Config
	loadErr  error
)

// LoadENV reads variables from a .env file if one exists.
func LoadENV() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}
	return nil
}

// Load returns the process configuration, building it from the environment
// on first use. Later calls return the same value.
func Load() (*Config, error) {
	loadOnce.Do(func() {
		if err := LoadENV(); err != nil {
			loadErr = err
			return
		}
		loaded, loadErr = FromEnv(os.Getenv)
	})
	return loaded, loadErr
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:          stringOr(getenv("PORT"), "3000"),
		PostgreSQLURI: getenv("POSTGRESQL_URI"),
		Store:         stringOr(getenv("STORE"), StorePostgres),
		JWTSecret:     []byte(getenv("JWT_SECRET")),
		MQTTURL:       getenv("MQTT_URL"),
		LogFormat:     stringOr(getenv("LOG_FORMAT"), "json"),
	}

	var err error
	if cfg.TokenTTL, err = durationOr(getenv, "TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = durationOr(getenv, "REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.PublicTaskRead, err = boolOr(getenv, "PUBLIC_TASK_READ", true); err != nil {
		return nil, err
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("you must set your 'JWT_SECRET' environmental variable")
	}
	switch cfg.Store {
	case StorePostgres:
		if cfg.PostgreSQLURI == "" {
			return nil, oops.Code("CONFIG_INVALID").Errorf("you must set your 'POSTGRESQL_URI' environmental variable")
		}
	case StoreMemory:
	default:
		return nil, oops.Code("CONFIG_INVALID").With("store", cfg.Store).Errorf("unknown store %q", cfg.Store)
	}

	return cfg, nil
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationOr(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, oops.Code("CONFIG_INVALID").With("key", key).With("value", v).Errorf("invalid duration for %s", key)
	}
	return d, nil
}

func boolOr(getenv func(string) string, key string, def bool) (bool, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, oops.Code("CONFIG_INVALID").With("key", key).With("value", v).Wrap(err)
	}
	return b, nil
}
