package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biosecret/go-tasks/metrics"
	"github.com/biosecret/go-tasks/models"
)

func TestPublishCountsByType(t *testing.T) {
	m := metrics.New()
	m.Publish(context.Background(), models.TaskEvent{Type: models.TaskCreated})
	m.Publish(context.Background(), models.TaskEvent{Type: models.TaskCreated})
	m.Publish(context.Background(), models.TaskEvent{Type: models.TaskDeleted})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TaskEvents.WithLabelValues(models.TaskCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskEvents.WithLabelValues(models.TaskDeleted)))
}

func TestAuth(t *testing.T) {
	m := metrics.New()
	m.Auth("login", true)
	m.Auth("login", false)
	m.Auth("login", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("login", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("login", "failure")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := metrics.New()
	m.Auth("token", false)

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `tasks_auth_attempts_total{kind="token",result="failure"} 1`)
}

func TestTrackStreams(t *testing.T) {
	m := metrics.New()
	open := 3
	require.NoError(t, m.TrackStreams(func() int { return open }))

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tasks_event_streams 3")

	assert.Error(t, m.TrackStreams(func() int { return 0 }))
}
