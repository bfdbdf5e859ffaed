package handlers

import (
	"bufio"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/auth"
	"github.com/biosecret/go-tasks/events"
)

// EventsHandler streams the caller's task events as server-sent events.
type EventsHandler struct {
	hub       *events.Hub
	logger    *slog.Logger
	keepAlive time.Duration
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(hub *events.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger, keepAlive: 15 * time.Second}
}

// HandleTaskEvents opens an SSE stream of the caller's own task changes.
//
//	@Summary	Stream own task events
//	@Tags		Tareas
//	@Security	BearerAuth
//	@Produce	text/event-stream
//	@Router		/eventosTareas [get]
func (h *EventsHandler) HandleTaskEvents(c *fiber.Ctx) error {
	id, ok := auth.IdentityFrom(c.UserContext())
	if !ok {
		return apperr.Unauthorized("AUTH_REQUIRED", "authentication required")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	stream, cancel := h.hub.Subscribe(id.UserID)
	h.logger.Info("task event stream opened", "user_id", id.UserID)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		keepAlive := time.NewTicker(h.keepAlive)
		defer keepAlive.Stop()

		for {
			var msg string
			select {
			case ev := <-stream:
				formatted, err := events.FormatSSE(ev.Type, ev)
				if err != nil {
					h.logger.Error("format sse message", "error", err)
					continue
				}
				msg = formatted
			case <-keepAlive.C:
				msg = events.KeepAlive
			}

			if _, err := fmt.Fprint(w, msg); err != nil {
				return
			}
			// A failed flush means the client went away.
			if err := w.Flush(); err != nil {
				h.logger.Info("task event stream closed", "user_id", id.UserID)
				return
			}
		}
	}))

	return nil
}
