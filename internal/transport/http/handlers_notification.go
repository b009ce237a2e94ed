package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chimera/internal/notification"
)

// NotificationRelay is the slice of the relay the HTTP layer serves.
type NotificationRelay interface {
	Notifications() []string
	Stream(ctx context.Context, sink notification.Sink) error
}

// NotificationHandler serves the buffered notification list and the live
// event stream.
type NotificationHandler struct {
	relay  NotificationRelay
	logger *slog.Logger
}

func NewNotificationHandler(relay NotificationRelay, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{relay: relay, logger: logger}
}

// Register mounts the notification routes on r.
func (h *NotificationHandler) Register(r chi.Router) {
	r.Get("/api/flora-notification", h.handleList)
	r.Get("/api/flora-notification/flora-notifications-stream", h.handleStream)
}

func (h *NotificationHandler) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.relay.Notifications())
}

func (h *NotificationHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	if err := h.relay.Stream(ctx, sseSink{w: w, f: flusher}); err != nil {
		h.logger.InfoContext(ctx, "notification stream ended", "error", err)
	}
}

// sseSink writes each body as one server-sent data event and flushes it. A
// multi-line body becomes one data line per line so the event stays intact.
type sseSink struct {
	w http.ResponseWriter
	f http.Flusher
}

func (s sseSink) Send(body string) error {
	var event strings.Builder
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		event.WriteString("data: ")
		event.WriteString(line)
		event.WriteByte('\n')
	}
	event.WriteByte('\n')
	if _, err := io.WriteString(s.w, event.String()); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
