package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	founderwebui "github.com/MegaGrindStone/founder-web-ui"
	"github.com/MegaGrindStone/founder-web-ui/internal/models"
	"github.com/MegaGrindStone/founder-web-ui/internal/session"
	"github.com/tmaxmax/go-sse"
)

// NewsSource provides the articles of the news view. An empty source selects the configured default.
type NewsSource interface {
	Articles(ctx context.Context, source string) ([]models.Article, error)
}

// Main serves the pages of the application and keeps the assistant views in sync with their sessions
// through server-sent events.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	registry *session.Registry
	advisor  session.Advisor
	news     NewsSource
	tipDelay time.Duration

	logger *slog.Logger
}

const errLoggerKey = "err"

// SSE event types for real-time updates.
var (
	chatboxSSEType = sse.Type("chatbox")
	closeSSEType   = sse.Type("closeAssistant")
)

// NewMain creates a new Main instance. Sessions mounted by the assistant view are kept in registry and
// answered by advisor; tipDelay is handed to every new session. Templates are parsed from the embedded
// filesystem.
func NewMain(
	advisor session.Advisor,
	news NewsSource,
	registry *session.Registry,
	tipDelay time.Duration,
	logger *slog.Logger,
) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		founderwebui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	return Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				sessionID := s.Req.URL.Query().Get("session_id")
				if sessionID == "" {
					return sse.Subscription{}, false
				}

				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      []string{sse.DefaultTopic, sessionTopic(sessionID)},
				}, true
			},
		},
		templates: tmpl,
		registry:  registry,
		advisor:   advisor,
		news:      news,
		tipDelay:  tipDelay,
		logger:    logger.With(slog.String("module", "main")),
	}, nil
}

func sessionTopic(sessionID string) string {
	return fmt.Sprintf("session-%s", sessionID)
}

// Shutdown gracefully terminates the Main instance's SSE server. It broadcasts a close message to all
// connected clients and waits up to 5 seconds for connections to terminate. After the timeout, any
// remaining connections are forcefully closed.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: closeSSEType}
	// We create a close event that complies with SSE spec requiring data
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

// render executes the template name into a buffer first, so a failing template never leaves a half
// written response behind.
func (m Main) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, name, data); err != nil {
		m.logger.Error("Failed to execute template",
			slog.String("template", name),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
