package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/MegaGrindStone/founder-web-ui/internal/models"
	"github.com/MegaGrindStone/founder-web-ui/internal/session"
	"github.com/tmaxmax/go-sse"
)

type assistantPageData struct {
	Title        string
	SessionID    string
	PendingInput string
	Chatbox      chatboxData
}

type chatboxData struct {
	SessionID   string
	Tabs        []topicTab
	Active      models.Topic
	Placeholder string
	Messages    []models.Message
	Examples    []exampleCard
	Busy        bool
	Status      string
}

type topicTab struct {
	Topic  models.Topic
	Label  string
	Active bool
}

type exampleCard struct {
	SessionID string
	Index     int
	models.ExampleCard
}

func newChatboxData(sessionID string, st session.State) chatboxData {
	tabs := make([]topicTab, len(models.Topics))
	for i, t := range models.Topics {
		tabs[i] = topicTab{
			Topic:  t,
			Label:  t.Label(),
			Active: t == st.ActiveTopic,
		}
	}

	msgs := st.Logs[st.ActiveTopic]

	// The gallery is only offered while the log holds nothing but the greeting.
	var examples []exampleCard
	if len(msgs) == 1 {
		for i, c := range models.ExamplesFor(st.ActiveTopic) {
			examples = append(examples, exampleCard{SessionID: sessionID, Index: i, ExampleCard: c})
		}
	}

	return chatboxData{
		SessionID:   sessionID,
		Tabs:        tabs,
		Active:      st.ActiveTopic,
		Placeholder: st.ActiveTopic.Placeholder(),
		Messages:    msgs,
		Examples:    examples,
		Busy:        st.RequestInFlight,
		Status:      st.StatusText,
	}
}

// HandleAssistant mounts a new conversation session and renders the assistant view for it.
func (m Main) HandleAssistant(w http.ResponseWriter, _ *http.Request) {
	s, err := m.registry.Create(session.Options{
		Advisor:  m.advisor,
		TipDelay: m.tipDelay,
		Listener: m.publishChatbox,
		Logger:   m.logger,
	})
	if err != nil {
		m.logger.Error("Failed to create session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	st := s.Snapshot()
	m.render(w, http.StatusOK, "assistant.html", assistantPageData{
		Title:        "AI Assistants",
		SessionID:    s.ID(),
		PendingInput: st.PendingInput,
		Chatbox:      newChatboxData(s.ID(), st),
	})
}

// HandleChatbox renders the current chatbox of a session. Clients call it after (re)connecting to the
// event stream to catch up with changes they may have missed.
func (m Main) HandleChatbox(w http.ResponseWriter, r *http.Request) {
	s, ok := m.session(w, r)
	if !ok {
		return
	}
	m.renderChatbox(w, s)
}

// HandleTopic switches the active topic of a session. The "draft" form field, when present, is stored as
// the session's pending input before the switch.
func (m Main) HandleTopic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s, ok := m.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		m.logger.Error("Failed to parse form", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	t, err := models.ParseTopic(r.PostForm.Get("topic"))
	if err != nil {
		m.logger.Error("Invalid topic", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, ok := r.PostForm["draft"]; ok {
		s.SetInput(r.PostForm.Get("draft"))
	}
	if err := s.SelectTopic(t); err != nil {
		m.logger.Error("Failed to select topic", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.renderChatbox(w, s)
}

// HandleMessages submits the "message" form field under the active topic of a session. Blank messages and
// messages sent while a request is in flight are ignored; the current chatbox is rendered either way.
func (m Main) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s, ok := m.session(w, r)
	if !ok {
		return
	}

	msg := r.FormValue("message")
	if !s.Submit(msg) {
		m.logger.Debug("Message ignored",
			slog.String("sessionID", s.ID()),
			slog.Bool("blank", strings.TrimSpace(msg) == ""))
	}

	m.renderChatbox(w, s)
}

// HandleExample submits the prompt of one example card of the active topic.
func (m Main) HandleExample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s, ok := m.session(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid example index: %s", r.PathValue("index")), http.StatusBadRequest)
		return
	}
	if _, err := s.SubmitExample(index); err != nil {
		m.logger.Error("Failed to submit example", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.renderChatbox(w, s)
}

// HandleClose unmounts a session. Pending timers are cancelled and late replies are dropped.
func (m Main) HandleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := m.registry.Close(r.PathValue("id")); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		m.logger.Error("Failed to close session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSSE streams the refreshed chatbox of the session named by the "session_id" query parameter. The
// session is kept from idle eviction while the stream is open.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	s, err := m.registry.Get(r.URL.Query().Get("session_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	detach := s.Attach()
	defer detach()

	m.sseSrv.ServeHTTP(w, r)
}

func (m Main) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := m.registry.Get(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return s, true
}

func (m Main) renderChatbox(w http.ResponseWriter, s *session.Session) {
	m.render(w, http.StatusOK, "chatbox", newChatboxData(s.ID(), s.Snapshot()))
}

// publishChatbox is the listener of every mounted session: each change re-renders the chatbox and pushes it
// to the session's event stream.
func (m Main) publishChatbox(ev session.Event) {
	s, err := m.registry.Get(ev.SessionID)
	if err != nil {
		// Closed or not registered yet; nobody is listening.
		return
	}

	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "chatbox", newChatboxData(s.ID(), s.Snapshot())); err != nil {
		m.logger.Error("Failed to execute chatbox template",
			slog.String("sessionID", ev.SessionID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{
		Type: chatboxSSEType,
	}
	msg.AppendData(sb.String())
	if err := m.sseSrv.Publish(&msg, sessionTopic(ev.SessionID)); err != nil {
		m.logger.Error("Failed to publish chatbox",
			slog.String("sessionID", ev.SessionID),
			slog.String(errLoggerKey, err.Error()))
	}
}
