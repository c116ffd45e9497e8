package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MegaGrindStone/founder-web-ui/internal/handlers"
	"github.com/MegaGrindStone/founder-web-ui/internal/models"
	"github.com/MegaGrindStone/founder-web-ui/internal/session"
	"github.com/tmaxmax/go-sse"
)

type mockAdvisor struct {
	mu     sync.Mutex
	reply  string
	err    error
	topics []models.Topic
}

type mockNews struct {
	articles []models.Article
	err      error

	gotSource string
}

var sessionIDRe = regexp.MustCompile(`data-session-id="([^"]+)"`)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMain(t *testing.T, advisor *mockAdvisor, news *mockNews) (handlers.Main, *session.Registry) {
	t.Helper()

	registry := session.NewRegistry(testLogger())
	t.Cleanup(registry.CloseAll)

	main, err := handlers.NewMain(advisor, news, registry, -1, testLogger())
	if err != nil {
		t.Fatalf("NewMain() error = %v", err)
	}
	return main, registry
}

// mountSession renders the assistant view and returns the id of the session it created.
func mountSession(t *testing.T, main handlers.Main) string {
	t.Helper()

	w := httptest.NewRecorder()
	main.HandleAssistant(w, httptest.NewRequest(http.MethodGet, "/idea-validation", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("HandleAssistant() status = %v, want %v", w.Code, http.StatusOK)
	}

	match := sessionIDRe.FindStringSubmatch(w.Body.String())
	if match == nil {
		t.Fatalf("HandleAssistant() body has no session id: %s", w.Body.String())
	}
	return match[1]
}

func postForm(target string, values url.Values, pathValues map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	return req
}

func TestNewMain(t *testing.T) {
	main, _ := newTestMain(t, &mockAdvisor{}, &mockNews{})

	if main.Shutdown(context.Background()) != nil {
		t.Error("Shutdown() should not return error")
	}
}

func TestHandleLanding(t *testing.T) {
	main, _ := newTestMain(t, &mockAdvisor{}, &mockNews{})

	tests := []struct {
		name         string
		method       string
		url          string
		email        string
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{
			name:       "Landing page",
			method:     http.MethodGet,
			url:        "/",
			wantStatus: http.StatusOK,
			wantBody:   "Find the Right Co-Founder",
		},
		{
			name:         "Unknown path",
			method:       http.MethodGet,
			url:          "/does-not-exist",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/",
		},
		{
			name:         "Valid gmail",
			method:       http.MethodPost,
			url:          "/",
			email:        "founder.one@gmail.com",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/dashboard",
		},
		{
			name:         "Valid outlook",
			method:       http.MethodPost,
			url:          "/",
			email:        "jane+startup@outlook.com",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/dashboard",
		},
		{
			name:       "Other domain",
			method:     http.MethodPost,
			url:        "/",
			email:      "founder@example.com",
			wantStatus: http.StatusBadRequest,
			wantBody:   "Please enter a valid email id",
		},
		{
			name:       "Empty email",
			method:     http.MethodPost,
			url:        "/",
			wantStatus: http.StatusBadRequest,
			wantBody:   "Please enter a valid email id",
		},
		{
			name:       "Invalid method",
			method:     http.MethodDelete,
			url:        "/",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"email": {tt.email}}
			req := httptest.NewRequest(tt.method, tt.url, strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()

			main.HandleLanding(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleLanding() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" && w.Header().Get("Location") != tt.wantLocation {
				t.Errorf("HandleLanding() location = %v, want %v", w.Header().Get("Location"), tt.wantLocation)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("HandleLanding() body = %v, want to contain %v", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHandleDashboard(t *testing.T) {
	main, _ := newTestMain(t, &mockAdvisor{}, &mockNews{})

	w := httptest.NewRecorder()
	main.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if w.Code != http.StatusOK {
		t.Errorf("HandleDashboard() status = %v, want %v", w.Code, http.StatusOK)
	}
	for _, tool := range models.DashboardTools {
		if !strings.Contains(w.Body.String(), tool.Link) {
			t.Errorf("HandleDashboard() body should link to %v", tool.Link)
		}
	}
}

func TestHandleNews(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		news       *mockNews
		wantSource string
		wantBody   string
	}{
		{
			name: "Default source",
			url:  "/news",
			news: &mockNews{articles: []models.Article{
				{Title: "Seed round closed", Link: "https://example.com/seed"},
			}},
			wantBody: "Seed round closed",
		},
		{
			name:       "Source override",
			url:        "/news?source=Inc42",
			news:       &mockNews{},
			wantSource: "Inc42",
			wantBody:   "No news right now.",
		},
		{
			name:     "Collaborator failure",
			url:      "/news",
			news:     &mockNews{err: errors.New("connection refused")},
			wantBody: "Failed to fetch news.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			main, _ := newTestMain(t, &mockAdvisor{}, tt.news)

			w := httptest.NewRecorder()
			main.HandleNews(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != http.StatusOK {
				t.Errorf("HandleNews() status = %v, want %v", w.Code, http.StatusOK)
			}
			if tt.news.gotSource != tt.wantSource {
				t.Errorf("HandleNews() source = %v, want %v", tt.news.gotSource, tt.wantSource)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("HandleNews() body = %v, want to contain %v", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHandleFindCofounder(t *testing.T) {
	main, _ := newTestMain(t, &mockAdvisor{}, &mockNews{})

	tests := []struct {
		name    string
		url     string
		want    []string
		notWant []string
	}{
		{
			name: "All founders",
			url:  "/find-cofounder",
			want: []string{"Sarah Chen", "Alex Rivera", "Emily Zhang"},
		},
		{
			name:    "Query",
			url:     "/find-cofounder?q=fintech",
			want:    []string{"Alex Rivera"},
			notWant: []string{"Sarah Chen", "Emily Zhang"},
		},
		{
			name:    "Skill",
			url:     "/find-cofounder?skill=" + url.QueryEscape("AI/ML"),
			want:    []string{"Sarah Chen"},
			notWant: []string{"Alex Rivera", "Emily Zhang"},
		},
		{
			name:    "No match",
			url:     "/find-cofounder?q=quantum",
			want:    []string{"No co-founders match your filters."},
			notWant: []string{"Sarah Chen"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			main.HandleFindCofounder(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != http.StatusOK {
				t.Errorf("HandleFindCofounder() status = %v, want %v", w.Code, http.StatusOK)
			}
			for _, s := range tt.want {
				if !strings.Contains(w.Body.String(), s) {
					t.Errorf("HandleFindCofounder() body should contain %v", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(w.Body.String(), s) {
					t.Errorf("HandleFindCofounder() body should not contain %v", s)
				}
			}
		})
	}
}

func TestHandleAssistant(t *testing.T) {
	main, registry := newTestMain(t, &mockAdvisor{}, &mockNews{})

	w := httptest.NewRecorder()
	main.HandleAssistant(w, httptest.NewRequest(http.MethodGet, "/idea-validation", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("HandleAssistant() status = %v, want %v", w.Code, http.StatusOK)
	}
	if registry.Len() != 1 {
		t.Errorf("HandleAssistant() sessions = %v, want 1", registry.Len())
	}
	body := w.Body.String()
	for _, s := range []string{"AI Ideation Partner", "Market Analysis", "Pitch Deck Generator", "Describe your startup idea..."} {
		if !strings.Contains(body, s) {
			t.Errorf("HandleAssistant() body should contain %v", s)
		}
	}
}

func TestHandleMessages(t *testing.T) {
	advisor := &mockAdvisor{reply: "## Verdict\n**Strong** idea"}
	main, registry := newTestMain(t, advisor, &mockNews{})
	id := mountSession(t, main)

	tests := []struct {
		name       string
		method     string
		id         string
		message    string
		wantStatus int
	}{
		{
			name:       "Invalid method",
			method:     http.MethodGet,
			id:         id,
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "Unknown session",
			method:     http.MethodPost,
			id:         "missing",
			message:    "Hello",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Blank message",
			method:     http.MethodPost,
			id:         id,
			message:    "   ",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Message",
			method:     http.MethodPost,
			id:         id,
			message:    "AI tutor for rural schools",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := postForm("/idea-validation/"+tt.id+"/messages", url.Values{"message": {tt.message}},
				map[string]string{"id": tt.id})
			req.Method = tt.method
			w := httptest.NewRecorder()

			main.HandleMessages(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleMessages() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}

	s, err := registry.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	s.Wait()

	log := s.Snapshot().Logs[models.TopicIdeation]
	if len(log) != 3 {
		t.Fatalf("ideation log length = %v, want 3", len(log))
	}
	if log[1].Text != "AI tutor for rural schools" {
		t.Errorf("user message = %q", log[1].Text)
	}
	if log[2].Text != "Verdict\nStrong idea" {
		t.Errorf("assistant message = %q, want normalized reply", log[2].Text)
	}
	if got := advisor.calledTopics(); len(got) != 1 || got[0] != models.TopicIdeation {
		t.Errorf("advisor topics = %v, want [ideation]", got)
	}
}

func TestHandleTopic(t *testing.T) {
	main, registry := newTestMain(t, &mockAdvisor{}, &mockNews{})
	id := mountSession(t, main)

	tests := []struct {
		name       string
		id         string
		form       url.Values
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Unknown session",
			id:         "missing",
			form:       url.Values{"topic": {"market"}},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Unknown topic",
			id:         id,
			form:       url.Values{"topic": {"marketing"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Switch with draft",
			id:         id,
			form:       url.Values{"topic": {"market"}, "draft": {"half typed idea"}},
			wantStatus: http.StatusOK,
			wantBody:   "Welcome to Market Analyst!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := postForm("/idea-validation/"+tt.id+"/topic", tt.form, map[string]string{"id": tt.id})
			w := httptest.NewRecorder()

			main.HandleTopic(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleTopic() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("HandleTopic() body = %v, want to contain %v", w.Body.String(), tt.wantBody)
			}
		})
	}

	s, err := registry.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	st := s.Snapshot()
	if st.ActiveTopic != models.TopicMarket {
		t.Errorf("active topic = %v, want %v", st.ActiveTopic, models.TopicMarket)
	}
	if st.PendingInput != "half typed idea" {
		t.Errorf("pending input = %q, want draft", st.PendingInput)
	}
}

func TestHandleExample(t *testing.T) {
	advisor := &mockAdvisor{reply: "Market is growing"}
	main, registry := newTestMain(t, advisor, &mockNews{})
	id := mountSession(t, main)

	w := httptest.NewRecorder()
	main.HandleTopic(w, postForm("/", url.Values{"topic": {"market"}}, map[string]string{"id": id}))
	if !strings.Contains(w.Body.String(), models.ExamplesFor(models.TopicMarket)[0].Title) {
		t.Fatalf("HandleTopic() body should show the market examples")
	}

	tests := []struct {
		name       string
		index      string
		wantStatus int
	}{
		{name: "Not a number", index: "first", wantStatus: http.StatusBadRequest},
		{name: "Out of range", index: "9", wantStatus: http.StatusBadRequest},
		{name: "First card", index: "0", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := postForm("/", url.Values{}, map[string]string{"id": id, "index": tt.index})
			w := httptest.NewRecorder()

			main.HandleExample(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleExample() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}

	s, err := registry.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	s.Wait()

	log := s.Snapshot().Logs[models.TopicMarket]
	if len(log) != 3 {
		t.Fatalf("market log length = %v, want 3", len(log))
	}
	if want := models.ExamplesFor(models.TopicMarket)[0].Prompt(); log[1].Text != want {
		t.Errorf("user message = %q, want %q", log[1].Text, want)
	}
}

func TestHandleClose(t *testing.T) {
	main, registry := newTestMain(t, &mockAdvisor{}, &mockNews{})
	id := mountSession(t, main)

	tests := []struct {
		name       string
		method     string
		wantStatus int
	}{
		{name: "Invalid method", method: http.MethodGet, wantStatus: http.StatusMethodNotAllowed},
		{name: "Close", method: http.MethodPost, wantStatus: http.StatusNoContent},
		{name: "Already closed", method: http.MethodPost, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := postForm("/", url.Values{}, map[string]string{"id": id})
			req.Method = tt.method
			w := httptest.NewRecorder()

			main.HandleClose(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleClose() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}

	if registry.Len() != 0 {
		t.Errorf("sessions = %v, want 0", registry.Len())
	}
}

func TestHandleSSE(t *testing.T) {
	main, registry := newTestMain(t, &mockAdvisor{}, &mockNews{})
	id := mountSession(t, main)

	w := httptest.NewRecorder()
	main.HandleSSE(w, httptest.NewRequest(http.MethodGet, "/sse/assistant?session_id=missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("HandleSSE() status = %v, want %v", w.Code, http.StatusNotFound)
	}

	srv := httptest.NewServer(http.HandlerFunc(main.HandleSSE))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?session_id="+id, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	s, err := registry.Get(id)
	if err != nil {
		t.Fatal(err)
	}

	// The subscription is registered after the response headers are sent, so keep changing the session
	// until an event arrives.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		topics := []models.Topic{models.TopicFunding, models.TopicIdeation}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-time.After(20 * time.Millisecond):
				_ = s.SelectTopic(topics[i%len(topics)])
			}
		}
	}()

	for ev, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			t.Fatalf("reading events: %v", err)
		}
		if ev.Type != "chatbox" {
			continue
		}
		if !strings.Contains(ev.Data, `id="chatbox"`) {
			t.Errorf("event data = %v, want chatbox fragment", ev.Data)
		}
		return
	}
	t.Fatal("stream ended without a chatbox event")
}

func (m *mockAdvisor) Advise(_ context.Context, topic models.Topic, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.topics = append(m.topics, topic)
	if m.err != nil {
		return "", m.err
	}
	if m.reply == "" {
		return fmt.Sprintf("%s reply", topic), nil
	}
	return m.reply, nil
}

func (m *mockAdvisor) calledTopics() []models.Topic {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Topic(nil), m.topics...)
}

func (m *mockNews) Articles(_ context.Context, source string) ([]models.Article, error) {
	m.gotSource = source
	if m.err != nil {
		return nil, m.err
	}
	return m.articles, nil
}
