package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MegaGrindStone/founder-web-ui/internal/models"
	"github.com/google/uuid"
)

// Advisor forwards text submitted under a topic to the advisory collaborator and returns its raw reply.
type Advisor interface {
	Advise(ctx context.Context, topic models.Topic, idea string) (string, error)
}

// EventKind tells what changed in a session.
type EventKind int

const (
	// EventMessage is emitted after a message was appended to a topic log.
	EventMessage EventKind = iota
	// EventStatus is emitted when a request starts; its completion is reported by the EventMessage of the reply.
	EventStatus
	// EventTopic is emitted when the active topic changed.
	EventTopic
)

// Event describes one state change of a session. Listeners re-read the session with Snapshot to render.
type Event struct {
	SessionID string
	Kind      EventKind
	Topic     models.Topic
	Message   models.Message
}

// Options configures a Session.
type Options struct {
	// Advisor is required.
	Advisor Advisor
	// TipDelay is the delay of the scripted ideation tip. Zero means DefaultTipDelay, a negative value
	// disables the tip.
	TipDelay time.Duration
	// Listener, when set, receives every Event. It is called without the session lock held, from the
	// goroutine that caused the change.
	Listener func(Event)
	Logger   *slog.Logger
}

// State is a copy of the session state, safe to read without synchronization.
type State struct {
	ActiveTopic     models.Topic
	Logs            map[models.Topic][]models.Message
	PendingInput    string
	RequestInFlight bool
	StatusText      string
}

// Session is the in-memory conversation state of one assistant view: a message log per topic, the
// active topic, the draft input and the lifecycle of the single request that may be in flight.
//
// All methods are safe for concurrent use.
type Session struct {
	id       string
	advisor  Advisor
	listener func(Event)
	logger   *slog.Logger
	tipDelay time.Duration

	mu           sync.Mutex
	active       models.Topic
	logs         map[models.Topic][]models.Message
	pendingInput string
	inFlight     bool
	status       string
	closed       bool
	attached     int
	lastActivity time.Time
	tip          *time.Timer
	tipGen       int

	exchanges sync.WaitGroup
}

const (
	// DefaultTipDelay is the delay between activating an untouched ideation log and the scripted tip.
	DefaultTipDelay = 2 * time.Second

	// TipText is the scripted tip appended to the ideation log.
	TipText = "Pro Tip: Start with your main value proposition. Example: 'A meal-planning app that syncs " +
		"with smart kitchen appliances'"
	// FallbackReply replaces the reply of any failed request.
	FallbackReply = "⚠️ Error processing request. Please try again."

	errLoggerKey = "err"
)

// New creates a session seeded with one greeting per topic. The ideation topic is active, which counts as
// its first activation and schedules the tip.
func New(id string, opts Options) (*Session, error) {
	if opts.Advisor == nil {
		return nil, errors.New("advisor is required")
	}
	if id == "" {
		id = uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tipDelay := opts.TipDelay
	if tipDelay == 0 {
		tipDelay = DefaultTipDelay
	}

	s := &Session{
		id:           id,
		advisor:      opts.Advisor,
		listener:     opts.Listener,
		logger:       logger.With(slog.String("module", "session"), slog.String("sessionID", id)),
		tipDelay:     tipDelay,
		active:       models.TopicIdeation,
		logs:         make(map[models.Topic][]models.Message, len(models.Topics)),
		lastActivity: time.Now(),
	}
	for _, t := range models.Topics {
		s.logs[t] = []models.Message{newMessage(models.RoleAssistant, t.Greeting())}
	}

	s.mu.Lock()
	s.scheduleTipLocked()
	s.mu.Unlock()

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SelectTopic makes t the active topic. The draft input is kept. Leaving the ideation topic cancels a
// pending tip; activating it while its log holds only the greeting schedules one.
func (s *Session) SelectTopic(t models.Topic) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownTopic, t)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	changed := s.active != t
	s.active = t
	s.lastActivity = time.Now()
	if t == models.TopicIdeation {
		s.scheduleTipLocked()
	} else {
		s.cancelTipLocked()
	}
	s.mu.Unlock()

	if changed {
		s.emit(Event{Kind: EventTopic, Topic: t})
	}
	return nil
}

// SetInput stores the draft input of the view.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingInput = text
	s.lastActivity = time.Now()
}

// Submit appends text as a user message to the active topic and sends it to the advisor in the
// background. The reply, or FallbackReply if the request fails, is appended to the topic that was active
// at submission time, even if the user switched topics meanwhile.
//
// Submit is a silent no-op, reporting false, if text is blank, if another request is in flight or if
// the session is closed.
func (s *Session) Submit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	if s.closed || s.inFlight {
		s.mu.Unlock()
		return false
	}
	topic := s.active
	msg := s.appendLocked(topic, models.RoleUser, text)
	s.inFlight = true
	s.status = topic.StatusLabel()
	s.pendingInput = ""
	s.exchanges.Add(1)
	s.mu.Unlock()

	s.emit(Event{Kind: EventMessage, Topic: topic, Message: msg})
	s.emit(Event{Kind: EventStatus, Topic: topic})

	go s.exchange(topic, text)

	return true
}

// SubmitExample submits the prompt of the active topic's example card at index.
func (s *Session) SubmitExample(index int) (bool, error) {
	s.mu.Lock()
	cards := models.ExamplesFor(s.active)
	s.mu.Unlock()

	if index < 0 || index >= len(cards) {
		return false, fmt.Errorf("example %d does not exist", index)
	}
	return s.Submit(cards[index].Prompt()), nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := make(map[models.Topic][]models.Message, len(s.logs))
	for t, l := range s.logs {
		logs[t] = append([]models.Message(nil), l...)
	}
	return State{
		ActiveTopic:     s.active,
		Logs:            logs,
		PendingInput:    s.pendingInput,
		RequestInFlight: s.inFlight,
		StatusText:      s.status,
	}
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Attach records that a view is listening to the session. Attached sessions are never evicted as idle.
// The returned function detaches.
func (s *Session) Attach() (detach func()) {
	s.mu.Lock()
	s.attached++
	s.lastActivity = time.Now()
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.attached--
			s.lastActivity = time.Now()
			s.mu.Unlock()
		})
	}
}

// Wait blocks until every submitted request has completed.
func (s *Session) Wait() {
	s.exchanges.Wait()
}

// Close tears the session down: the pending tip is cancelled and replies arriving later are dropped.
// Close does not interrupt a request in flight. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancelTipLocked()
	s.logger.Debug("Session closed")
}

func (s *Session) idle(now time.Time, idle time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight || s.attached > 0 {
		return false
	}
	return now.Sub(s.lastActivity) >= idle
}

func (s *Session) exchange(topic models.Topic, text string) {
	defer s.exchanges.Done()

	// The request is never cancelled; the advisor's own client timeout bounds it.
	reply, err := s.advise(context.Background(), topic, text)

	content := FallbackReply
	if err != nil {
		s.logger.Error("Advisor request failed",
			slog.String("topic", string(topic)),
			slog.String(errLoggerKey, err.Error()))
	} else {
		content = Normalize(reply)
	}

	s.mu.Lock()
	s.inFlight = false
	s.status = ""
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("Dropping reply for closed session", slog.String("topic", string(topic)))
		return
	}
	msg := s.appendLocked(topic, models.RoleAssistant, content)
	s.mu.Unlock()

	s.emit(Event{Kind: EventMessage, Topic: topic, Message: msg})
}

func (s *Session) advise(ctx context.Context, topic models.Topic, text string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("advisor panicked: %v", r)
		}
	}()
	return s.advisor.Advise(ctx, topic, text)
}

func (s *Session) appendLocked(t models.Topic, role models.Role, text string) models.Message {
	msg := newMessage(role, text)
	s.logs[t] = append(s.logs[t], msg)
	s.lastActivity = msg.Timestamp
	return msg
}

func (s *Session) scheduleTipLocked() {
	if s.closed || s.tipDelay < 0 || s.tip != nil || len(s.logs[models.TopicIdeation]) != 1 {
		return
	}
	s.tipGen++
	gen := s.tipGen
	s.tip = time.AfterFunc(s.tipDelay, func() { s.fireTip(gen) })
}

func (s *Session) cancelTipLocked() {
	if s.tip == nil {
		return
	}
	s.tip.Stop()
	s.tip = nil
	s.tipGen++
}

func (s *Session) fireTip(gen int) {
	s.mu.Lock()
	if gen != s.tipGen {
		s.mu.Unlock()
		return
	}
	s.tip = nil
	if s.closed || s.active != models.TopicIdeation || len(s.logs[models.TopicIdeation]) != 1 {
		s.mu.Unlock()
		return
	}
	msg := s.appendLocked(models.TopicIdeation, models.RoleAssistant, TipText)
	s.mu.Unlock()

	s.emit(Event{Kind: EventMessage, Topic: models.TopicIdeation, Message: msg})
}

func (s *Session) emit(e Event) {
	if s.listener == nil {
		return
	}
	e.SessionID = s.id
	s.listener(e)
}

func newMessage(role models.Role, text string) models.Message {
	return models.Message{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}
