// Package conversation owns the message timeline of a session and the
// simulated latency of every assistant production.
//
// Each operation appends the user side synchronously and schedules the
// assistant side on a Scheduler. Scheduled callbacks are independent: two
// replies in flight resolve in timer order, which need not match the order
// they were submitted in. Nothing is queued, serialized or cancelled.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/comigor/chatsim-go/internal/config"
	"github.com/comigor/chatsim-go/internal/history"
	"github.com/comigor/chatsim-go/internal/imageflow"
	"github.com/comigor/chatsim-go/internal/logger"
	"github.com/comigor/chatsim-go/internal/schedule"
	"github.com/comigor/chatsim-go/internal/session"
	"github.com/comigor/chatsim-go/internal/synth"
	"github.com/comigor/chatsim-go/internal/timeline"
)

var ErrEmptyInput = errors.New("conversation: empty input")

const uploadCaption = "I've uploaded an image for analysis. Can you tell me what you see?"

func generatedCaption(prompt string) string {
	return fmt.Sprintf("I've generated an image based on your prompt: \"%s\"", prompt)
}

// EventKind tells listeners what changed.
type EventKind string

const (
	EventAppended  EventKind = "appended"
	EventComposing EventKind = "composing"
)

// Event is delivered to listeners after every state change.
type Event struct {
	Kind      EventKind
	Message   timeline.Message
	Composing bool
}

// Snapshot is everything a renderer needs.
type Snapshot struct {
	SessionID  string               `json:"session_id"`
	Messages   []timeline.Message   `json:"messages"`
	Composing  bool                 `json:"composing"`
	Modal      session.Modal        `json:"modal"`
	Generation imageflow.Generation `json:"generation"`
	Preview    string               `json:"preview,omitempty"`
	Fallback   string               `json:"fallback_image_url,omitempty"`
}

// Store is the conversation store of one session.
type Store struct {
	session   *session.State
	images    *imageflow.Controller
	responder synth.Responder
	sched     schedule.Scheduler
	sink      history.Sink
	timing    config.TimingConfig
	jitter    func(n int64) int64
	timeline  *timeline.Timeline

	// emit orders commits and their notifications.
	emit sync.Mutex

	mu        sync.Mutex
	composing bool
	nextID    int
	listeners map[int]func(Event)
}

// Option configures a Store.
type Option func(*Store)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s schedule.Scheduler) Option { return func(st *Store) { st.sched = s } }

// WithTiming sets the simulated latencies.
func WithTiming(t config.TimingConfig) Option { return func(st *Store) { st.timing = t } }

// WithSink mirrors every committed message into sink.
func WithSink(sink history.Sink) Option { return func(st *Store) { st.sink = sink } }

// WithJitter replaces the uniform draw in [0, n) used for text reply delays.
func WithJitter(f func(n int64) int64) Option { return func(st *Store) { st.jitter = f } }

// New creates a store for sess and seeds it with the welcome message.
func New(sess *session.State, images *imageflow.Controller, responder synth.Responder, opts ...Option) (*Store, error) {
	cfg := config.Default()
	s := &Store{
		session:   sess,
		images:    images,
		responder: responder,
		sched:     schedule.Real{},
		timing:    cfg.Timing,
		jitter:    rand.Int64N,
		timeline:  timeline.New(),
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	// Opening the generate modal mounts a fresh generator.
	sess.OnModalChange(func(from, to session.Modal) {
		if to == session.ModalGenerate {
			images.Remount()
		}
	})
	if _, err := s.append(context.Background(), timeline.Text(timeline.AuthorAssistant, synth.Welcome)); err != nil {
		return nil, err
	}
	return s, nil
}

// Session returns the UI state the store operates on.
func (s *Store) Session() *session.State { return s.session }

// Images returns the image workflow controller.
func (s *Store) Images() *imageflow.Controller { return s.images }

// Messages returns the timeline in insertion order.
func (s *Store) Messages() []timeline.Message { return s.timeline.Messages() }

// Composing reports whether an assistant turn is pending.
func (s *Store) Composing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composing
}

// Snapshot captures the renderable state.
func (s *Store) Snapshot() Snapshot {
	gen, preview := s.images.State()
	return Snapshot{
		SessionID:  s.session.ID.String(),
		Messages:   s.Messages(),
		Composing:  s.Composing(),
		Modal:      s.session.Modal(),
		Generation: gen,
		Preview:    preview,
		Fallback:   s.images.Placeholder().Fallback(),
	}
}

// Subscribe registers fn for every change. The returned func unsubscribes.
// Listeners are called from whichever goroutine made the change, one event
// at a time and in commit order. They must not call mutating Store methods.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(e Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

func (s *Store) append(ctx context.Context, d timeline.Draft) (timeline.Message, error) {
	s.emit.Lock()
	defer s.emit.Unlock()
	msg, err := s.timeline.Append(d, s.sched.Now())
	if err != nil {
		return timeline.Message{}, fmt.Errorf("conversation: append: %w", err)
	}
	if s.sink != nil {
		if err := s.sink.Save(ctx, s.session.ID, msg); err != nil {
			logger.L.Warn("history save failed", "error", err, "message_id", msg.ID)
		}
	}
	s.notify(Event{Kind: EventAppended, Message: msg, Composing: s.Composing()})
	return msg, nil
}

func (s *Store) setComposing(v bool) {
	s.emit.Lock()
	defer s.emit.Unlock()
	s.mu.Lock()
	s.composing = v
	s.mu.Unlock()
	s.notify(Event{Kind: EventComposing, Composing: v})
}

// replyDelay draws uniformly from [TextMinDelay, TextMaxDelay].
func (s *Store) replyDelay() time.Duration {
	lo, hi := s.timing.TextMinDelay, s.timing.TextMaxDelay
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.jitter(int64(hi-lo)+1))
}

// later schedules an assistant production. The callback outlives the
// caller's context, so only its values are kept.
func (s *Store) later(ctx context.Context, d time.Duration, what string, f func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	logger.L.Debug("scheduled", "what", what, "delay", d)
	s.sched.AfterFunc(d, func() {
		if err := f(ctx); err != nil {
			logger.L.Error("scheduled production failed", "what", what, "error", err)
		}
	})
}

// SubmitUserText appends text as a user message, clears the input buffer and
// schedules a synthesized reply. Whitespace-only text is rejected with
// ErrEmptyInput and changes nothing.
func (s *Store) SubmitUserText(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	logger.L.Info("user text", "session_id", s.session.ID, "len", len(text))

	if _, err := s.append(ctx, timeline.Text(timeline.AuthorUser, text)); err != nil {
		return err
	}
	s.session.ClearInput()
	s.setComposing(true)

	s.later(ctx, s.replyDelay(), "text reply", func(ctx context.Context) error {
		reply := s.responder.Reply(text)
		_, err := s.append(ctx, timeline.Text(timeline.AuthorAssistant, reply))
		s.setComposing(false)
		return err
	})
	return nil
}

// SubmitInput submits the session's input buffer.
func (s *Store) SubmitInput(ctx context.Context) error {
	return s.SubmitUserText(ctx, s.session.Input())
}

// AttachUploadedImage runs f through the upload subflow. An accepted image
// is appended as a user message, the upload modal (if shown) closes and an analysis
// reply follows after the upload delay. Non-images are rejected with
// imageflow.ErrUnsupportedFileType and change nothing.
func (s *Store) AttachUploadedImage(ctx context.Context, f imageflow.File) error {
	_, ref, err := s.images.Accept(f)
	if err != nil {
		return err
	}
	if _, err := s.append(ctx, timeline.UploadedImage(uploadCaption, ref)); err != nil {
		return err
	}
	if err := s.session.CloseIf(session.ModalUpload); err != nil {
		logger.L.Warn("close upload modal", "error", err)
	}
	s.setComposing(true)

	s.later(ctx, s.timing.UploadDelay, "image analysis", func(ctx context.Context) error {
		_, err := s.append(ctx, timeline.Text(timeline.AuthorAssistant, s.responder.AnalyzeImage()))
		s.setComposing(false)
		return err
	})
	return nil
}

// RequestGeneratedImage starts a generation for prompt. On completion a
// generated-image assistant message is appended and the generate modal
// closes if it is the one shown. The composing flag is left untouched on
// this path.
func (s *Store) RequestGeneratedImage(ctx context.Context, prompt string) error {
	ctx = context.WithoutCancel(ctx)
	return s.images.Generate(prompt, func(r imageflow.Result) {
		if _, err := s.append(ctx, timeline.GeneratedImage(generatedCaption(r.Prompt), r.URL, r.Prompt)); err != nil {
			logger.L.Error("append generated image", "error", err)
			return
		}
		if err := s.session.CloseIf(session.ModalGenerate); err != nil {
			logger.L.Warn("close generate modal", "error", err)
		}
	})
}
