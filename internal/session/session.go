// Package session holds the presentation-owned state of one running chat
// session: the modal in front of the timeline, the input buffer and the
// sidebar. The core receives a *State instead of reaching for globals.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/comigor/chatsim-go/internal/logger"
)

// Modal is the modal currently shown. At most one is open at a time.
type Modal string

const (
	ModalNone     Modal = "none"
	ModalUpload   Modal = "upload-open"
	ModalGenerate Modal = "generate-open"
)

// Trigger is a modal FSM trigger.
type Trigger string

const (
	TriggerOpenUpload   Trigger = "OpenUpload"
	TriggerOpenGenerate Trigger = "OpenGenerate"
	TriggerClose        Trigger = "Close"
)

// ChatSummary is an entry of the static sidebar list.
type ChatSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"last_message"`
	Timestamp   time.Time `json:"timestamp"`
}

// State is the session-scoped UI state.
type State struct {
	ID uuid.UUID

	mu          sync.Mutex
	input       string
	sidebarOpen bool
	modal       *stateless.StateMachine
	chats       []ChatSummary
	watchers    []func(from, to Modal)
}

// New creates a session with the sidebar open, no modal and an empty input.
func New(now time.Time) *State {
	s := &State{
		ID:          uuid.New(),
		sidebarOpen: true,
		modal:       newModalMachine(),
		chats:       seedChats(now),
	}
	return s
}

func newModalMachine() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(ModalNone)

	fsm.Configure(ModalNone).
		Permit(TriggerOpenUpload, ModalUpload).
		Permit(TriggerOpenGenerate, ModalGenerate).
		Ignore(TriggerClose)

	// Opening the other modal replaces the current one.
	fsm.Configure(ModalUpload).
		Ignore(TriggerOpenUpload).
		Permit(TriggerOpenGenerate, ModalGenerate).
		Permit(TriggerClose, ModalNone)

	fsm.Configure(ModalGenerate).
		Ignore(TriggerOpenGenerate).
		Permit(TriggerOpenUpload, ModalUpload).
		Permit(TriggerClose, ModalNone)

	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.L.Debug("modal transition", "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})
	return fsm
}

func seedChats(now time.Time) []ChatSummary {
	return []ChatSummary{
		{ID: "1", Title: "AI Development Tips", LastMessage: "Great insights on machine learning...", Timestamp: now.Add(-30 * time.Minute)},
		{ID: "2", Title: "React Best Practices", LastMessage: "Thanks for the component patterns...", Timestamp: now.Add(-2 * time.Hour)},
		{ID: "3", Title: "Design Systems", LastMessage: "The color palette looks amazing...", Timestamp: now.Add(-24 * time.Hour)},
		{ID: "4", Title: "Image Analysis Project", LastMessage: "The image shows interesting patterns...", Timestamp: now.Add(-48 * time.Hour)},
	}
}

func (s *State) fire(t Trigger) error {
	return s.fireIf(t, func(Modal) bool { return true })
}

// fireIf fires t when ok accepts the current modal. Watchers run after the
// lock is released, only for actual changes.
func (s *State) fireIf(t Trigger, ok func(Modal) bool) error {
	s.mu.Lock()
	from := s.modal.MustState().(Modal)
	if !ok(from) {
		s.mu.Unlock()
		return nil
	}
	if err := s.modal.Fire(t); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session: fire %s: %w", t, err)
	}
	to := s.modal.MustState().(Modal)
	watchers := append([]func(from, to Modal){}, s.watchers...)
	s.mu.Unlock()

	if from != to {
		for _, fn := range watchers {
			fn(from, to)
		}
	}
	return nil
}

// OnModalChange registers fn for every modal change.
func (s *State) OnModalChange(fn func(from, to Modal)) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

// OpenUploadModal shows the upload modal. It does not pause the timeline.
func (s *State) OpenUploadModal() error { return s.fire(TriggerOpenUpload) }

// OpenGenerateModal shows the image generation modal.
func (s *State) OpenGenerateModal() error { return s.fire(TriggerOpenGenerate) }

// CloseModal hides whichever modal is open. Closing with nothing open is a no-op.
func (s *State) CloseModal() error { return s.fire(TriggerClose) }

// CloseIf hides the modal only when m is the one shown.
func (s *State) CloseIf(m Modal) error {
	return s.fireIf(TriggerClose, func(cur Modal) bool { return cur == m })
}

// Modal returns the modal currently shown.
func (s *State) Modal() Modal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modal.MustState().(Modal)
}

// Input returns the current input buffer.
func (s *State) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SetInput replaces the input buffer.
func (s *State) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// ClearInput empties the input buffer.
func (s *State) ClearInput() { s.SetInput("") }

// SidebarOpen reports whether the sidebar is shown.
func (s *State) SidebarOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sidebarOpen
}

// ToggleSidebar flips the sidebar and returns its new visibility.
func (s *State) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarOpen = !s.sidebarOpen
	return s.sidebarOpen
}

// Chats returns the static sidebar chat list.
func (s *State) Chats() []ChatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatSummary, len(s.chats))
	copy(out, s.chats)
	return out
}
