// Package timeline holds the append-only, chronologically ordered message
// sequence of a conversation.
package timeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownKind = errors.New("timeline: unknown message kind")

// Timeline is an append-only sequence of messages. Insertion order is the
// only ordering; entries are never edited, removed or reordered.
type Timeline struct {
	mu       sync.RWMutex
	messages []Message
	seq      uint64
	newID    func() (uuid.UUID, error)
}

// New returns an empty timeline. Message IDs are UUIDv7, which sort by creation.
func New() *Timeline {
	return &Timeline{newID: uuid.NewV7}
}

// Append commits d at time now and returns the stored message.
func (t *Timeline) Append(d Draft, now time.Time) (Message, error) {
	switch d.Kind {
	case KindText, KindUploadedImage, KindGeneratedImage:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	// Drawn under the lock so ID order matches Seq order.
	id, err := t.newID()
	if err != nil {
		return Message{}, fmt.Errorf("timeline: generate id: %w", err)
	}
	t.seq++
	m := Message{
		ID:        id,
		Seq:       t.seq,
		Body:      d.Body,
		Author:    d.Author,
		CreatedAt: now,
		Kind:      d.Kind,
		ImageRef:  d.ImageRef,
	}
	if d.Kind == KindGeneratedImage {
		m.Prompt = d.Prompt
	}
	t.messages = append(t.messages, m)
	return m, nil
}

// Messages returns a copy of the timeline in insertion order.
func (t *Timeline) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of committed messages.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message, if any.
func (t *Timeline) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
