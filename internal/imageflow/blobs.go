package imageflow

import (
	"sync"

	"github.com/google/uuid"
)

// Blob is an uploaded file held for the lifetime of the session.
type Blob struct {
	ID       uuid.UUID
	Name     string
	MIMEType string
	Data     []byte
}

// Blobs is a session-scoped registry of uploaded files, the local reference
// that lets an uploaded image be displayed inline. Nothing is persisted.
type Blobs struct {
	prefix string

	mu    sync.RWMutex
	blobs map[uuid.UUID]Blob
}

// NewBlobs creates an empty registry whose references start with prefix.
func NewBlobs(prefix string) *Blobs {
	return &Blobs{prefix: prefix, blobs: make(map[uuid.UUID]Blob)}
}

// Put stores b under a fresh ID and returns its reference.
func (r *Blobs) Put(b Blob) (Blob, string) {
	b.ID = uuid.New()
	r.mu.Lock()
	r.blobs[b.ID] = b
	r.mu.Unlock()
	return b, r.Ref(b.ID)
}

// Ref renders the reference for id.
func (r *Blobs) Ref(id uuid.UUID) string { return r.prefix + id.String() }

// Get looks a blob up by ID.
func (r *Blobs) Get(id uuid.UUID) (Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[id]
	return b, ok
}

// Len returns the number of stored blobs.
func (r *Blobs) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
