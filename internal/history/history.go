// Package history mirrors conversation timelines into a transcript sink.
// The default sink is SQLite on an in-memory database, so transcripts live
// only as long as the process. If the database cannot be opened or written,
// the sink keeps serving from its in-memory copy.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"

	"github.com/comigor/chatsim-go/internal/config"
	"github.com/comigor/chatsim-go/internal/logger"
	"github.com/comigor/chatsim-go/internal/timeline"
)

// Sink records committed messages per session.
type Sink interface {
	Save(ctx context.Context, sessionID uuid.UUID, msg timeline.Message) error
	List(ctx context.Context, sessionID uuid.UUID) ([]timeline.Message, error)
	Close() error
}

// Open builds the sink selected by cfg.
func Open(cfg config.HistoryConfig) Sink {
	if cfg.Driver == config.HistoryDriverMemory {
		return NewMemory()
	}
	return OpenSQLite(cfg.DSN)
}

// Memory is an in-process sink.
type Memory struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]timeline.Message
}

func NewMemory() *Memory {
	return &Memory{messages: make(map[uuid.UUID][]timeline.Message)}
}

func (m *Memory) Save(_ context.Context, sessionID uuid.UUID, msg timeline.Message) error {
	m.mu.Lock()
	m.messages[sessionID] = append(m.messages[sessionID], msg)
	m.mu.Unlock()
	return nil
}

// List returns all messages of a session in chronological order.
func (m *Memory) List(_ context.Context, sessionID uuid.UUID) ([]timeline.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]timeline.Message, len(m.messages[sessionID]))
	copy(out, m.messages[sessionID])
	return out, nil
}

func (m *Memory) Close() error { return nil }

// SQLite persists messages with the pure-Go sqlite driver and always keeps
// an in-memory copy as fallback.
type SQLite struct {
	db       *sql.DB
	initErr  error
	degraded atomic.Bool
	fallback *Memory
}

// OpenSQLite opens dsn and creates the messages table if it doesn't exist.
// Failures are logged, not returned: the sink degrades to memory.
func OpenSQLite(dsn string) *SQLite {
	s := &SQLite{fallback: NewMemory()}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return s
	}
	// One connection keeps a shared in-memory database alive and consistent.
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS messages (
        id TEXT NOT NULL,
        session_id TEXT NOT NULL,
        seq INTEGER NOT NULL,
        author TEXT NOT NULL,
        kind TEXT NOT NULL,
        body TEXT NOT NULL,
        image_ref TEXT NOT NULL DEFAULT '',
        prompt TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL,
        PRIMARY KEY (session_id, id)
    );`); err != nil {
		s.initErr = err
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		_ = db.Close()
		return s
	}
	s.db = db
	logger.L.Info("sqlite history DB initialized")
	return s
}

// Healthy reports whether writes reach SQLite. One failed write degrades the
// sink for good, from then on reads come from the in-memory copy.
func (s *SQLite) Healthy() bool { return s.initErr == nil && s.db != nil && !s.degraded.Load() }

func (s *SQLite) Save(ctx context.Context, sessionID uuid.UUID, msg timeline.Message) error {
	if s.Healthy() {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO messages (id, session_id, seq, author, kind, body, image_ref, prompt, created_at) VALUES (?,?,?,?,?,?,?,?,?);`,
			msg.ID.String(), sessionID.String(), msg.Seq, string(msg.Author), string(msg.Kind),
			msg.Body, msg.ImageRef, msg.Prompt, msg.CreatedAt.UnixNano())
		if err != nil {
			s.degraded.Store(true)
			logger.L.Error("failed to store message in sqlite; falling back to memory", "error", err)
		}
	}
	return s.fallback.Save(ctx, sessionID, msg)
}

// List returns all messages of a session in chronological order.
func (s *SQLite) List(ctx context.Context, sessionID uuid.UUID) ([]timeline.Message, error) {
	if !s.Healthy() {
		return s.fallback.List(ctx, sessionID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, author, kind, body, image_ref, prompt, created_at FROM messages WHERE session_id = ? ORDER BY seq ASC;`,
		sessionID.String())
	if err != nil {
		logger.L.Warn("sqlite list failed; reading in-memory history", "error", err)
		return s.fallback.List(ctx, sessionID)
	}
	defer rows.Close()

	var out []timeline.Message
	for rows.Next() {
		var (
			m         timeline.Message
			id        string
			author    string
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&id, &m.Seq, &author, &kind, &m.Body, &m.ImageRef, &m.Prompt, &createdAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("history: parse id %q: %w", id, err)
		}
		m.Author = timeline.Author(author)
		m.Kind = timeline.Kind(kind)
		m.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
