// Package session keeps per-session conversation history: an ordered,
// capped sequence of turns used to contextualize follow-up queries and to
// export a conversation. Sessions are fully isolated from each other.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qualbot/qualbot/internal/category"
	"github.com/qualbot/qualbot/internal/db"
)

// Source tags how an answer was produced.
type Source string

const (
	SourceGenerated       Source = "generated"
	SourceFallbackMatched Source = "fallback-matched"
	SourceFallbackDefault Source = "fallback-default"
)

// Turn is one exchanged query/answer pair.
type Turn struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Seq       int               `json:"seq"`
	Category  category.Category `json:"category"`
	Query     string            `json:"query"`
	Answer    string            `json:"answer"`
	Source    Source            `json:"source"`
	CreatedAt time.Time         `json:"created_at"`
}

// Manager persists conversation turns. Appends for a single session are
// serialized through a per-session lock so overlapping requests cannot
// lose updates; different sessions never contend.
type Manager struct {
	db       *db.DB
	maxTurns int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a manager with the given per-session turn cap.
func NewManager(database *db.DB, maxTurns int) *Manager {
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &Manager{
		db:       database,
		maxTurns: maxTurns,
		locks:    map[string]*sync.Mutex{},
	}
}

// sessionLock returns the mutex serializing writes for one session.
func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	return l
}

// Append records a new turn at the end of the session, creating the session
// on first use and evicting the oldest turns once the cap is exceeded.
func (m *Manager) Append(ctx context.Context, sessionID string, cat category.Category, query, answer string, source Source) (*Turn, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := m.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id) VALUES (?)`, sessionID); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	var maxSeq int
	err := m.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM turns WHERE session_id = ?`, sessionID,
	).Scan(&maxSeq)
	if err != nil {
		return nil, fmt.Errorf("reading last turn: %w", err)
	}

	turn := &Turn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Seq:       maxSeq + 1,
		Category:  cat,
		Query:     query,
		Answer:    answer,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}

	_, err = m.db.ExecContext(ctx,
		`INSERT INTO turns (id, session_id, seq, category, query, answer, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, turn.Seq, string(turn.Category), turn.Query, turn.Answer, string(turn.Source), turn.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting turn: %w", err)
	}

	// FIFO eviction: drop everything below the cap window.
	_, err = m.db.ExecContext(ctx,
		`DELETE FROM turns WHERE session_id = ? AND seq <= ?`,
		sessionID, turn.Seq-m.maxTurns,
	)
	if err != nil {
		return nil, fmt.Errorf("evicting old turns: %w", err)
	}

	return turn, nil
}

// Recent returns the last n turns of the session in chronological order.
func (m *Manager) Recent(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, session_id, seq, category, query, answer, source, created_at
		 FROM (
		     SELECT * FROM turns WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`,
		sessionID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// Export returns the session's full remaining history in order.
func (m *Manager) Export(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, session_id, seq, category, query, answer, source, created_at
		 FROM turns WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying session history: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// Destroy removes a session and its turns.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := m.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting turns: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	m.mu.Lock()
	delete(m.locks, sessionID)
	m.mu.Unlock()
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTurns(rows rowScanner) ([]Turn, error) {
	var turns []Turn
	for rows.Next() {
		var t Turn
		var cat, source string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Seq, &cat, &t.Query, &t.Answer, &source, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Category = category.Category(cat)
		t.Source = Source(source)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}
