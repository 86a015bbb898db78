// Package session persists finished advice runs as JSON documents in an archive.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/forecast"
	"github.com/newthinker/stockscan/internal/storage/archive"
)

const prefix = "sessions"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation attached to a session. The advice
// of the run is the first assistant message.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is one completed advice run.
type Session struct {
	ID         string             `json:"id"`
	Identifier string             `json:"identifier"`
	Symbol     string             `json:"symbol"`
	Title      string             `json:"title"`
	Context    *core.ScanContext  `json:"scan_context,omitempty"`
	Forecast   *forecast.Result   `json:"forecast,omitempty"`
	Summaries  map[string]*string `json:"summaries,omitempty"`
	Advice     string             `json:"advice"`
	Messages   []Message          `json:"messages"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Header is the listing view of a session.
type Header struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

// Title formats a session title such as "AAPL – 2024-03-01 14:05".
func Title(symbol string, at time.Time) string {
	return fmt.Sprintf("%s – %s", symbol, at.UTC().Format("2006-01-02 15:04"))
}

// Store saves and loads sessions.
type Store interface {
	Save(ctx context.Context, s *Session) (string, error)
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context, limit int) ([]Header, error)
	// AppendMessages adds turns to a stored session in order.
	AppendMessages(ctx context.Context, id string, msgs ...Message) error
}

// ArchiveStore keeps each session at sessions/<id>.json. Writes are
// serialised within one process only.
type ArchiveStore struct {
	archive archive.Storage
	now     func() time.Time
	mu      sync.Mutex
}

var _ Store = (*ArchiveStore)(nil)

// NewArchiveStore creates a session store on top of an archive backend.
func NewArchiveStore(a archive.Storage) *ArchiveStore {
	return &ArchiveStore{archive: a, now: time.Now}
}

// Save assigns an ID, creation time and title when missing and writes the session.
func (s *ArchiveStore) Save(ctx context.Context, sess *Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now().UTC()
	}
	if sess.Title == "" {
		name := sess.Symbol
		if name == "" {
			name = sess.Identifier
		}
		sess.Title = Title(name, sess.CreatedAt)
	}
	for i := range sess.Messages {
		if sess.Messages[i].CreatedAt.IsZero() {
			sess.Messages[i].CreatedAt = sess.CreatedAt
		}
	}
	if err := s.write(ctx, sess); err != nil {
		return "", err
	}
	return sess.ID, nil
}

// AppendMessages loads the session, appends msgs and writes it back.
// Messages without a timestamp get the current time.
func (s *ArchiveStore) AppendMessages(ctx context.Context, id string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	for _, m := range msgs {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		sess.Messages = append(sess.Messages, m)
	}
	return s.write(ctx, sess)
}

func (s *ArchiveStore) write(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return core.WrapError(core.ErrSessionStore, err)
	}
	if err := s.archive.Write(ctx, path(sess.ID), data); err != nil {
		return core.WrapError(core.ErrSessionStore, err)
	}
	return nil
}

// Get loads a session. Unknown or malformed IDs return core.ErrNotFound.
func (s *ArchiveStore) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.ErrNotFound
	}
	data, err := s.archive.Read(ctx, path(id))
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	if sess.Messages == nil {
		sess.Messages = []Message{}
	}
	return &sess, nil
}

// List returns up to limit sessions, newest first.
func (s *ArchiveStore) List(ctx context.Context, limit int) ([]Header, error) {
	paths, err := s.archive.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	headers := make([]Header, 0, len(paths))
	for _, p := range paths {
		id := strings.TrimSuffix(strings.TrimPrefix(p, prefix+"/"), ".json")
		sess, err := s.Get(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		headers = append(headers, Header{
			ID:         sess.ID,
			Identifier: sess.Identifier,
			Title:      sess.Title,
			CreatedAt:  sess.CreatedAt,
		})
	}

	sort.Slice(headers, func(i, j int) bool {
		return headers[i].CreatedAt.After(headers[j].CreatedAt)
	})
	if limit > 0 && len(headers) > limit {
		headers = headers[:limit]
	}
	return headers, nil
}

func path(id string) string {
	return prefix + "/" + id + ".json"
}
