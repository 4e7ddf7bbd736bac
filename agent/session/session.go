package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrNilSession     = errors.New("session is nil")
	ErrInvalidSession = errors.New("session id is empty")
)

const Greeting = "Hi there! I'm Plantify 🌿, your plant shopping assistant. 🌸 How can I help you today?"

// Session is the conversation history owned by the HTTP front-end.
type Session struct {
	ID        string           `json:"session_id"`
	History   []contractx.Turn `json:"history"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// New starts a session with the greeting turn. An empty id gets a fresh uuid.
func New(id string, now time.Time) *Session {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	now = now.UTC()
	return &Session{
		ID:        id,
		History:   []contractx.Turn{contractx.AssistantTurn(Greeting, nil)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSession
	}
	for i, t := range s.History {
		switch t.Role {
		case contractx.RoleUser, contractx.RoleAssistant, contractx.RoleSystem:
		default:
			return fmt.Errorf("turn %d has invalid role %q", i, t.Role)
		}
	}
	return nil
}

// Append adds turns and bumps UpdatedAt.
func (s *Session) Append(now time.Time, turns ...contractx.Turn) {
	s.History = append(s.History, turns...)
	s.UpdatedAt = now.UTC()
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.History = append([]contractx.Turn(nil), s.History...)
	return &out
}

// Store is the persistence contract for sessions.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID string) error
}

// prepare validates s and normalises its timestamps before a write.
func prepare(s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	} else {
		s.UpdatedAt = s.UpdatedAt.UTC()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.UpdatedAt
	}
	return nil
}
