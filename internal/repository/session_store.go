package repository

import (
	"context"
	"errors"

	"placement-service/internal/adaptive"
)

// ErrSessionNotFound is returned when no session exists for an id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists diagnostic sessions keyed by session id. The
// engine and service are storage-agnostic; any implementation that can
// round-trip a session works.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*adaptive.DiagnosticSession, error)
	Put(ctx context.Context, session *adaptive.DiagnosticSession) error
	Delete(ctx context.Context, sessionID string) error
}
