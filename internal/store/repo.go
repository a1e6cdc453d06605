package store

import (
	"context"
	"errors"

	"github.com/oscarthedev15/domain-checker-tgbot/internal/session"
)

// ErrNotFound is returned by GetSession when the user has no record yet.
// Callers create a fresh session in that case. Any other error means the
// store is unavailable and must NOT be treated as "no record": doing so
// would reset the user's cooldown and quota.
var ErrNotFound = errors.New("session not found")

// Repo defines storage operations for user sessions.
type Repo interface {
	GetSession(ctx context.Context, userID int64) (*session.Session, error)
	PutSession(ctx context.Context, s *session.Session) error
	Close() error
}
