package session

import "time"

// State is the conversational state of one user.
type State string

const (
	// StateIdle means the next free-text message is not interpreted as a theme.
	StateIdle State = "idle"
	// StateAwaitingTheme means the user ran /search and the next free-text
	// message is consumed as a theme submission.
	StateAwaitingTheme State = "awaiting_theme"
)

// Session holds one user's conversational state and rate-limit counters.
// It is persisted per update and reloaded on every inbound message, so the
// struct is plain data; all transitions go through Apply.
type Session struct {
	UserID       int64
	State        State
	LastSearchAt time.Time // zero if the user never ran /search
	WindowStart  time.Time // start of the current quota window
	WindowCount  int       // theme submissions accepted within the window
	CreatedAt    time.Time
}

// New returns a fresh Idle session for a first-contact user.
func New(userID int64, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		State:     StateIdle,
		CreatedAt: now.UTC(),
	}
}
