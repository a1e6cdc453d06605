package session

import "time"

// EventKind tags an inbound message after command parsing; the router maps
// Telegram updates to exactly one of these.
type EventKind int

const (
	EventStart EventKind = iota
	EventSearch
	EventText
	EventUnknownCommand
)

// Event is one inbound message reduced to what the state machine needs.
type Event struct {
	Kind EventKind
	Text string // trimmed message text; the theme when Kind is EventText
}

// Action tells the dispatcher what to do after a transition.
type Action int

const (
	// ActionWelcome replies with the greeting.
	ActionWelcome Action = iota
	// ActionAskTheme prompts the user to send a theme.
	ActionAskTheme
	// ActionCooldownWait tells the user how long to wait before /search works.
	ActionCooldownWait
	// ActionRunSearch consumes the text as a theme and runs the workflow.
	ActionRunSearch
	// ActionQuotaExceeded rejects a theme submission; the user stays awaiting.
	ActionQuotaExceeded
	// ActionRemindSearch nudges an idle user toward /search.
	ActionRemindSearch
	// ActionHelp answers an unknown command.
	ActionHelp
)

// Outcome is the result of applying one event to a session.
type Outcome struct {
	Next   Session
	Action Action
	Wait   time.Duration // set for ActionCooldownWait
	Theme  string        // set for ActionRunSearch
}

// Apply computes the transition for (session, event). It is total: every
// event kind yields a defined outcome in every state, so no message can
// leave a session stuck. Apply never does I/O; persisting Next and sending
// the reply implied by Action is the caller's job.
func Apply(s Session, ev Event, now time.Time, lim Limits) Outcome {
	switch ev.Kind {
	case EventStart:
		// Re-entrant from Idle and cancels a pending theme from
		// AwaitingTheme. Counters are left alone so /start cannot be
		// used to dodge the cooldown or quota.
		s.State = StateIdle
		return Outcome{Next: s, Action: ActionWelcome}

	case EventSearch:
		next, wait, ok := lim.AdmitSearch(now, s)
		if !ok {
			return Outcome{Next: s, Action: ActionCooldownWait, Wait: wait}
		}
		next.State = StateAwaitingTheme
		return Outcome{Next: next, Action: ActionAskTheme}

	case EventText:
		if s.State != StateAwaitingTheme {
			return Outcome{Next: s, Action: ActionRemindSearch}
		}
		next, ok := lim.AdmitTheme(now, s)
		if !ok {
			// Stay awaiting; the text is not consumed as a theme.
			return Outcome{Next: s, Action: ActionQuotaExceeded}
		}
		next.State = StateIdle
		return Outcome{Next: next, Action: ActionRunSearch, Theme: ev.Text}

	case EventUnknownCommand:
		return Outcome{Next: s, Action: ActionHelp}

	default:
		// Undefined event kinds cannot be produced by the router; if one
		// shows up anyway, fall back to a known-good idle state.
		s.State = StateIdle
		return Outcome{Next: s, Action: ActionHelp}
	}
}
