package session

import "time"

// Limits bundles the per-user throttle parameters.
type Limits struct {
	Cooldown     time.Duration // minimum interval between admitted /search commands
	Window       time.Duration // quota window length
	MaxPerWindow int           // theme submissions admitted per window
}

// DefaultLimits returns the stock throttles: one search per minute, at most
// three themes per minute.
func DefaultLimits() Limits {
	return Limits{
		Cooldown:     60 * time.Second,
		Window:       60 * time.Second,
		MaxPerWindow: 3,
	}
}

// AdmitSearch applies the cooldown gate to a /search command. On admission it
// returns a copy with LastSearchAt set to now. On rejection it returns the
// session unchanged plus the remaining wait, rounded to whole seconds and
// never below one second. Pure function, no I/O.
func (l Limits) AdmitSearch(now time.Time, s Session) (Session, time.Duration, bool) {
	if !s.LastSearchAt.IsZero() {
		elapsed := now.Sub(s.LastSearchAt)
		if elapsed < l.Cooldown {
			wait := (l.Cooldown - elapsed).Round(time.Second)
			if wait <= 0 {
				wait = time.Second
			}
			return s, wait, false
		}
	}
	s.LastSearchAt = now
	return s, 0, true
}

// AdmitTheme applies the quota gate to an accepted theme submission. The
// window resets before evaluation once its length has elapsed; admission
// charges one slot in the returned copy. Pure function, no I/O.
func (l Limits) AdmitTheme(now time.Time, s Session) (Session, bool) {
	if s.WindowStart.IsZero() || now.Sub(s.WindowStart) > l.Window {
		s.WindowStart = now
		s.WindowCount = 0
	}
	if s.WindowCount >= l.MaxPerWindow {
		return s, false
	}
	s.WindowCount++
	return s, true
}
