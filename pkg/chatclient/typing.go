package chatclient

import "time"

// Typing defaults
const (
	DefaultTypingThrottle = time.Second
	DefaultTypingTimeout  = 3 * time.Second
)

// typingFrame is the only frame a client sends on the push channel
type typingFrame struct {
	Type string `json:"type"`
	To   string `json:"to"`
}

// Throttle limits outgoing typing signals to one per interval
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a Throttle. interval <= 0 lets every signal through.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether a signal may be sent at now and records it if so
func (t *Throttle) Allow(now time.Time) bool {
	if t.interval > 0 && !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// Reset forgets the last signal (e.g. after switching peers)
func (t *Throttle) Reset() {
	t.last = time.Time{}
}

// Presence is the receiver side "peer is typing" flag. It clears itself
// timeout after the last signal.
type Presence struct {
	timeout  time.Duration
	deadline time.Time
}

// NewPresence creates a Presence with the given auto-clear timeout
func NewPresence(timeout time.Duration) *Presence {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &Presence{timeout: timeout}
}

// Signal records a typing signal received at now and returns the new deadline
func (p *Presence) Signal(now time.Time) time.Time {
	p.deadline = now.Add(p.timeout)
	return p.deadline
}

// Active reports whether the peer counts as typing at now
func (p *Presence) Active(now time.Time) bool {
	return !p.deadline.IsZero() && now.Before(p.deadline)
}

// Clear drops the flag immediately
func (p *Presence) Clear() {
	p.deadline = time.Time{}
}
