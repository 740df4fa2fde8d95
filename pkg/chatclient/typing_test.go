package chatclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle(t *testing.T) {
	th := NewThrottle(time.Second)

	assert.True(t, th.Allow(t0))
	assert.False(t, th.Allow(t0.Add(300*time.Millisecond)))
	assert.False(t, th.Allow(t0.Add(999*time.Millisecond)))
	assert.True(t, th.Allow(t0.Add(time.Second)))

	th.Reset()
	assert.True(t, th.Allow(t0.Add(time.Second+time.Millisecond)))
}

func TestThrottleDisabled(t *testing.T) {
	th := NewThrottle(0)
	for i := 0; i < 3; i++ {
		assert.True(t, th.Allow(t0))
	}
}

func TestPresence(t *testing.T) {
	p := NewPresence(3 * time.Second)
	assert.False(t, p.Active(t0))

	deadline := p.Signal(t0)
	assert.Equal(t, t0.Add(3*time.Second), deadline)
	assert.True(t, p.Active(t0.Add(2*time.Second)))
	assert.False(t, p.Active(t0.Add(3*time.Second)))

	// every signal extends the flag
	p.Signal(t0.Add(2 * time.Second))
	assert.True(t, p.Active(t0.Add(4*time.Second)))

	p.Clear()
	assert.False(t, p.Active(t0.Add(4*time.Second)))
}

func TestPresenceDefaultTimeout(t *testing.T) {
	p := NewPresence(0)
	assert.Equal(t, t0.Add(DefaultTypingTimeout), p.Signal(t0))
}
