package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Now()
	newBreaker := func() *CircuitBreaker {
		cb := NewCircuitBreaker(5, 300*time.Second)
		cb.now = func() time.Time { return now }
		return cb
	}

	t.Run("allows until threshold", func(t *testing.T) {
		cb := newBreaker()
		for i := 0; i < 4; i++ {
			cb.RecordFailure("waqi")
			assert.True(t, cb.Allow("waqi"), "failure %d", i+1)
		}
		cb.RecordFailure("waqi")
		assert.False(t, cb.Allow("waqi"), "fifth failure opens the breaker")
		assert.Equal(t, 5, cb.Failures("waqi"))
	})

	t.Run("success resets the counter", func(t *testing.T) {
		cb := newBreaker()
		for i := 0; i < 4; i++ {
			cb.RecordFailure("waqi")
		}
		cb.RecordSuccess("waqi")
		assert.Equal(t, 0, cb.Failures("waqi"))
		cb.RecordFailure("waqi")
		assert.True(t, cb.Allow("waqi"))
	})

	t.Run("open breaker admits a probe after the cooldown", func(t *testing.T) {
		cb := newBreaker()
		for i := 0; i < 5; i++ {
			cb.RecordFailure("waqi")
		}
		assert.False(t, cb.Allow("waqi"))

		cb.now = func() time.Time { return now.Add(299 * time.Second) }
		assert.False(t, cb.Allow("waqi"), "still inside the cooldown")

		cb.now = func() time.Time { return now.Add(300 * time.Second) }
		assert.True(t, cb.Allow("waqi"), "elapsed == timeout admits the probe")
	})

	t.Run("failed probe re-opens", func(t *testing.T) {
		cb := newBreaker()
		for i := 0; i < 5; i++ {
			cb.RecordFailure("waqi")
		}
		cb.now = func() time.Time { return now.Add(301 * time.Second) }
		assert.True(t, cb.Allow("waqi"))
		cb.RecordFailure("waqi")
		assert.False(t, cb.Allow("waqi"))
	})

	t.Run("tools are independent", func(t *testing.T) {
		cb := newBreaker()
		for i := 0; i < 5; i++ {
			cb.RecordFailure("waqi")
		}
		assert.False(t, cb.Allow("waqi"))
		assert.True(t, cb.Allow("airqo"))
	})
}
