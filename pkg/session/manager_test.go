package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsift/airsift/pkg/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(config.SessionConfig{
		IdleTTL:      time.Hour,
		MaxSessions:  50,
		MaxDocuments: 3,
		LoopWindow:   8,
	})
	t.Cleanup(m.Close)
	return m
}

func TestManagerSessions(t *testing.T) {
	m := newTestManager(t)

	t.Run("get or create", func(t *testing.T) {
		s := m.GetOrCreate("s1")
		assert.Equal(t, "s1", s.ID)
		assert.Zero(t, s.NumTurns())
		assert.Equal(t, 1, m.Count())

		again := m.GetOrCreate("s1")
		assert.Equal(t, s.CreatedAt, again.CreatedAt)
		assert.Equal(t, 1, m.Count())
	})

	t.Run("get of unknown session fails", func(t *testing.T) {
		_, err := m.Get("missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("append and read turns", func(t *testing.T) {
		m.AppendTurn("s1", "air quality in Kampala?", "PM2.5 is 61 µg/m³.", 42)
		s, err := m.Get("s1")
		require.NoError(t, err)
		require.Equal(t, 1, s.NumTurns())
		assert.Equal(t, "air quality in Kampala?", s.Turns[0].User)
		assert.Equal(t, 42, s.Turns[0].Tokens)
	})

	t.Run("clones do not alias manager state", func(t *testing.T) {
		s, err := m.Get("s1")
		require.NoError(t, err)
		s.Turns[0].User = "mutated"
		s.PersonalInfo["name"] = "mutated"

		fresh, err := m.Get("s1")
		require.NoError(t, err)
		assert.Equal(t, "air quality in Kampala?", fresh.Turns[0].User)
		assert.Empty(t, fresh.PersonalInfo["name"])
	})

	t.Run("personal info round trip", func(t *testing.T) {
		m.SetPersonalInfo("s1", "name", "Alex")
		m.SetPersonalInfo("s1", "location", "Kampala")
		assert.Equal(t, "Alex", m.GetPersonalInfo("s1", "name"))
		assert.Equal(t, "Kampala", m.GetPersonalInfo("s1", "location"))
		assert.Empty(t, m.GetPersonalInfo("s1", "age"))
		assert.Empty(t, m.GetPersonalInfo("missing", "name"))
	})

	t.Run("purge removes the session", func(t *testing.T) {
		m.GetOrCreate("gone")
		require.NoError(t, m.Purge("gone"))
		_, err := m.Get("gone")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.ErrorIs(t, m.Purge("gone"), ErrSessionNotFound)
	})
}

func TestManagerDocuments(t *testing.T) {
	m := newTestManager(t)

	for i := 1; i <= 4; i++ {
		m.AddDocument("s1", Document{
			Name:    fmt.Sprintf("doc%d.txt", i),
			Content: "content",
		})
	}

	docs := m.GetDocuments("s1")
	require.Len(t, docs, 3, "cap evicts the oldest document")
	assert.Equal(t, "doc2.txt", docs[0].Name)
	assert.Equal(t, "doc4.txt", docs[2].Name)

	assert.Nil(t, m.GetDocuments("missing"))
}

func TestManagerLRUEviction(t *testing.T) {
	m := NewManager(config.SessionConfig{MaxSessions: 3, IdleTTL: time.Hour})
	defer m.Close()

	base := time.Now()
	clock := base
	m.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		clock = base.Add(time.Duration(i) * time.Second)
		m.GetOrCreate(fmt.Sprintf("s%d", i))
	}
	// Touch s0 so s1 becomes the least recently active.
	clock = base.Add(10 * time.Second)
	m.GetOrCreate("s0")

	clock = base.Add(11 * time.Second)
	m.GetOrCreate("s3")

	assert.Equal(t, 3, m.Count())
	_, err := m.Get("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get("s0")
	assert.NoError(t, err)
}

func TestManagerIdleSweep(t *testing.T) {
	m := NewManager(config.SessionConfig{IdleTTL: time.Hour, MaxSessions: 50})
	defer m.Close()

	base := time.Now()
	clock := base
	m.now = func() time.Time { return clock }

	m.GetOrCreate("stale")
	clock = base.Add(30 * time.Minute)
	m.GetOrCreate("fresh")

	clock = base.Add(61 * time.Minute)
	m.sweepIdle()

	_, err := m.Get("stale")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get("fresh")
	assert.NoError(t, err)
}

func TestLockTurnSerializes(t *testing.T) {
	m := newTestManager(t)

	unlock := m.LockTurn("s1")
	acquired := make(chan struct{})
	go func() {
		u := m.LockTurn("s1")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second turn acquired the lock while the first held it")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second turn never acquired the lock")
	}
}
