// Package session holds per-conversation state: turn history, uploaded
// documents, personal info, and a rolling summary. Sessions are in-memory
// with idle TTL eviction and an LRU size cap.
package session

import (
	"time"
)

// Turn is one completed user/assistant exchange. Turns are immutable once
// appended.
type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Tokens    int       `json:"tokens"`
	At        time.Time `json:"at"`
}

// Document is an uploaded document kept for context retrieval. At most a
// few per session; the oldest is evicted first.
type Document struct {
	Name     string    `json:"name"`
	Content  string    `json:"content"`
	AddedAt  time.Time `json:"added_at"`
	LastUsed time.Time `json:"last_used"`
}

// PersonalInfo is explicitly volunteered user information. Keyed fields
// only ("name", "location"); never inferred.
type PersonalInfo map[string]string

// Session is the per-conversation state snapshot. Callers receive clones;
// mutation goes through the Manager.
type Session struct {
	ID           string
	Turns        []Turn
	Documents    []Document
	PersonalInfo PersonalInfo
	Summary      string

	CreatedAt  time.Time
	LastActive time.Time
}

// Clone returns a deep copy safe to read outside the manager's lock.
func (s *Session) Clone() *Session {
	c := &Session{
		ID:         s.ID,
		Summary:    s.Summary,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive,
	}
	c.Turns = append([]Turn(nil), s.Turns...)
	c.Documents = append([]Document(nil), s.Documents...)
	if s.PersonalInfo != nil {
		c.PersonalInfo = make(PersonalInfo, len(s.PersonalInfo))
		for k, v := range s.PersonalInfo {
			c.PersonalInfo[k] = v
		}
	}
	return c
}

// NumTurns returns the turn count.
func (s *Session) NumTurns() int {
	return len(s.Turns)
}

// RecentUserMessages returns up to n most recent user messages, newest
// last.
func (s *Session) RecentUserMessages(n int) []string {
	start := len(s.Turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, n)
	for _, t := range s.Turns[start:] {
		out = append(out, t.User)
	}
	return out
}

// RecentAssistantMessages returns up to n most recent assistant messages,
// newest last.
func (s *Session) RecentAssistantMessages(n int) []string {
	start := len(s.Turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, n)
	for _, t := range s.Turns[start:] {
		out = append(out, t.Assistant)
	}
	return out
}
