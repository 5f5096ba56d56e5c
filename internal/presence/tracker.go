// Package presence tracks which users currently hold at least one live
// connection on the shared presence channel.
package presence

import (
	"sort"
	"sync"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

type entry struct {
	profile models.PublicProfile
	conns   int
}

// Tracker is the process-local online set. It starts empty, mutates on
// join/leave, and is dropped wholesale on Stop; nothing is persisted.
// Clients rebuild their view from the snapshot delivered on (re)join.
type Tracker struct {
	mu    sync.Mutex
	conns map[string]int // conn id -> user id
	users map[int]*entry
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		conns: make(map[string]int),
		users: make(map[int]*entry),
	}
}

// Join registers a connection for the user. It returns the online
// snapshot (including the joiner) and whether this was the user's first
// live connection; only a first join is broadcast as "joining".
func (t *Tracker) Join(connID string, profile models.PublicProfile) ([]models.PublicProfile, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.conns[connID]; dup {
		return t.snapshotLocked(), false
	}
	t.conns[connID] = profile.ID

	e, ok := t.users[profile.ID]
	if !ok {
		e = &entry{profile: profile}
		t.users[profile.ID] = e
	}
	e.conns++
	return t.snapshotLocked(), e.conns == 1
}

// Leave drops a connection. It returns the affected user id and whether
// that was the user's last connection; only a last leave is broadcast as
// "leaving". Unknown connection ids are a no-op.
func (t *Tracker) Leave(connID string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	userID, ok := t.conns[connID]
	if !ok {
		return 0, false
	}
	delete(t.conns, connID)

	e := t.users[userID]
	if e == nil {
		return userID, false
	}
	e.conns--
	if e.conns > 0 {
		return userID, false
	}
	delete(t.users, userID)
	return userID, true
}

// Snapshot returns the current online set ordered by user id.
func (t *Tracker) Snapshot() []models.PublicProfile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Online reports whether the user has at least one live connection.
func (t *Tracker) Online(userID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.users[userID]
	return ok
}

// Stop drops every entry. Used on shutdown; the set is rebuilt from zero
// when connections come back.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns = make(map[string]int)
	t.users = make(map[int]*entry)
}

func (t *Tracker) snapshotLocked() []models.PublicProfile {
	out := make([]models.PublicProfile, 0, len(t.users))
	for _, e := range t.users {
		out = append(out, e.profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
