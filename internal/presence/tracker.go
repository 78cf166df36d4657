// Package presence keeps ephemeral, advisory state about who is connected and
// who is typing. Nothing here is persisted or consulted for game correctness.
package presence

import (
	"slices"
	"sync"
	"time"
)

// Entry describes one open transport.
type Entry struct {
	UserID        string    `json:"userId"`
	TransportID   string    `json:"transportId"`
	ConnectedAt   time.Time `json:"connectedAt"`
	CurrentRoomID string    `json:"currentRoomId,omitempty"`
}

// Tracker indexes open transports by transport id.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]Entry),
	}
}

func (that *Tracker) Connect(userID, transportID string, at time.Time) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.entries[transportID] = Entry{
		UserID:      userID,
		TransportID: transportID,
		ConnectedAt: at,
	}
}

// Disconnect drops the transport and returns its last entry.
func (that *Tracker) Disconnect(transportID string) (Entry, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.entries[transportID]
	if ok {
		delete(that.entries, transportID)
	}
	return entry, ok
}

func (that *Tracker) SetRoom(transportID, roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if entry, ok := that.entries[transportID]; ok {
		entry.CurrentRoomID = roomID
		that.entries[transportID] = entry
	}
}

// IsOnline reports whether userID has at least one open transport.
func (that *Tracker) IsOnline(userID string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, entry := range that.entries {
		if entry.UserID == userID {
			return true
		}
	}
	return false
}

// InRoom lists, sorted, the users with an open transport currently pointed at roomID.
func (that *Tracker) InRoom(roomID string) []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	seen := make(map[string]struct{})
	users := make([]string, 0)
	for _, entry := range that.entries {
		if entry.CurrentRoomID != roomID {
			continue
		}
		if _, ok := seen[entry.UserID]; ok {
			continue
		}
		seen[entry.UserID] = struct{}{}
		users = append(users, entry.UserID)
	}
	slices.Sort(users)
	return users
}
