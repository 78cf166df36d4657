package presence

import (
	"slices"
	"sync"
)

// Typing is the set of users currently typing in one room.
type Typing struct {
	mu    sync.Mutex
	users map[string]struct{}
}

func NewTyping() *Typing {
	return &Typing{
		users: make(map[string]struct{}),
	}
}

// Set toggles userID and reports whether the set changed.
func (that *Typing) Set(userID string, isTyping bool) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, present := that.users[userID]
	switch {
	case isTyping && !present:
		that.users[userID] = struct{}{}
		return true
	case !isTyping && present:
		delete(that.users, userID)
		return true
	default:
		return false
	}
}

func (that *Typing) Clear(userID string) bool {
	return that.Set(userID, false)
}

func (that *Typing) Users() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	users := make([]string, 0, len(that.users))
	for userID := range that.users {
		users = append(users, userID)
	}
	slices.Sort(users)
	return users
}
