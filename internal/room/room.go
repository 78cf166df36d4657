package room

import (
	"sync"
	"time"

	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
	"github.com/rocketscienceinc/gamerooms-backend/internal/presence"
)

type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Room binds one game to the users attached to it. All fields are guarded by
// mu; callers reach them only through Tx inside Registry.Update.
type Room struct {
	mu           sync.Mutex
	gameID       string
	game         *entity.Game
	members      map[string]Role
	lastActivity time.Time
	typing       *presence.Typing
	closed       bool
}

func newRoom(game *entity.Game, at time.Time) *Room {
	room := &Room{
		gameID:       game.ID,
		game:         game,
		members:      make(map[string]Role),
		lastActivity: at,
		typing:       presence.NewTyping(),
	}

	for _, player := range game.Players {
		room.members[player.UserID] = RolePlayer
	}

	return room
}

// Tx is the view of a room handed to a mutation. It is valid only while the
// mutation runs.
type Tx struct {
	room     *Room
	notifier Notifier
}

func (that *Tx) Game() *entity.Game {
	return that.room.game
}

func (that *Tx) Typing() *presence.Typing {
	return that.room.typing
}

func (that *Tx) Role(userID string) (Role, bool) {
	role, ok := that.room.members[userID]
	return role, ok
}

func (that *Tx) Attach(userID string, role Role) {
	that.room.members[userID] = role
}

// Detach removes a spectator member. Seated players stay attached for the
// lifetime of the room.
func (that *Tx) Detach(userID string) bool {
	if that.room.game.IsSeated(userID) {
		return false
	}

	if _, ok := that.room.members[userID]; !ok {
		return false
	}

	delete(that.room.members, userID)
	return true
}

// Broadcast enqueues event for every member. Delivery never blocks, so the
// queue order of a room's events matches the order of its mutations.
func (that *Tx) Broadcast(event entity.Event) {
	for userID := range that.room.members {
		that.notifier.Deliver(that.room.gameID, userID, event)
	}
}

func (that *Tx) BroadcastExcept(skip string, event entity.Event) {
	for userID := range that.room.members {
		if userID != skip {
			that.notifier.Deliver(that.room.gameID, userID, event)
		}
	}
}

func (that *Tx) Send(userID string, event entity.Event) {
	that.notifier.Deliver(that.room.gameID, userID, event)
}
