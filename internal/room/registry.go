// Package room is the in-process directory of live games. Every read-then-write
// on a game happens under its room's lock; unrelated rooms never contend.
package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
)

// Notifier hands an event to the transports of one user attached to a room.
// Implementations must not block.
type Notifier interface {
	Deliver(gameID, userID string, event entity.Event)
}

type gameLoader interface {
	GetByID(ctx context.Context, id string) (*entity.Game, error)
}

type Registry struct {
	logger   *slog.Logger
	loader   gameLoader
	notifier Notifier
	now      func() time.Time

	mu      sync.RWMutex
	rooms   map[string]*Room
	evicted map[string]tombstone
}

// tombstone keeps the final state of an evicted room so the id is never
// registered again from a stale stored copy.
type tombstone struct {
	game *entity.Game
	at   time.Time
}

func NewRegistry(logger *slog.Logger, loader gameLoader, notifier Notifier) *Registry {
	return &Registry{
		logger:   logger.With("component", "room_registry"),
		loader:   loader,
		notifier: notifier,
		now:      time.Now,
		rooms:    make(map[string]*Room),
		evicted:  make(map[string]tombstone),
	}
}

// Add registers a game. An existing room with the same id wins. Finished games
// and evicted ids are refused with apperror.ErrGameFinished.
func (that *Registry) Add(game *entity.Game) (*Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if room, ok := that.rooms[game.ID]; ok {
		return room, nil
	}

	if _, ok := that.evicted[game.ID]; ok || game.IsTerminal() {
		return nil, apperror.ErrGameFinished
	}

	room := newRoom(game, that.now())
	that.rooms[game.ID] = room

	return room, nil
}

func (that *Registry) Get(gameID string) (*Room, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[gameID]
	return room, ok
}

// GetOrCreate returns the live room for gameID, loading the game from the
// store when no room holds it yet. Evicted and finished games are not brought
// back to life.
func (that *Registry) GetOrCreate(ctx context.Context, gameID string) (*Room, error) {
	if room, ok := that.Get(gameID); ok {
		return room, nil
	}

	if that.isEvicted(gameID) {
		return nil, apperror.ErrGameFinished
	}

	game, err := that.loader.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	return that.Add(game)
}

func (that *Registry) isEvicted(gameID string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	_, ok := that.evicted[gameID]
	return ok
}

// Update runs fn with exclusive access to the room. When fn returns nil and
// the game changed, Update returns a detached copy for persistence; otherwise
// the returned game is nil. fn must not block.
func (that *Registry) Update(ctx context.Context, gameID string, fn func(tx *Tx) error) (*entity.Game, error) {
	for attempt := 0; attempt < 2; attempt++ {
		room, err := that.GetOrCreate(ctx, gameID)
		if err != nil {
			return nil, err
		}

		changed, closed, err := that.apply(room, fn)
		if closed {
			continue
		}

		return changed, err
	}

	return nil, apperror.ErrGameFinished
}

func (that *Registry) apply(room *Room, fn func(tx *Tx) error) (*entity.Game, bool, error) {
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return nil, true, nil
	}

	version := room.game.Version
	room.lastActivity = that.now()

	if err := fn(&Tx{room: room, notifier: that.notifier}); err != nil {
		return nil, false, err
	}

	if room.game.Version == version {
		return nil, false, nil
	}

	return room.game.Clone(), false, nil
}

// Join attaches userID to the room and enqueues the current state for every
// member. Seated users attach as players even when asking to spectate; everyone
// else attaches as a spectator when the game allows spectators.
func (that *Registry) Join(ctx context.Context, gameID, userID string, asSpectator bool) (entity.GameState, Role, *entity.Game, error) {
	var (
		state entity.GameState
		role  Role
	)

	changed, err := that.Update(ctx, gameID, func(tx *Tx) error {
		game := tx.Game()

		role = RolePlayer
		if !game.IsSeated(userID) {
			if !game.Config.AllowSpectators {
				return apperror.ErrSpectatorsNotAllowed
			}
			role = RoleSpectator
			game.AddSpectator(userID)
		}

		tx.Attach(userID, role)
		state = game.Snapshot()

		tx.BroadcastExcept(userID, entity.NewEvent(entity.ActionPlayerJoined, entity.UserPayload{UserID: userID}))
		if asSpectator {
			tx.Send(userID, entity.NewEvent(entity.ActionSpectatingStarted, entity.SpectatingPayload{GameID: game.ID}))
		}
		tx.Broadcast(entity.NewEvent(entity.ActionGameState, state))

		return nil
	})
	if err != nil {
		return entity.GameState{}, "", nil, err
	}

	return state, role, changed, nil
}

// Leave detaches a spectator. Seated players remain attached; leaving never
// concedes a game.
func (that *Registry) Leave(ctx context.Context, gameID, userID string) (*entity.Game, error) {
	room, ok := that.Get(gameID)
	if !ok {
		return nil, apperror.ErrNotInRoom
	}

	changed, _, err := that.apply(room, func(tx *Tx) error {
		if _, ok := tx.Role(userID); !ok {
			return apperror.ErrNotInRoom
		}

		if tx.Typing().Clear(userID) {
			tx.Broadcast(entity.NewEvent(entity.ActionUserTyping, entity.TypingPayload{UserID: userID}))
		}

		tx.Game().RemoveSpectator(userID)
		tx.Detach(userID)

		tx.BroadcastExcept(userID, entity.NewEvent(entity.ActionPlayerLeft, entity.UserPayload{UserID: userID}))

		return nil
	})

	return changed, err
}

// Disconnect records that userID lost its transport. Spectators are detached,
// seated players keep their seat and the game keeps running.
func (that *Registry) Disconnect(gameID, userID string) *entity.Game {
	room, ok := that.Get(gameID)
	if !ok {
		return nil
	}

	changed, _, _ := that.apply(room, func(tx *Tx) error {
		if _, ok := tx.Role(userID); !ok {
			return nil
		}

		if tx.Typing().Clear(userID) {
			tx.Broadcast(entity.NewEvent(entity.ActionUserTyping, entity.TypingPayload{UserID: userID}))
		}

		if tx.Detach(userID) {
			tx.Game().RemoveSpectator(userID)
		}

		tx.Broadcast(entity.NewEvent(entity.ActionPlayerDisconnected, entity.UserPayload{UserID: userID}))

		return nil
	})

	return changed
}

// Broadcast delivers event to every member of a live room.
func (that *Registry) Broadcast(gameID string, event entity.Event) error {
	room, ok := that.Get(gameID)
	if !ok {
		return apperror.ErrGameNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	(&Tx{room: room, notifier: that.notifier}).Broadcast(event)

	return nil
}

// Typing lists the users typing in a live room.
func (that *Registry) Typing(gameID string) ([]string, error) {
	room, ok := that.Get(gameID)
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return room.typing.Users(), nil
}

// Snapshot returns the current state of a live, evicted or stored game without
// registering a room for it.
func (that *Registry) Snapshot(ctx context.Context, gameID string) (entity.GameState, error) {
	that.mu.RLock()
	room, live := that.rooms[gameID]
	tomb, evicted := that.evicted[gameID]
	that.mu.RUnlock()

	switch {
	case live:
		room.mu.Lock()
		defer room.mu.Unlock()

		return room.game.Snapshot(), nil
	case evicted:
		return tomb.game.Snapshot(), nil
	}

	game, err := that.loader.GetByID(ctx, gameID)
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to load game: %w", err)
	}

	return game.Snapshot(), nil
}

// Open lists live games that still accept players.
func (that *Registry) Open() []entity.GameState {
	that.mu.RLock()
	rooms := make([]*Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		rooms = append(rooms, room)
	}
	that.mu.RUnlock()

	states := make([]entity.GameState, 0)
	for _, room := range rooms {
		room.mu.Lock()
		if room.game.IsOpen() {
			states = append(states, room.game.Snapshot())
		}
		room.mu.Unlock()
	}

	return states
}

// SweepIdle abandons and evicts waiting rooms idle for longer than maxIdle.
// Active and finished rooms are never evicted for inactivity. Tombstones older
// than maxIdle are dropped; by then the final state is in the store.
func (that *Registry) SweepIdle(now time.Time, maxIdle time.Duration) []*entity.Game {
	log := that.logger.With("method", "SweepIdle")

	that.mu.Lock()
	defer that.mu.Unlock()

	for gameID, tomb := range that.evicted {
		if now.Sub(tomb.at) > maxIdle {
			delete(that.evicted, gameID)
		}
	}

	abandoned := make([]*entity.Game, 0)
	for gameID, room := range that.rooms {
		room.mu.Lock()

		if !room.game.IsWaiting() || now.Sub(room.lastActivity) <= maxIdle {
			room.mu.Unlock()
			continue
		}

		room.game.Abandon(now)
		(&Tx{room: room, notifier: that.notifier}).Broadcast(
			entity.NewEvent(entity.ActionGameAbandoned, room.game.Snapshot()),
		)
		final := that.evict(room, now)
		abandoned = append(abandoned, final)

		room.mu.Unlock()

		log.Info("room evicted", "gameID", gameID)
	}

	return abandoned
}

// Close evicts a room regardless of its state.
func (that *Registry) Close(gameID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[gameID]
	if !ok {
		return
	}

	room.mu.Lock()
	that.evict(room, that.now())
	room.mu.Unlock()
}

// CloseFinished evicts the room of a finished game once no connection is
// attached to it. It reports whether the room was closed.
func (that *Registry) CloseFinished(gameID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[gameID]
	if !ok {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if !room.game.IsTerminal() {
		return false
	}

	that.evict(room, that.now())
	return true
}

// evict must be called with both that.mu and room.mu held.
func (that *Registry) evict(room *Room, at time.Time) *entity.Game {
	room.closed = true
	final := room.game.Clone()

	delete(that.rooms, room.gameID)
	that.evicted[room.gameID] = tombstone{game: final, at: at}

	return final.Clone()
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
