package entity

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/rules"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDraw      Status = "draw"
	StatusAbandoned Status = "abandoned"
)

const (
	EndReasonWin       = "win"
	EndReasonDraw      = "draw"
	EndReasonForfeit   = "forfeit"
	EndReasonIdle      = "idle"
	EndReasonMoveLimit = "move_limit"
	EndReasonStalemate = "stalemate"
)

const (
	DefaultMaxPlayers = 2
	minPlayers        = 2

	auxFrom = "from"
)

type Config struct {
	MaxPlayers      int  `json:"maxPlayers"`
	TimeLimit       int  `json:"timeLimit,omitempty"` // seconds per player
	MoveLimit       int  `json:"moveLimit,omitempty"`
	IsPrivate       bool `json:"isPrivate"`
	AllowSpectators bool `json:"allowSpectators"`
}

type Stats struct {
	TotalMoves   int   `json:"totalMoves"`
	GameDuration int64 `json:"gameDuration"` // seconds
	WinnerLine   []int `json:"winnerLine,omitempty"`
}

// Move is an entry of the append-only move log.
type Move struct {
	PlayerID      string         `json:"playerId"`
	Position      int            `json:"position"`
	Cell          int            `json:"cell"`
	From          *int           `json:"from,omitempty"`
	Symbol        string         `json:"symbol"`
	Timestamp     time.Time      `json:"timestamp"`
	AuxiliaryData map[string]any `json:"auxiliaryData,omitempty"`
}

// MoveResult describes an accepted move.
type MoveResult struct {
	Move    Move
	Outcome rules.Outcome
}

// Game is the authoritative state of one game. Every mutation goes through its
// methods; callers are expected to serialize access (see room.Room).
type Game struct {
	ID            string         `json:"id"`
	GameType      rules.GameType `json:"gameType"`
	Players       []*Player      `json:"players"`
	Board         rules.Board    `json:"board"`
	Status        Status         `json:"status"`
	CurrentTurn   string         `json:"currentTurn,omitempty"`
	Winner        string         `json:"winner,omitempty"`
	EndReason     string         `json:"endReason,omitempty"`
	Moves         []Move         `json:"moves"`
	Spectators    []string       `json:"spectators"`
	Config        Config         `json:"config"`
	Stats         Stats          `json:"stats"`
	CreatedAt     time.Time      `json:"createdAt"`
	LastMoveAt    time.Time      `json:"lastMoveAt"`
	TurnStartedAt time.Time      `json:"turnStartedAt,omitempty"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	Version       uint64         `json:"version"`
}

func NewGame(id string, gameType rules.GameType, config Config, at time.Time) (*Game, error) {
	engine, ok := rules.For(gameType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrUnknownGameType, gameType)
	}

	if config.MaxPlayers < minPlayers {
		config.MaxPlayers = DefaultMaxPlayers
	}
	if symbols := len(engine.Symbols()); config.MaxPlayers > symbols {
		config.MaxPlayers = symbols
	}

	return &Game{
		ID:         id,
		GameType:   gameType,
		Players:    []*Player{},
		Board:      engine.NewBoard(),
		Status:     StatusWaiting,
		Moves:      []Move{},
		Spectators: []string{},
		Config:     config,
		CreatedAt:  at,
		LastMoveAt: at,
		Version:    1,
	}, nil
}

func (that *Game) engine() (rules.Engine, error) {
	engine, ok := rules.For(that.GameType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrUnknownGameType, that.GameType)
	}
	return engine, nil
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Game) IsTerminal() bool {
	switch that.Status {
	case StatusCompleted, StatusDraw, StatusAbandoned:
		return true
	default:
		return false
	}
}

func (that *Game) IsFull() bool {
	return len(that.Players) >= that.Config.MaxPlayers
}

// IsOpen reports whether the game can be listed for others to take a seat.
func (that *Game) IsOpen() bool {
	return that.IsWaiting() && !that.Config.IsPrivate && !that.IsFull()
}

func (that *Game) Player(userID string) *Player {
	for _, player := range that.Players {
		if player.UserID == userID {
			return player
		}
	}
	return nil
}

func (that *Game) IsSeated(userID string) bool {
	return that.Player(userID) != nil
}

func (that *Game) IsSpectator(userID string) bool {
	return slices.Contains(that.Spectators, userID)
}

// Seat claims the next free seat for userID. Seats and their symbols follow
// join order.
func (that *Game) Seat(userID string) (*Player, error) {
	switch {
	case that.IsTerminal():
		return nil, apperror.ErrGameFinished
	case !that.IsWaiting(), that.IsFull():
		return nil, apperror.ErrGameFull
	case that.IsSeated(userID):
		return nil, apperror.ErrAlreadySeated
	}

	engine, err := that.engine()
	if err != nil {
		return nil, err
	}

	player := &Player{
		UserID: userID,
		Symbol: engine.Symbols()[len(that.Players)],
	}
	if that.Config.TimeLimit > 0 {
		remaining := that.Config.TimeLimit
		player.TimeRemaining = &remaining
	}
	that.Players = append(that.Players, player)
	that.Spectators = slices.DeleteFunc(that.Spectators, func(id string) bool { return id == userID })
	that.Version++

	return player, nil
}

// MarkReady flags the seat as ready and starts the game once every seat is
// ready. It reports whether the game started.
func (that *Game) MarkReady(playerID string, at time.Time) (bool, error) {
	if that.IsTerminal() {
		return false, apperror.ErrGameFinished
	}

	player := that.Player(playerID)
	if player == nil {
		return false, apperror.ErrNotSeated
	}

	if !player.IsReady {
		player.IsReady = true
		that.Version++
	}

	if !that.IsWaiting() || len(that.Players) < minPlayers {
		return false, nil
	}

	for _, seat := range that.Players {
		if !seat.IsReady {
			return false, nil
		}
	}

	that.Status = StatusActive
	that.TurnStartedAt = at
	that.setTurn(that.Players[0].UserID)
	that.Version++

	return true, nil
}

// ApplyMove validates and applies a move for playerID. It either fully applies
// the move or returns a rejection without touching the game.
func (that *Game) ApplyMove(playerID string, position int, aux map[string]any, at time.Time) (MoveResult, error) {
	if !that.IsActive() {
		return MoveResult{}, apperror.ErrGameNotActive
	}

	if that.CurrentTurn != playerID {
		return MoveResult{}, apperror.ErrNotYourTurn
	}

	player := that.Player(playerID)
	if player == nil {
		return MoveResult{}, apperror.ErrNotSeated
	}

	engine, err := that.engine()
	if err != nil {
		return MoveResult{}, err
	}

	cell, from, err := that.resolveTarget(engine, player.Symbol, position, aux)
	if err != nil {
		return MoveResult{}, err
	}

	if from != nil {
		that.Board[*from] = rules.EmptyCell
	}
	that.Board[cell] = player.Symbol

	move := Move{
		PlayerID:      playerID,
		Position:      position,
		Cell:          cell,
		From:          from,
		Symbol:        player.Symbol,
		Timestamp:     at,
		AuxiliaryData: aux,
	}
	that.Moves = append(that.Moves, move)
	that.Stats.TotalMoves++
	that.LastMoveAt = at
	that.chargeClock(player, at)

	outcome := engine.DetectTerminal(that.Board)
	switch {
	case outcome.Kind == rules.OutcomeWin:
		winner := that.playerBySymbol(outcome.Symbol)
		if winner == nil {
			winner = player
		}
		winner.Score++
		that.Stats.WinnerLine = outcome.Line
		that.finish(StatusCompleted, winner.UserID, EndReasonWin, at)
	case outcome.Kind == rules.OutcomeDraw:
		that.finish(StatusDraw, "", EndReasonDraw, at)
	case len(engine.ValidMoves(that.Board)) == 0:
		outcome = rules.Outcome{Kind: rules.OutcomeDraw}
		that.finish(StatusDraw, "", EndReasonStalemate, at)
	case that.Config.MoveLimit > 0 && that.Stats.TotalMoves >= that.Config.MoveLimit:
		outcome = rules.Outcome{Kind: rules.OutcomeDraw}
		that.finish(StatusDraw, "", EndReasonMoveLimit, at)
	default:
		that.advanceTurn(at)
	}

	that.Version++

	return MoveResult{Move: move, Outcome: outcome}, nil
}

func (that *Game) resolveTarget(engine rules.Engine, symbol string, position int, aux map[string]any) (int, *int, error) {
	if raw, ok := aux[auxFrom]; ok {
		relocator, ok := engine.(rules.Relocator)
		if !ok {
			return 0, nil, apperror.ErrIllegalPosition
		}

		from, ok := toInt(raw)
		if !ok || !relocator.ValidateRelocation(that.Board, from, position, symbol) {
			return 0, nil, apperror.ErrIllegalPosition
		}

		return position, &from, nil
	}

	if !engine.ValidateMove(that.Board, position) {
		return 0, nil, apperror.ErrIllegalPosition
	}

	cell, ok := engine.Target(that.Board, position)
	if !ok {
		return 0, nil, apperror.ErrIllegalPosition
	}

	return cell, nil, nil
}

// Forfeit ends an active game in favor of the first other seat. It returns
// the winner's id.
func (that *Game) Forfeit(playerID string, at time.Time) (string, error) {
	if that.IsTerminal() {
		return "", apperror.ErrGameFinished
	}
	if !that.IsActive() {
		return "", apperror.ErrGameNotActive
	}
	if !that.IsSeated(playerID) {
		return "", apperror.ErrNotSeated
	}

	var winner string
	for _, player := range that.Players {
		if player.UserID != playerID {
			winner = player.UserID
			break
		}
	}

	that.finish(StatusCompleted, winner, EndReasonForfeit, at)
	that.Version++

	return winner, nil
}

// Abandon closes a game that never started. It reports whether anything changed.
func (that *Game) Abandon(at time.Time) bool {
	if !that.IsWaiting() {
		return false
	}

	that.finish(StatusAbandoned, "", EndReasonIdle, at)
	that.Version++

	return true
}

func (that *Game) AddSpectator(userID string) bool {
	if that.IsSpectator(userID) {
		return false
	}

	that.Spectators = append(that.Spectators, userID)
	that.Version++

	return true
}

func (that *Game) RemoveSpectator(userID string) bool {
	if !that.IsSpectator(userID) {
		return false
	}

	that.Spectators = slices.DeleteFunc(that.Spectators, func(id string) bool { return id == userID })
	that.Version++

	return true
}

func (that *Game) finish(status Status, winner, reason string, at time.Time) {
	that.Status = status
	that.Winner = winner
	that.EndReason = reason
	that.CompletedAt = &at
	that.Stats.GameDuration = int64(at.Sub(that.CreatedAt).Seconds())
	that.setTurn("")
}

func (that *Game) advanceTurn(at time.Time) {
	current := slices.IndexFunc(that.Players, func(p *Player) bool { return p.UserID == that.CurrentTurn })
	next := (current + 1) % len(that.Players)

	that.TurnStartedAt = at
	that.setTurn(that.Players[next].UserID)
}

func (that *Game) setTurn(userID string) {
	that.CurrentTurn = userID
	for _, player := range that.Players {
		player.IsCurrentTurn = player.UserID == userID && userID != ""
	}
}

func (that *Game) chargeClock(player *Player, at time.Time) {
	if player.TimeRemaining == nil || that.TurnStartedAt.IsZero() {
		return
	}

	spent := int(at.Sub(that.TurnStartedAt).Seconds())
	*player.TimeRemaining = max(*player.TimeRemaining-spent, 0)
}

func (that *Game) playerBySymbol(symbol string) *Player {
	for _, player := range that.Players {
		if player.Symbol == symbol {
			return player
		}
	}
	return nil
}

// Clone returns a deep copy safe to use outside the room lock.
func (that *Game) Clone() *Game {
	clone := *that

	clone.Players = make([]*Player, len(that.Players))
	for i, player := range that.Players {
		seat := player.clone()
		clone.Players[i] = &seat
	}

	clone.Board = that.Board.Clone()
	clone.Moves = slices.Clone(that.Moves)
	clone.Spectators = slices.Clone(that.Spectators)
	clone.Stats.WinnerLine = slices.Clone(that.Stats.WinnerLine)

	if that.CompletedAt != nil {
		completedAt := *that.CompletedAt
		clone.CompletedAt = &completedAt
	}

	return &clone
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
