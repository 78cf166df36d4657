package entity

import (
	"slices"
	"time"

	"github.com/rocketscienceinc/gamerooms-backend/internal/rules"
)

// GameState is the full projection of a game sent to clients after every
// change. Clients replace their view with it and never diff.
type GameState struct {
	ID          string         `json:"id"`
	GameType    rules.GameType `json:"gameType"`
	Board       rules.Board    `json:"board"`
	Status      Status         `json:"status"`
	CurrentTurn string         `json:"currentTurn,omitempty"`
	Players     []Player       `json:"players"`
	Spectators  []string       `json:"spectators"`
	Winner      string         `json:"winner,omitempty"`
	EndReason   string         `json:"endReason,omitempty"`
	LastMove    *Move          `json:"lastMove,omitempty"`
	ValidMoves  []int          `json:"validMoves"`
	Stats       StateStats     `json:"stats"`
	Config      Config         `json:"config"`
	CreatedAt   time.Time      `json:"createdAt"`
	LastMoveAt  time.Time      `json:"lastMoveAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Version     uint64         `json:"version"`
}

type StateStats struct {
	TotalMoves   int            `json:"totalMoves"`
	EmptySpaces  int            `json:"emptySpaces"`
	Pieces       map[string]int `json:"pieces"`
	GameDuration int64          `json:"gameDuration"`
	WinnerLine   []int          `json:"winnerLine,omitempty"`
}

// Snapshot projects the game into a GameState sharing no memory with it.
func (that *Game) Snapshot() GameState {
	players := make([]Player, len(that.Players))
	for i, player := range that.Players {
		players[i] = player.clone()
	}

	var lastMove *Move
	if n := len(that.Moves); n > 0 {
		move := that.Moves[n-1]
		lastMove = &move
	}

	validMoves := []int{}
	if that.IsActive() {
		validMoves = rules.ValidMoves(that.Board, that.GameType)
	}

	boardStats := rules.Stats(that.Board)

	state := GameState{
		ID:          that.ID,
		GameType:    that.GameType,
		Board:       that.Board.Clone(),
		Status:      that.Status,
		CurrentTurn: that.CurrentTurn,
		Players:     players,
		Spectators:  slices.Clone(that.Spectators),
		Winner:      that.Winner,
		EndReason:   that.EndReason,
		LastMove:    lastMove,
		ValidMoves:  validMoves,
		Stats: StateStats{
			TotalMoves:   that.Stats.TotalMoves,
			EmptySpaces:  boardStats.Empty,
			Pieces:       boardStats.Pieces,
			GameDuration: that.Stats.GameDuration,
			WinnerLine:   slices.Clone(that.Stats.WinnerLine),
		},
		Config:     that.Config,
		CreatedAt:  that.CreatedAt,
		LastMoveAt: that.LastMoveAt,
		Version:    that.Version,
	}

	if that.CompletedAt != nil {
		completedAt := *that.CompletedAt
		state.CompletedAt = &completedAt
	}

	return state
}
