// Package rules holds the per-game-type move legality and terminal detection.
// Every function here is pure and total: malformed boards, out-of-range
// positions and unknown game types yield false or OutcomeNone, never a panic.
package rules

type GameType string

const (
	TicTacToe   GameType = "tic-tac-toe"
	ConnectFour GameType = "connect-four"
	Checkers    GameType = "checkers"
)

const EmptyCell = ""

// Board is a fixed-length sequence of cells, each EmptyCell or a symbol.
type Board []string

func (that Board) Clone() Board {
	if that == nil {
		return nil
	}
	board := make(Board, len(that))
	copy(board, that)
	return board
}

func (that Board) isFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

func (that Board) inRange(position int) bool {
	return position >= 0 && position < len(that)
}

type OutcomeKind string

const (
	OutcomeNone OutcomeKind = "none"
	OutcomeWin  OutcomeKind = "win"
	OutcomeDraw OutcomeKind = "draw"
)

// Outcome is the result of terminal detection. Symbol and Line are set only
// for OutcomeWin; Line is nil when the win is not line-based.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Symbol string      `json:"symbol,omitempty"`
	Line   []int       `json:"line,omitempty"`
}

func (that Outcome) IsTerminal() bool {
	return that.Kind == OutcomeWin || that.Kind == OutcomeDraw
}

var none = Outcome{Kind: OutcomeNone}

func win(symbol string, line []int) Outcome {
	return Outcome{Kind: OutcomeWin, Symbol: symbol, Line: line}
}

var draw = Outcome{Kind: OutcomeDraw}

// Engine is implemented once per game type.
type Engine interface {
	Type() GameType
	// Symbols is the seat alphabet in seat order.
	Symbols() []string
	NewBoard() Board
	ValidateMove(board Board, position int) bool
	// Target maps an addressed position to the cell a move actually occupies.
	Target(board Board, position int) (int, bool)
	DetectTerminal(board Board) Outcome
	ValidMoves(board Board) []int
}

// Relocator is implemented by engines whose moves may pick up an existing
// piece instead of placing a new one.
type Relocator interface {
	ValidateRelocation(board Board, from, to int, symbol string) bool
}

var engines = map[GameType]Engine{
	TicTacToe:   ticTacToe{},
	ConnectFour: connectFour{},
	Checkers:    checkers{},
}

// For returns the engine for gameType.
func For(gameType GameType) (Engine, bool) {
	engine, ok := engines[gameType]
	return engine, ok
}

func (that GameType) Valid() bool {
	_, ok := engines[that]
	return ok
}

func ValidateMove(board Board, position int, gameType GameType) bool {
	engine, ok := For(gameType)
	if !ok {
		return false
	}
	return engine.ValidateMove(board, position)
}

func DetectTerminal(board Board, gameType GameType) Outcome {
	engine, ok := For(gameType)
	if !ok {
		return none
	}
	return engine.DetectTerminal(board)
}

func ValidMoves(board Board, gameType GameType) []int {
	engine, ok := For(gameType)
	if !ok {
		return nil
	}
	return engine.ValidMoves(board)
}

// BoardStats counts cells on a board.
type BoardStats struct {
	Occupied int            `json:"occupied"`
	Empty    int            `json:"empty"`
	Pieces   map[string]int `json:"pieces"`
}

func Stats(board Board) BoardStats {
	stats := BoardStats{Pieces: make(map[string]int)}
	for _, cell := range board {
		if cell == EmptyCell {
			stats.Empty++
			continue
		}
		stats.Occupied++
		stats.Pieces[cell]++
	}
	return stats
}

func emptyCells(board Board) []int {
	cells := make([]int, 0, len(board))
	for i, cell := range board {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}
	return cells
}

func newEmptyBoard(size int) Board {
	return make(Board, size)
}
