package rules

const (
	checkersSize      = 32
	checkersRowPieces = 12

	checkersRed   = "red"
	checkersBlack = "black"
)

// checkers is a simplified variant: a move places a piece on an empty playable
// square or relocates one of the mover's pieces. Jumps, captures and kinging
// are not modeled. A side wins when the other side has no pieces left. The
// engine never declares a draw; stalemate is decided by the game aggregate.
type checkers struct{}

func (checkers) Type() GameType {
	return Checkers
}

func (checkers) Symbols() []string {
	return []string{checkersRed, checkersBlack, "white"}
}

func (checkers) NewBoard() Board {
	board := newEmptyBoard(checkersSize)
	for i := 0; i < checkersRowPieces; i++ {
		board[i] = checkersRed
		board[checkersSize-1-i] = checkersBlack
	}
	return board
}

func (checkers) ValidateMove(board Board, position int) bool {
	if len(board) != checkersSize {
		return false
	}
	return board.inRange(position) && board[position] == EmptyCell
}

func (that checkers) ValidateRelocation(board Board, from, to int, symbol string) bool {
	if !that.ValidateMove(board, to) {
		return false
	}
	return board.inRange(from) && from != to && symbol != EmptyCell && board[from] == symbol
}

func (that checkers) Target(board Board, position int) (int, bool) {
	if !that.ValidateMove(board, position) {
		return 0, false
	}
	return position, true
}

func (checkers) DetectTerminal(board Board) Outcome {
	if len(board) != checkersSize {
		return none
	}

	var red, black int
	for _, cell := range board {
		switch cell {
		case checkersRed:
			red++
		case checkersBlack:
			black++
		}
	}

	switch {
	case red == 0 && black == 0:
		return none
	case red == 0:
		return win(checkersBlack, nil)
	case black == 0:
		return win(checkersRed, nil)
	}

	return none
}

func (checkers) ValidMoves(board Board) []int {
	if len(board) != checkersSize {
		return nil
	}
	return emptyCells(board)
}
