package rules

const ticTacToeSize = 9

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type ticTacToe struct{}

func (ticTacToe) Type() GameType {
	return TicTacToe
}

func (ticTacToe) Symbols() []string {
	return []string{"X", "O"}
}

func (ticTacToe) NewBoard() Board {
	return newEmptyBoard(ticTacToeSize)
}

func (ticTacToe) ValidateMove(board Board, position int) bool {
	if len(board) != ticTacToeSize {
		return false
	}
	return board.inRange(position) && board[position] == EmptyCell
}

func (that ticTacToe) Target(board Board, position int) (int, bool) {
	if !that.ValidateMove(board, position) {
		return 0, false
	}
	return position, true
}

func (ticTacToe) DetectTerminal(board Board) Outcome {
	if len(board) != ticTacToeSize {
		return none
	}

	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return win(a, []int{combo[0], combo[1], combo[2]})
		}
	}

	// the game will continue until all the squares are full
	if board.isFull() {
		return draw
	}

	return none
}

func (ticTacToe) ValidMoves(board Board) []int {
	if len(board) != ticTacToeSize {
		return nil
	}
	return emptyCells(board)
}
