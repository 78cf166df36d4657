package rules

const (
	connectFourRows = 6
	connectFourCols = 7
	connectFourRun  = 4
)

// connectFour addresses moves by column. Row 0 is the top of the grid, so a
// column is full when its row-0 cell is occupied. A move is not written to the
// addressed column index: Target drops the disc to the lowest empty row of that
// column, and the move log records both the column and the cell written.
type connectFour struct{}

func (connectFour) Type() GameType {
	return ConnectFour
}

func (connectFour) Symbols() []string {
	return []string{"red", "yellow"}
}

func (connectFour) NewBoard() Board {
	return newEmptyBoard(connectFourRows * connectFourCols)
}

func (connectFour) ValidateMove(board Board, column int) bool {
	if len(board) != connectFourRows*connectFourCols {
		return false
	}
	if column < 0 || column >= connectFourCols {
		return false
	}
	return board[column] == EmptyCell
}

// Target drops the disc to the lowest empty row of the column.
func (that connectFour) Target(board Board, column int) (int, bool) {
	if !that.ValidateMove(board, column) {
		return 0, false
	}

	for row := connectFourRows - 1; row >= 0; row-- {
		cell := cellAt(row, column)
		if board[cell] == EmptyCell {
			return cell, true
		}
	}

	return 0, false
}

func (connectFour) DetectTerminal(board Board) Outcome {
	if len(board) != connectFourRows*connectFourCols {
		return none
	}

	scans := []struct {
		rowFrom, rowTo int
		colFrom, colTo int
		dRow, dCol     int
	}{
		// horizontal
		{0, connectFourRows - 1, 0, connectFourCols - connectFourRun, 0, 1},
		// vertical
		{0, connectFourRows - connectFourRun, 0, connectFourCols - 1, 1, 0},
		// diagonal, ascending index
		{0, connectFourRows - connectFourRun, 0, connectFourCols - connectFourRun, 1, 1},
		// diagonal, descending index
		{connectFourRun - 1, connectFourRows - 1, 0, connectFourCols - connectFourRun, -1, 1},
	}

	for _, scan := range scans {
		for row := scan.rowFrom; row <= scan.rowTo; row++ {
			for col := scan.colFrom; col <= scan.colTo; col++ {
				if line, ok := runAt(board, row, col, scan.dRow, scan.dCol); ok {
					return win(board[line[0]], line)
				}
			}
		}
	}

	if board.isFull() {
		return draw
	}

	return none
}

func (that connectFour) ValidMoves(board Board) []int {
	if len(board) != connectFourRows*connectFourCols {
		return nil
	}

	columns := make([]int, 0, connectFourCols)
	for col := 0; col < connectFourCols; col++ {
		if that.ValidateMove(board, col) {
			columns = append(columns, col)
		}
	}
	return columns
}

func cellAt(row, col int) int {
	return row*connectFourCols + col
}

func runAt(board Board, row, col, dRow, dCol int) ([]int, bool) {
	first := board[cellAt(row, col)]
	if first == EmptyCell {
		return nil, false
	}

	line := make([]int, 0, connectFourRun)
	for step := 0; step < connectFourRun; step++ {
		cell := cellAt(row+step*dRow, col+step*dCol)
		if board[cell] != first {
			return nil, false
		}
		line = append(line, cell)
	}

	return line, true
}
