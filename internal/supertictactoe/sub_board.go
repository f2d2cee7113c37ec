package supertictactoe

// SubBoard - one of the nine 3x3 tic-tac-toe grids of the meta-board.
type SubBoard struct {
	cells   [Size][Size]Mark
	outcome Outcome
}

// Play - places mark at (row, col). It returns false and changes nothing when
// the sub-board is already resolved, the cell is taken or out of range.
func (b *SubBoard) Play(row, col int, mark Mark) bool {
	if b.outcome.IsTerminal() || !mark.IsPlayer() {
		return false
	}

	if !(Coord{Row: row, Col: col}).Valid() || b.cells[row][col] != Empty {
		return false
	}

	b.cells[row][col] = mark
	b.evaluate()

	return true
}

func (b *SubBoard) evaluate() {
	if mark, ok := b.Winner(); ok {
		b.outcome = WinFor(mark)
		return
	}

	if b.IsFull() {
		b.outcome = Outcome{Status: Draw}
	}
}

// Cell returns Empty for coordinates outside the grid.
func (b SubBoard) Cell(row, col int) Mark {
	if !(Coord{Row: row, Col: col}).Valid() {
		return Empty
	}
	return b.cells[row][col]
}

func (b SubBoard) Outcome() Outcome {
	return b.outcome
}

func (b SubBoard) Winner() (Mark, bool) {
	return winner(&b.cells, cellMark)
}

func (b SubBoard) IsFull() bool {
	for _, row := range b.cells {
		for _, cell := range row {
			if cell == Empty {
				return false
			}
		}
	}

	return true
}

// EmptyCells - free cells in row-major order.
func (b SubBoard) EmptyCells() []Coord {
	cells := make([]Coord, 0, Size*Size)
	for row := range Size {
		for col := range Size {
			if b.cells[row][col] == Empty {
				cells = append(cells, Coord{Row: row, Col: col})
			}
		}
	}

	return cells
}
