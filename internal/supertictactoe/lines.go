package supertictactoe

// Size is the side of a sub-board and of the meta-board.
const Size = 3

// Coord - a (row, col) position in a 3x3 grid.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) Valid() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// Index - row-major index of the coordinate, 0..8.
func (c Coord) Index() int {
	return c.Row*Size + c.Col
}

func CoordOf(index int) Coord {
	return Coord{Row: index / Size, Col: index % Size}
}

// WinLines - rows, columns, main diagonal and anti-diagonal.
var WinLines = [8][3]Coord{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// winner returns the mark of the first line whose three positions project to
// the same mark. The projection reports false for positions that hold no mark.
func winner[T any](grid *[Size][Size]T, project func(T) (Mark, bool)) (Mark, bool) {
	for _, line := range WinLines {
		if mark, ok := lineMark(grid, line, project); ok {
			return mark, true
		}
	}

	return Empty, false
}

// settledOnce reports whether the grid could have stopped at its first
// completed line: at most one mark completes lines, and all of its lines share
// a position, the one filled last.
func settledOnce[T any](grid *[Size][Size]T, project func(T) (Mark, bool)) bool {
	var shared [Size][Size]int
	lines := map[Mark]int{}
	completed := Empty

	for _, line := range WinLines {
		mark, ok := lineMark(grid, line, project)
		if !ok {
			continue
		}

		lines[mark]++
		completed = mark
		for _, at := range line {
			shared[at.Row][at.Col]++
		}
	}

	if lines[X] > 0 && lines[O] > 0 {
		return false
	}

	if completed == Empty {
		return true
	}

	for row := range Size {
		for col := range Size {
			if shared[row][col] == lines[completed] {
				return true
			}
		}
	}

	return false
}

func lineMark[T any](grid *[Size][Size]T, line [3]Coord, project func(T) (Mark, bool)) (Mark, bool) {
	a, ok := project(grid[line[0].Row][line[0].Col])
	if !ok {
		return Empty, false
	}

	b, okB := project(grid[line[1].Row][line[1].Col])
	c, okC := project(grid[line[2].Row][line[2].Col])
	if okB && okC && a == b && b == c {
		return a, true
	}

	return Empty, false
}

func cellMark(m Mark) (Mark, bool) {
	return m, m != Empty
}

func subBoardMark(b SubBoard) (Mark, bool) {
	return b.outcome.WonBy()
}
