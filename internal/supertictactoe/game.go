// Package supertictactoe implements the rules of Super Tic-Tac-Toe.
package supertictactoe

import "fmt"

// Move - a cell address on the meta-board: the sub-board at (MetaRow, MetaCol)
// and the cell (Row, Col) inside it.
type Move struct {
	MetaRow int `json:"meta_row"`
	MetaCol int `json:"meta_col"`
	Row     int `json:"row"`
	Col     int `json:"col"`
}

func (m Move) Board() Coord {
	return Coord{Row: m.MetaRow, Col: m.MetaCol}
}

func (m Move) Cell() Coord {
	return Coord{Row: m.Row, Col: m.Col}
}

func (m Move) Valid() bool {
	return m.Board().Valid() && m.Cell().Valid()
}

func (m Move) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", m.MetaRow, m.MetaCol, m.Row, m.Col)
}

// Game - the meta-board: nine sub-boards, the mark to move and the sub-board
// the next move is sent to.
//
// A Game has a single owner. It is not safe for concurrent use.
type Game struct {
	boards      [Size][Size]SubBoard
	turn        Mark
	outcome     Outcome
	active      Coord
	constrained bool
}

// New - creates an empty game with X to move and no constraint.
func New() *Game {
	return &Game{turn: X}
}

// Play - applies the move for the mark whose turn it is. It returns false and
// leaves the game untouched when the game is over, the move targets a
// sub-board other than the active one, or the sub-board rejects the cell.
func (g *Game) Play(metaRow, metaCol, row, col int) bool {
	move := Move{MetaRow: metaRow, MetaCol: metaCol, Row: row, Col: col}

	if g.outcome.IsTerminal() || !move.Valid() {
		return false
	}

	if g.constrained && move.Board() != g.active {
		return false
	}

	if !g.boards[metaRow][metaCol].Play(row, col, g.turn) {
		return false
	}

	g.evaluate()

	if g.outcome.IsTerminal() {
		g.turn = Empty
		g.active, g.constrained = Coord{}, false

		return true
	}

	g.turn = g.turn.Next()
	g.sendTo(move.Cell())

	return true
}

func (g *Game) PlayMove(move Move) bool {
	return g.Play(move.MetaRow, move.MetaCol, move.Row, move.Col)
}

// sendTo constrains the next move to target, or lifts the constraint when
// target is already resolved.
func (g *Game) sendTo(target Coord) {
	if g.boards[target.Row][target.Col].outcome.IsTerminal() {
		g.active, g.constrained = Coord{}, false
		return
	}

	g.active, g.constrained = target, true
}

func (g *Game) evaluate() {
	if mark, ok := winner(&g.boards, subBoardMark); ok {
		g.outcome = WinFor(mark)
		return
	}

	if g.allResolved() {
		g.outcome = Outcome{Status: Draw}
	}
}

func (g *Game) allResolved() bool {
	for _, row := range g.boards {
		for _, board := range row {
			if !board.outcome.IsTerminal() {
				return false
			}
		}
	}

	return true
}

// LegalMoves - every move Play would accept, row-major over the meta-board
// and then over the cells of each sub-board.
func (g *Game) LegalMoves() []Move {
	if g.outcome.IsTerminal() {
		return nil
	}

	candidates := make([]Coord, 0, Size*Size)
	if g.constrained {
		candidates = append(candidates, g.active)
	} else {
		for i := range Size * Size {
			candidates = append(candidates, CoordOf(i))
		}
	}

	var moves []Move
	for _, at := range candidates {
		board := g.boards[at.Row][at.Col]
		if board.outcome.IsTerminal() {
			continue
		}

		for _, cell := range board.EmptyCells() {
			moves = append(moves, Move{MetaRow: at.Row, MetaCol: at.Col, Row: cell.Row, Col: cell.Col})
		}
	}

	return moves
}

// CurrentTurn returns Empty once the game is over.
func (g *Game) CurrentTurn() Mark {
	return g.turn
}

func (g *Game) Outcome() Outcome {
	return g.outcome
}

// ActiveSubBoard - the sub-board the next move must target. The second value
// is false when the player may choose any unresolved sub-board.
func (g *Game) ActiveSubBoard() (Coord, bool) {
	return g.active, g.constrained
}

// SubBoard returns a copy of the sub-board at (metaRow, metaCol).
func (g *Game) SubBoard(metaRow, metaCol int) SubBoard {
	if !(Coord{Row: metaRow, Col: metaCol}).Valid() {
		return SubBoard{}
	}
	return g.boards[metaRow][metaCol]
}

func (g *Game) SubBoardOutcome(metaRow, metaCol int) Outcome {
	return g.SubBoard(metaRow, metaCol).Outcome()
}

func (g *Game) Cell(metaRow, metaCol, row, col int) Mark {
	return g.SubBoard(metaRow, metaCol).Cell(row, col)
}

// IsPlayable reports whether the next move may target the sub-board.
func (g *Game) IsPlayable(metaRow, metaCol int) bool {
	at := Coord{Row: metaRow, Col: metaCol}
	if g.outcome.IsTerminal() || !at.Valid() {
		return false
	}

	if g.boards[metaRow][metaCol].outcome.IsTerminal() {
		return false
	}

	return !g.constrained || g.active == at
}
