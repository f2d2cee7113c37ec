package entity

import (
	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

const boardSide = sttt.Size * sttt.Size

// BoardView - what a client needs to draw the board. Cells are addressed on
// the 9x9 grid: row = meta_row*3 + row, col = meta_col*3 + col.
type BoardView struct {
	Cells      [boardSide][boardSide]string `json:"cells"`
	SubBoards  [sttt.Size][sttt.Size]string `json:"sub_boards"`
	Active     *sttt.Coord                  `json:"active,omitempty"`
	LegalMoves []sttt.Move                  `json:"legal_moves"`
	Notation   string                       `json:"notation"`
}

// GameView - a game as it is shown to players. Other players' ids stay hidden.
type GameView struct {
	ID     string     `json:"id,omitempty"`
	Type   string     `json:"type,omitempty"`
	Status string     `json:"status,omitempty"`
	Winner string     `json:"winner,omitempty"`
	Turn   string     `json:"turn,omitempty"`
	Board  *BoardView `json:"board,omitempty"`
}

func NewBoardView(board *sttt.Game) *BoardView {
	view := &BoardView{
		LegalMoves: board.LegalMoves(),
		Notation:   board.Notation(),
	}

	if view.LegalMoves == nil {
		view.LegalMoves = []sttt.Move{}
	}

	for metaRow := range sttt.Size {
		for metaCol := range sttt.Size {
			view.SubBoards[metaRow][metaCol] = outcomeMark(board.SubBoardOutcome(metaRow, metaCol))

			for row := range sttt.Size {
				for col := range sttt.Size {
					mark := board.Cell(metaRow, metaCol, row, col)
					view.Cells[metaRow*sttt.Size+row][metaCol*sttt.Size+col] = mark.String()
				}
			}
		}
	}

	if active, ok := board.ActiveSubBoard(); ok {
		view.Active = &active
	}

	return view
}

func NewGameView(game *Game) *GameView {
	view := &GameView{
		ID:     game.ID,
		Type:   game.Type,
		Status: game.Status,
		Winner: game.Winner,
	}

	if game.Board != nil {
		view.Turn = game.Turn()
		view.Board = NewBoardView(game.Board)
	}

	return view
}

// outcomeMark - "X" or "O" for a won sub-board, "-" for a draw, "" while open.
func outcomeMark(outcome sttt.Outcome) string {
	switch outcome.Status {
	case sttt.Win:
		return outcome.Winner.String()
	case sttt.Draw:
		return PlayerTie
	default:
		return ""
	}
}
