package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

const (
	colorX = "1" // red
	colorO = "4" // blue

	separator = "+-------+-------+-------+"
)

// Renderer - draws a game as a text grid on a terminal.
type Renderer struct {
	out *termenv.Output
}

func New(w io.Writer, opts ...termenv.OutputOption) *Renderer {
	return &Renderer{out: termenv.NewOutput(w, opts...)}
}

// Render writes the board, the sub-board summary and the status line.
func (that *Renderer) Render(game *sttt.Game) error {
	if _, err := io.WriteString(that.out, that.Board(game)); err != nil {
		return fmt.Errorf("failed to write board: %w", err)
	}

	return nil
}

func (that *Renderer) Board(game *sttt.Game) string {
	var builder strings.Builder

	builder.WriteString(separator + "\n")
	for metaRow := range sttt.Size {
		for row := range sttt.Size {
			builder.WriteString("|")
			for metaCol := range sttt.Size {
				for col := range sttt.Size {
					builder.WriteString(" ")
					builder.WriteString(that.cell(game, metaRow, metaCol, row, col))
				}
				builder.WriteString(" |")
			}
			builder.WriteString("\n")
		}
		builder.WriteString(separator + "\n")
	}

	builder.WriteString("\n")
	for metaRow := range sttt.Size {
		builder.WriteString(" ")
		for metaCol := range sttt.Size {
			builder.WriteString(" ")
			builder.WriteString(that.summary(game, metaRow, metaCol))
		}
		builder.WriteString("\n")
	}

	builder.WriteString("\n")
	builder.WriteString(that.Status(game))
	builder.WriteString("\n")

	return builder.String()
}

func (that *Renderer) cell(game *sttt.Game, metaRow, metaCol, row, col int) string {
	mark := game.Cell(metaRow, metaCol, row, col)
	if mark == sttt.Empty {
		if game.IsPlayable(metaRow, metaCol) {
			return that.out.String(".").Bold().String()
		}
		return that.out.String(".").Faint().String()
	}

	style := that.mark(mark)
	if game.SubBoardOutcome(metaRow, metaCol).IsTerminal() {
		style = style.Faint()
	}

	return style.String()
}

// summary is one character per sub-board: the winner, '=' for a draw, '*'
// when the next move may go there and '.' otherwise.
func (that *Renderer) summary(game *sttt.Game, metaRow, metaCol int) string {
	outcome := game.SubBoardOutcome(metaRow, metaCol)

	switch {
	case outcome.Status == sttt.Win:
		return that.mark(outcome.Winner).Bold().String()
	case outcome.Status == sttt.Draw:
		return "="
	case game.IsPlayable(metaRow, metaCol):
		return that.out.String("*").Reverse().String()
	default:
		return "."
	}
}

func (that *Renderer) mark(mark sttt.Mark) termenv.Style {
	color := colorX
	if mark == sttt.O {
		color = colorO
	}

	return that.out.String(mark.String()).Foreground(that.out.Color(color))
}

// Status - one line describing whose turn it is or how the game ended.
func (that *Renderer) Status(game *sttt.Game) string {
	outcome := game.Outcome()

	switch outcome.Status {
	case sttt.Win:
		return fmt.Sprintf("%s wins!", outcome.Winner)
	case sttt.Draw:
		return "Draw!"
	default:
		if active, ok := game.ActiveSubBoard(); ok {
			return fmt.Sprintf("%s to move in sub-board %d %d", game.CurrentTurn(), active.Row, active.Col)
		}
		return fmt.Sprintf("%s to move in any sub-board", game.CurrentTurn())
	}
}
