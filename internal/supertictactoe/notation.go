package supertictactoe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartingPosition - notation of a new game.
const StartingPosition = "9/9/9/9/9/9/9/9/9 x -"

var ErrInvalidNotation = errors.New("invalid notation")

// Notation - compact text form of the game, in the spirit of FEN:
//
//	<b0>/<b1>/.../<b8> <turn> <active>
//
// Each sub-board lists its cells row-major, 'x' and 'o' for marks and a digit
// for a run of empty cells. <turn> is 'x', 'o' or '-' once the game is over.
// <active> is the row-major index of the active sub-board or '-'.
//
// Example: 9/9/9/9/4x4/9/9/9/9 o 4
func (g *Game) Notation() string {
	var builder strings.Builder

	for i := range Size * Size {
		if i > 0 {
			builder.WriteByte('/')
		}

		at := CoordOf(i)
		board := &g.boards[at.Row][at.Col]

		empty := 0
		for row := range Size {
			for col := range Size {
				mark := board.cells[row][col]
				if mark == Empty {
					empty++
					continue
				}

				if empty > 0 {
					builder.WriteString(strconv.Itoa(empty))
					empty = 0
				}
				builder.WriteString(strings.ToLower(mark.String()))
			}
		}

		if empty > 0 {
			builder.WriteString(strconv.Itoa(empty))
		}
	}

	builder.WriteByte(' ')
	if g.turn.IsPlayer() {
		builder.WriteString(strings.ToLower(g.turn.String()))
	} else {
		builder.WriteByte('-')
	}

	builder.WriteByte(' ')
	if g.constrained {
		builder.WriteString(strconv.Itoa(g.active.Index()))
	} else {
		builder.WriteByte('-')
	}

	return builder.String()
}

// ParseNotation - rebuilds a game from its notation. Sub-board and game
// outcomes are derived from the cells, never read from the input.
func ParseNotation(notation string) (*Game, error) {
	sections := strings.Fields(notation)
	if len(sections) != 3 {
		return nil, fmt.Errorf("%w: expected 3 sections, got %d", ErrInvalidNotation, len(sections))
	}

	boards := strings.Split(sections[0], "/")
	if len(boards) != Size*Size {
		return nil, fmt.Errorf("%w: expected %d sub-boards, got %d", ErrInvalidNotation, Size*Size, len(boards))
	}

	game := &Game{}
	counts := map[Mark]int{}

	for i, text := range boards {
		at := CoordOf(i)
		board := &game.boards[at.Row][at.Col]

		if err := parseSubBoard(board, text, counts); err != nil {
			return nil, fmt.Errorf("%w: sub-board %d: %w", ErrInvalidNotation, i, err)
		}

		if !settledOnce(&board.cells, cellMark) {
			return nil, fmt.Errorf("%w: sub-board %d: play went on after it was won", ErrInvalidNotation, i)
		}

		board.evaluate()
	}

	if !settledOnce(&game.boards, subBoardMark) {
		return nil, fmt.Errorf("%w: play went on after the game was won", ErrInvalidNotation)
	}

	game.evaluate()

	if err := game.parseTurn(sections[1], counts); err != nil {
		return nil, err
	}

	if err := game.parseActive(sections[2]); err != nil {
		return nil, err
	}

	return game, nil
}

func parseSubBoard(board *SubBoard, text string, counts map[Mark]int) error {
	pos := 0
	for _, char := range text {
		if pos >= Size*Size {
			return errors.New("too many cells")
		}

		switch {
		case char >= '1' && char <= '9':
			pos += int(char - '0')
		case char == 'x' || char == 'X':
			board.cells[pos/Size][pos%Size] = X
			counts[X]++
			pos++
		case char == 'o' || char == 'O':
			board.cells[pos/Size][pos%Size] = O
			counts[O]++
			pos++
		default:
			return fmt.Errorf("unexpected character %q", char)
		}
	}

	if pos != Size*Size {
		return fmt.Errorf("expected %d cells, got %d", Size*Size, pos)
	}

	return nil
}

func (g *Game) parseTurn(text string, counts map[Mark]int) error {
	if text == "-" {
		if !g.outcome.IsTerminal() {
			return fmt.Errorf("%w: no turn in a game in progress", ErrInvalidNotation)
		}
		return nil
	}

	if g.outcome.IsTerminal() {
		return fmt.Errorf("%w: turn %q after the game is over", ErrInvalidNotation, text)
	}

	var turn Mark
	if err := turn.UnmarshalText([]byte(text)); err != nil || !turn.IsPlayer() {
		return fmt.Errorf("%w: turn %q", ErrInvalidNotation, text)
	}

	// X moves first, so the mark to move is decided by the number of marks placed.
	expected := X
	if counts[X] > counts[O] {
		expected = O
	}

	if diff := counts[X] - counts[O]; diff < 0 || diff > 1 || turn != expected {
		return fmt.Errorf("%w: %d X and %d O marks with %s to move", ErrInvalidNotation, counts[X], counts[O], turn)
	}

	g.turn = turn

	return nil
}

func (g *Game) parseActive(text string) error {
	if text == "-" {
		return nil
	}

	if g.outcome.IsTerminal() {
		return fmt.Errorf("%w: active sub-board after the game is over", ErrInvalidNotation)
	}

	index, err := strconv.Atoi(text)
	if err != nil || index < 0 || index >= Size*Size {
		return fmt.Errorf("%w: active sub-board %q", ErrInvalidNotation, text)
	}

	at := CoordOf(index)
	if g.boards[at.Row][at.Col].outcome.IsTerminal() {
		return fmt.Errorf("%w: active sub-board %d is resolved", ErrInvalidNotation, index)
	}

	g.active, g.constrained = at, true

	return nil
}

func (g *Game) MarshalText() ([]byte, error) {
	return []byte(g.Notation()), nil
}

func (g *Game) UnmarshalText(text []byte) error {
	parsed, err := ParseNotation(string(text))
	if err != nil {
		return err
	}

	*g = *parsed

	return nil
}
