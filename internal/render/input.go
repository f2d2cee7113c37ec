package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

var ErrInvalidInput = errors.New("invalid move input")

// ParseMove - reads "metaRow metaCol row col", separated by spaces or commas.
// Range checks are left to the game, which rejects moves off the board.
func ParseMove(input string) (sttt.Move, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})

	if len(fields) != 4 {
		return sttt.Move{}, fmt.Errorf("%w: expected 4 numbers, got %d", ErrInvalidInput, len(fields))
	}

	var coords [4]int
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			return sttt.Move{}, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, field)
		}
		coords[i] = n
	}

	return sttt.Move{MetaRow: coords[0], MetaCol: coords[1], Row: coords[2], Col: coords[3]}, nil
}
