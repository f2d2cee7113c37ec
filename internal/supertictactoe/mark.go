package supertictactoe

import (
	"errors"
	"fmt"
)

var ErrInvalidMark = errors.New("invalid mark")

// Mark - the content of a single cell, and the player who owns the turn.
type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

// Next - returns the mark that moves after m. Empty is followed by X.
func (m Mark) Next() Mark {
	if m == X {
		return O
	}
	return X
}

func (m Mark) IsPlayer() bool {
	return m == X || m == O
}

func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mark) UnmarshalText(text []byte) error {
	switch string(text) {
	case "X", "x":
		*m = X
	case "O", "o":
		*m = O
	case "":
		*m = Empty
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMark, text)
	}

	return nil
}
