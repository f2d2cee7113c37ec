package supertictactoe

// Status - the state of a board, either a sub-board or the whole game.
type Status uint8

const (
	InProgress Status = iota
	Win
	Draw
)

func (s Status) String() string {
	switch s {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Outcome - result of a board. Winner is set only when Status is Win.
// A terminal outcome never changes again.
type Outcome struct {
	Status Status
	Winner Mark
}

func WinFor(mark Mark) Outcome {
	return Outcome{Status: Win, Winner: mark}
}

func (o Outcome) IsTerminal() bool {
	return o.Status != InProgress
}

// WonBy reports the winning mark, if any.
func (o Outcome) WonBy() (Mark, bool) {
	return o.Winner, o.Status == Win
}

func (o Outcome) String() string {
	switch o.Status {
	case Win:
		return o.Winner.String() + " wins"
	case Draw:
		return "draw"
	default:
		return "in progress"
	}
}
