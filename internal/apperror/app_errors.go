package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrNotInGame        = errors.New("player is not in a game")
	ErrIllegalMove      = errors.New("illegal move")
	ErrGameIsFull       = errors.New("game already has two players")
)
