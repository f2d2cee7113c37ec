package entity

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rocketscienceinc/super-tictactoe-backend/internal/apperror"
	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"
)

const (
	PublicType  = "public"
	PrivateType = "private"
	WithBotType = "bot"
)

var (
	ErrUnknownGameStatus = errors.New("unknown game status")
	ErrUnknownGameType   = errors.New("unknown game type")
)

// Game - a match between two players. Board holds the rules state and is
// stored in its notation form.
type Game struct {
	ID      string     `json:"id"`
	Board   *sttt.Game `json:"board"`
	Winner  string     `json:"winner"`
	Status  string     `json:"status"`
	Players []*Player  `json:"players,omitempty"`
	Type    string     `json:"type,omitempty"`
}

func NewGame(id, gameType string) *Game {
	return &Game{
		ID:     id,
		Board:  sttt.New(),
		Status: StatusWaiting,
		Type:   gameType,
	}
}

func ValidateGameType(gameType string) error {
	switch gameType {
	case PublicType, PrivateType, WithBotType:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
	}
}

// Turn - mark of the player to move, empty once the game is over.
func (that *Game) Turn() string {
	return that.Board.CurrentTurn().String()
}

func (that *Game) UpdateGameState() {
	switch outcome := that.Board.Outcome(); outcome.Status {
	// one player wins
	case sttt.Win:
		that.Winner = outcome.Winner.String()
		that.Status = StatusFinished
	// tie
	case sttt.Draw:
		that.Winner = PlayerTie
		that.Status = StatusFinished
	// game continue
	default:
		that.Status = StatusOngoing
	}
}

// MakeTurn - plays move for playerMark. The board is left untouched on error.
func (that *Game) MakeTurn(playerMark string, move sttt.Move) error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	if that.Turn() != playerMark {
		return apperror.ErrNotYourTurn
	}

	if !that.Board.PlayMove(move) {
		return fmt.Errorf("%w: %s", apperror.ErrIllegalMove, move)
	}

	that.UpdateGameState()

	return nil
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsPublic() bool {
	return that.Type == PublicType
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

// BotPlayer returns nil when the game has no bot.
func (that *Game) BotPlayer() *Player {
	for _, player := range that.Players {
		if player.IsBot() {
			return player
		}
	}

	return nil
}

func (that *Game) GetRandomMarks() (string, string) {
	if rand.IntN(2) == 0 { //nolint: gosec // it's ok
		return PlayerX, PlayerO
	}
	return PlayerO, PlayerX
}
