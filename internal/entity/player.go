package entity

// BotPlayerID - the id of the automated opponent in bot games. It is never stored.
const BotPlayerID = "bot"

type Player struct {
	ID     string `json:"id"`
	Mark   string `json:"mark,omitempty"`
	GameID string `json:"game_id,omitempty"`
}

func NewBotPlayer(gameID, mark string) *Player {
	return &Player{
		ID:     BotPlayerID,
		Mark:   mark,
		GameID: gameID,
	}
}

func (that *Player) IsBot() bool {
	return that.ID == BotPlayerID
}
