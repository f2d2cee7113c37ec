package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/super-tictactoe-backend/internal/entity"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/repository"
)

type GameHandler interface {
	GetGame(w http.ResponseWriter, r *http.Request)
}

type gameHandler struct {
	logger *slog.Logger
	games  gameGetter
}

func NewGameHandler(logger *slog.Logger, games gameGetter) GameHandler {
	return &gameHandler{
		logger: logger.With("component", "rest", "handler", "game"),
		games:  games,
	}
}

// GetGame - returns the board view of a game.
func (that *gameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetGame")

	gameID := r.PathValue("id")

	game, err := that.games.GetGameByID(r.Context(), gameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get game", "gameID", gameID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(entity.NewGameView(game)); err != nil {
		log.Error("failed to write game", "gameID", gameID, "error", err)
	}
}
