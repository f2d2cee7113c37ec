package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/super-tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/autoplay"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/entity"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/pkg"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/repository"
	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingPublicGame(ctx context.Context) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type botDriver interface {
	Schedule(ctx context.Context, board autoplay.Board, apply autoplay.ApplyFunc) (*autoplay.Task, bool)
}

// TurnListener is told about moves nobody asked for over the wire, i.e. bot moves.
type TurnListener func(ctx context.Context, game *entity.Game)

// GameManager - the single writer of every match. Moves of one match are
// serialized, so the board is never read and written at the same time.
type GameManager struct {
	logger     *slog.Logger
	playerRepo playerRepo
	gameRepo   gameRepo
	bot        botDriver

	locks *matchLocks

	listenerMutex sync.RWMutex
	listener      TurnListener
}

func NewGameManager(logger *slog.Logger, playerRepo playerRepo, gameRepo gameRepo, bot botDriver) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		playerRepo: playerRepo,
		gameRepo:   gameRepo,
		bot:        bot,

		locks: newMatchLocks(),
	}
}

func (that *GameManager) OnBotTurn(listener TurnListener) {
	that.listenerMutex.Lock()
	defer that.listenerMutex.Unlock()

	that.listener = listener
}

// MakeTurn - plays move for the player's mark in the player's game.
func (that *GameManager) MakeTurn(ctx context.Context, playerID string, move sttt.Move) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrNotInGame
	}

	unlock := that.locks.lock(player.GameID)
	defer unlock()

	game, err := that.getGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed get game by id: %w", err)
	}

	if err = game.MakeTurn(player.Mark, move); err != nil {
		return game, fmt.Errorf("failed make turn: %w", err)
	}

	if err = that.afterTurn(ctx, game); err != nil {
		return nil, err
	}

	return game, nil
}

// BotTurn - plays a move scheduled for the bot. The move is dropped when the
// game moved on since it was scheduled.
func (that *GameManager) BotTurn(ctx context.Context, gameID string, mark sttt.Mark, move sttt.Move) (*entity.Game, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed get game by id: %w", err)
	}

	bot := game.BotPlayer()
	if bot == nil || bot.Mark != mark.String() {
		return nil, fmt.Errorf("%w: no bot playing %s in game %s", apperror.ErrNotYourTurn, mark, gameID)
	}

	if err = game.MakeTurn(bot.Mark, move); err != nil {
		return game, fmt.Errorf("bot failed to make turn: %w", err)
	}

	if err = that.afterTurn(ctx, game); err != nil {
		return nil, err
	}

	return game, nil
}

// afterTurn stores the game and hands the turn to the bot when it is its move.
func (that *GameManager) afterTurn(ctx context.Context, game *entity.Game) error {
	if err := that.updateGame(ctx, game); err != nil {
		return fmt.Errorf("failed update game: %w", err)
	}

	if game.IsFinished() {
		that.releasePlayers(ctx, game)
		return nil
	}

	that.scheduleBot(ctx, game)

	return nil
}

func (that *GameManager) scheduleBot(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "scheduleBot", "gameID", game.ID)

	bot := game.BotPlayer()
	if bot == nil || !game.IsOngoing() || game.Turn() != bot.Mark {
		return
	}

	gameID := game.ID
	_, ok := that.bot.Schedule(ctx, game.Board, func(ctx context.Context, mark sttt.Mark, move sttt.Move) {
		updated, err := that.BotTurn(ctx, gameID, mark, move)
		if err != nil {
			log.Error("bot turn failed", "error", err)
			return
		}

		that.listenerMutex.RLock()
		listener := that.listener
		that.listenerMutex.RUnlock()

		if listener != nil {
			listener(ctx, updated)
		}
	})

	if !ok {
		log.Warn("bot turn was not scheduled")
	}
}

func (that *GameManager) GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error) {
	if err := entity.ValidateGameType(gameType); err != nil {
		return nil, err
	}

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if player.GameID != "" {
		existingGame, err := that.getGameByID(ctx, player.GameID)
		if err == nil {
			return existingGame, nil
		}

		if !errors.Is(err, repository.ErrGameNotFound) {
			return nil, fmt.Errorf("failed get game: %w", err)
		}
	}

	game, err := that.createGame(ctx, player, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed create game: %w", err)
	}

	return game, nil
}

// JoinWaitingPublicGame - seats the player in a public game waiting for an
// opponent, or opens a new one.
func (that *GameManager) JoinWaitingPublicGame(ctx context.Context, playerID string) (*entity.Game, error) {
	waiting, err := that.gameRepo.GetWaitingPublicGame(ctx)
	if errors.Is(err, repository.ErrNoWaitingPublicGame) {
		return that.GetOrCreateGame(ctx, playerID, entity.PublicType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed get waiting public game: %w", err)
	}

	if len(waiting.Players) > 0 && waiting.Players[0].ID == playerID {
		return waiting, nil
	}

	return that.JoinGameByID(ctx, waiting.ID, playerID)
}

func (that *GameManager) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	existingGame, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed get game by id: %w", err)
	}

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if player.GameID == existingGame.ID {
		return existingGame, nil
	}

	if len(existingGame.Players) >= 2 || !existingGame.IsWaiting() {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameIsFull, gameID)
	}

	player.GameID = existingGame.ID
	player.Mark = entity.PlayerO
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed update player by id: %w", err)
	}

	existingGame.Status = entity.StatusOngoing
	existingGame.Players = append(existingGame.Players, player)
	if err = that.updateGame(ctx, existingGame); err != nil {
		return nil, fmt.Errorf("failed update game by id: %w", err)
	}

	return existingGame, nil
}

func (that *GameManager) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrNotInGame
	}

	game, err := that.getGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed get game: %w", err)
	}

	return game, nil
}

func (that *GameManager) GetGameByID(ctx context.Context, gameID string) (*entity.Game, error) {
	return that.getGameByID(ctx, gameID)
}

// EndGame - removes the game and frees its players, e.g. when one of them leaves.
func (that *GameManager) EndGame(ctx context.Context, game *entity.Game) error {
	log := that.logger.With("method", "EndGame", "gameID", game.ID)

	unlock := that.locks.lock(game.ID)
	defer unlock()

	if err := that.gameRepo.DeleteByID(ctx, game.ID); err != nil && !errors.Is(err, repository.ErrGameNotFound) {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.releasePlayers(ctx, game)

	log.Info("game ended")

	return nil
}

func (that *GameManager) createGame(ctx context.Context, player *entity.Player, gameType string) (*entity.Game, error) {
	gameID, err := pkg.GenerateGameID()
	if err != nil {
		return nil, fmt.Errorf("error generating game ID: %w", err)
	}

	game := entity.NewGame(gameID, gameType)

	player.GameID = gameID
	player.Mark = entity.PlayerX
	game.Players = []*entity.Player{player}

	if game.IsWithBot() {
		var botMark string
		player.Mark, botMark = game.GetRandomMarks()
		game.Players = append(game.Players, entity.NewBotPlayer(gameID, botMark))
		game.Status = entity.StatusOngoing
	}

	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed update player: %w", err)
	}

	unlock := that.locks.lock(gameID)
	defer unlock()

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	// the bot may have drawn X
	that.scheduleBot(ctx, game)

	return game, nil
}

// releasePlayers clears the seat of every human player of the game.
func (that *GameManager) releasePlayers(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "releasePlayers", "gameID", game.ID)

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		stored, err := that.playerRepo.GetByID(ctx, player.ID)
		if err != nil {
			log.Error("failed to get player", "playerID", player.ID, "error", err)
			continue
		}

		if stored.GameID != game.ID {
			continue
		}

		stored.Mark = ""
		stored.GameID = ""
		if err = that.playerRepo.CreateOrUpdate(ctx, stored); err != nil {
			log.Error("failed to update player", "playerID", player.ID, "error", err)
		}
	}
}

func (that *GameManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		player, err := that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player %w", err)
		}

		return player, nil
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		// an unknown id coming from an old session cookie
		player = &entity.Player{ID: id}
		if err = that.updatePlayer(ctx, player); err != nil {
			return nil, err
		}

		return player, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by id %w", err)
	}

	return player, nil
}

func (that *GameManager) createPlayer(ctx context.Context) (*entity.Player, error) {
	player := &entity.Player{
		ID: pkg.GenerateNewSessionID(),
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return existingGame, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

func (that *GameManager) getPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (that *GameManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}
