package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/entity"
)

const waitingPublicGamesKey = "games:public:waiting"

var (
	ErrGameNotFound        = errors.New("game not found")
	ErrNoWaitingPublicGame = errors.New("no waiting public game")
)

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingPublicGame(ctx context.Context) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

// CreateOrUpdate - stores the game and keeps the set of public games waiting
// for an opponent in sync with it.
func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(game.ID), gameJSON, 0)

		if game.IsPublic() && game.IsWaiting() {
			pipe.SAdd(ctx, waitingPublicGamesKey, game.ID)
		} else {
			pipe.SRem(ctx, waitingPublicGamesKey, game.ID)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Game{}, ErrGameNotFound
	}

	if err != nil {
		return &entity.Game{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return &entity.Game{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func (that *dbGame) GetWaitingPublicGame(ctx context.Context) (*entity.Game, error) {
	id, err := that.client.SRandMember(ctx, waitingPublicGamesKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoWaitingPublicGame
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get waiting public game: %w", err)
	}

	game, err := that.GetByID(ctx, id)
	if errors.Is(err, ErrGameNotFound) {
		// stale entry, the game document is gone
		if err = that.client.SRem(ctx, waitingPublicGamesKey, id).Err(); err != nil {
			return nil, fmt.Errorf("failed to drop stale waiting game: %w", err)
		}

		return nil, ErrNoWaitingPublicGame
	}

	if err != nil {
		return nil, err
	}

	return game, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, gameKey(id))
		pipe.SRem(ctx, waitingPublicGamesKey, id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	if deleted.Val() == 0 {
		return ErrGameNotFound
	}

	return nil
}
