package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/super-tictactoe-backend/internal/autoplay"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/entity"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/repository"
)

type mockPlayerRepo struct {
	mock.Mock
}

func newMockPlayerRepo(t *testing.T) *mockPlayerRepo {
	m := &mockPlayerRepo{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *mockPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	return m.Called(ctx, player).Error(0)
}

func (m *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := m.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)

	return player, args.Error(1)
}

type mockGameRepo struct {
	mock.Mock
}

func newMockGameRepo(t *testing.T) *mockGameRepo {
	m := &mockGameRepo{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	return m.Called(ctx, game).Error(0)
}

func (m *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := m.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (m *mockGameRepo) GetWaitingPublicGame(ctx context.Context) (*entity.Game, error) {
	args := m.Called(ctx)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (m *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockBotDriver struct {
	mock.Mock
}

func newMockBotDriver(t *testing.T) *mockBotDriver {
	m := &mockBotDriver{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *mockBotDriver) Schedule(ctx context.Context, board autoplay.Board, apply autoplay.ApplyFunc) (*autoplay.Task, bool) {
	args := m.Called(ctx, board, apply)
	task, _ := args.Get(0).(*autoplay.Task)

	return task, args.Bool(1)
}

// memoryStore keeps players and games as JSON, the way Redis does, so callers
// never share pointers with it.
type memoryStore struct {
	mu      sync.Mutex
	players map[string][]byte
	games   map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		players: make(map[string][]byte),
		games:   make(map[string][]byte),
	}
}

type memoryPlayers struct{ *memoryStore }

type memoryGames struct{ *memoryStore }

func (that memoryPlayers) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.players[player.ID] = data

	return nil
}

func (that memoryPlayers) GetByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.Lock()
	data, ok := that.players[id]
	that.mu.Unlock()

	if !ok {
		return nil, repository.ErrPlayerNotFound
	}

	var player entity.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}

	return &player, nil
}

func (that memoryGames) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = data

	return nil
}

func (that memoryGames) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	data, ok := that.games[id]
	that.mu.Unlock()

	if !ok {
		return nil, repository.ErrGameNotFound
	}

	var game entity.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}

	return &game, nil
}

func (that memoryGames) GetWaitingPublicGame(ctx context.Context) (*entity.Game, error) {
	that.mu.Lock()
	ids := make([]string, 0, len(that.games))
	for id := range that.games {
		ids = append(ids, id)
	}
	that.mu.Unlock()

	for _, id := range ids {
		game, err := that.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if game.IsPublic() && game.IsWaiting() {
			return game, nil
		}
	}

	return nil, repository.ErrNoWaitingPublicGame
}

func (that memoryGames) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return repository.ErrGameNotFound
	}

	delete(that.games, id)

	return nil
}
