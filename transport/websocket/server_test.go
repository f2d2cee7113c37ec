package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/super-tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/super-tictactoe-backend/internal/entity"
	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

type mockGameUseCase struct {
	mock.Mock
}

func (m *mockGameUseCase) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	args := m.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)

	return player, args.Error(1)
}

func (m *mockGameUseCase) GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error) {
	args := m.Called(ctx, playerID, gameType)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (m *mockGameUseCase) JoinWaitingPublicGame(ctx context.Context, playerID string) (*entity.Game, error) {
	args := m.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (m *mockGameUseCase) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	args := m.Called(ctx, gameID, playerID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (m *mockGameUseCase) MakeTurn(ctx context.Context, playerID string, move sttt.Move) (*entity.Game, error) {
	args := m.Called(ctx, playerID, move)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (m *mockGameUseCase) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	args := m.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (m *mockGameUseCase) EndGame(ctx context.Context, game *entity.Game) error {
	return m.Called(ctx, game).Error(0)
}

func startServer(t *testing.T, useCase gameUseCase) (*Server, *websocket.Conn) {
	t.Helper()

	server, url := listen(t, useCase)

	return server, dial(t, url)
}

func listen(t *testing.T, useCase gameUseCase) (*Server, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), useCase, time.Minute)

	httpServer := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(httpServer.Close)

	return server, "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	})

	return conn
}

// connect introduces the player on conn and drains the reply.
func connect(t *testing.T, conn *websocket.Conn, playerID string) {
	t.Helper()

	send(t, conn, actionConnect, Payload{Player: &entity.Player{ID: playerID}})

	action, payload := receive(t, conn)
	require.Equal(t, actionConnect, action)
	require.Empty(t, payload.Error)
}

// twoPlayerGame is an ongoing private game between p1 (X) and p2 (O).
func twoPlayerGame() *entity.Game {
	game := entity.NewGame("12345678", entity.PrivateType)
	game.Status = entity.StatusOngoing
	game.Players = []*entity.Player{
		{ID: "p1", Mark: entity.PlayerX, GameID: game.ID},
		{ID: "p2", Mark: entity.PlayerO, GameID: game.ID},
	}

	return game
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: data}))
}

func receive(t *testing.T, conn *websocket.Conn) (string, Payload) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	var payload Payload
	require.NoError(t, json.Unmarshal(message.Payload, &payload))

	return message.Action, payload
}

func TestServer_Connect(t *testing.T) {
	// Given: a server that knows nothing about the player
	useCase := &mockGameUseCase{}
	useCase.On("GetOrCreatePlayer", mock.Anything, "").Return(&entity.Player{ID: "p1"}, nil).Once()

	_, conn := startServer(t, useCase)

	// When: the client connects without an id
	send(t, conn, actionConnect, Payload{Player: &entity.Player{}})

	// Then: it gets its new player id back
	action, payload := receive(t, conn)
	assert.Equal(t, actionConnect, action)
	require.NotNil(t, payload.Player)
	assert.Equal(t, "p1", payload.Player.ID)
	assert.Empty(t, payload.Error)
	useCase.AssertExpectations(t)
}

func TestServer_UnknownAction(t *testing.T) {
	// Given: a running server
	_, conn := startServer(t, &mockGameUseCase{})

	// When: the client sends an action nobody handles
	send(t, conn, "game:undo", Payload{})

	// Then: it is told so and the connection stays usable
	action, payload := receive(t, conn)
	assert.Equal(t, "game:undo", action)
	assert.Equal(t, "unknown action", payload.Error)
}

func TestServer_GameTurn(t *testing.T) {
	move := sttt.Move{MetaRow: 1, MetaCol: 1, Row: 0, Col: 2}

	t.Run("Pushes the new board to the player", func(t *testing.T) {
		// Given: an ongoing game where the move is legal
		game := entity.NewGame("12345678", entity.PrivateType)
		game.Status = entity.StatusOngoing
		game.Players = []*entity.Player{{ID: "p1", Mark: entity.PlayerX, GameID: game.ID}}
		require.NoError(t, game.MakeTurn(entity.PlayerX, move))

		useCase := &mockGameUseCase{}
		useCase.On("MakeTurn", mock.Anything, "p1", move).Return(game, nil).Once()

		_, conn := startServer(t, useCase)

		// When: the player moves
		send(t, conn, actionGameTurn, Payload{Player: &entity.Player{ID: "p1"}, Move: &move})

		// Then: the board view shows the mark and sends O to sub-board (0,2)
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameTurn, action)
		require.NotNil(t, payload.Game)
		require.NotNil(t, payload.Game.Board)
		assert.Equal(t, "X", payload.Game.Board.Cells[3][5])
		assert.Equal(t, entity.PlayerO, payload.Game.Turn)
		require.NotNil(t, payload.Game.Board.Active)
		assert.Equal(t, sttt.Coord{Row: 0, Col: 2}, *payload.Game.Board.Active)
		useCase.AssertExpectations(t)
	})

	t.Run("Reports illegal moves to the mover only", func(t *testing.T) {
		// Given: a use case refusing the move
		useCase := &mockGameUseCase{}
		useCase.On("MakeTurn", mock.Anything, "p1", move).
			Return(nil, fmt.Errorf("failed make turn: %w", fmt.Errorf("%w: %s", apperror.ErrIllegalMove, move))).Once()

		_, conn := startServer(t, useCase)

		// When: the player moves
		send(t, conn, actionGameTurn, Payload{Player: &entity.Player{ID: "p1"}, Move: &move})

		// Then: the reason comes back as an error
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameTurn, action)
		assert.Equal(t, apperror.ErrIllegalMove.Error(), payload.Error)
		assert.Nil(t, payload.Game)
	})

	t.Run("Requires a move", func(t *testing.T) {
		// Given: a running server
		_, conn := startServer(t, &mockGameUseCase{})

		// When: the move is missing
		send(t, conn, actionGameTurn, Payload{Player: &entity.Player{ID: "p1"}})

		// Then: the request is refused
		_, payload := receive(t, conn)
		assert.Equal(t, "Move is required", payload.Error)
	})
}

func TestServer_GameNew(t *testing.T) {
	t.Run("Public game goes through the waiting queue", func(t *testing.T) {
		// Given: no public game is waiting
		game := entity.NewGame("12345678", entity.PublicType)
		game.Players = []*entity.Player{{ID: "p1", Mark: entity.PlayerX, GameID: game.ID}}

		useCase := &mockGameUseCase{}
		useCase.On("JoinWaitingPublicGame", mock.Anything, "p1").Return(game, nil).Once()

		_, conn := startServer(t, useCase)

		// When: the player asks for a public game
		send(t, conn, actionGameNew, Payload{
			Player: &entity.Player{ID: "p1"},
			Game:   &entity.GameView{Type: entity.PublicType},
		})

		// Then: it waits in a fresh public game as X
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameNew, action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, "12345678", payload.Game.ID)
		assert.Equal(t, entity.StatusWaiting, payload.Game.Status)
		require.NotNil(t, payload.Player)
		assert.Equal(t, entity.PlayerX, payload.Player.Mark)
		useCase.AssertExpectations(t)
	})

	t.Run("Bot game starts right away", func(t *testing.T) {
		// Given: the use case pairs the player with a bot
		game := entity.NewGame("12345678", entity.WithBotType)
		game.Status = entity.StatusOngoing
		game.Players = []*entity.Player{
			{ID: "p1", Mark: entity.PlayerX, GameID: game.ID},
			entity.NewBotPlayer(game.ID, entity.PlayerO),
		}

		useCase := &mockGameUseCase{}
		useCase.On("GetOrCreateGame", mock.Anything, "p1", entity.WithBotType).Return(game, nil).Once()

		_, conn := startServer(t, useCase)

		// When: the player asks for a bot game
		send(t, conn, actionGameNew, Payload{
			Player: &entity.Player{ID: "p1"},
			Game:   &entity.GameView{Type: entity.WithBotType},
		})

		// Then: the game is ongoing and X is to move
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameNew, action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, entity.WithBotType, payload.Game.Type)
		assert.Equal(t, entity.StatusOngoing, payload.Game.Status)
		assert.Equal(t, entity.PlayerX, payload.Game.Turn)
		useCase.AssertExpectations(t)
	})

	t.Run("Unknown game type is refused", func(t *testing.T) {
		// Given: the use case rejects the type
		useCase := &mockGameUseCase{}
		useCase.On("GetOrCreateGame", mock.Anything, "p1", "ranked").
			Return(nil, fmt.Errorf("%w: %q", entity.ErrUnknownGameType, "ranked")).Once()

		_, conn := startServer(t, useCase)

		// When: the player asks for it
		send(t, conn, actionGameNew, Payload{
			Player: &entity.Player{ID: "p1"},
			Game:   &entity.GameView{Type: "ranked"},
		})

		// Then: the reason comes back as an error
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameNew, action)
		assert.Equal(t, `unknown game type: "ranked"`, payload.Error)
		assert.Nil(t, payload.Game)
	})
}

func TestServer_GameJoin(t *testing.T) {
	t.Run("Both players get the started game", func(t *testing.T) {
		// Given: p1 is connected and waits in a private game
		game := twoPlayerGame()

		useCase := &mockGameUseCase{}
		useCase.On("GetOrCreatePlayer", mock.Anything, "p1").Return(&entity.Player{ID: "p1"}, nil).Once()
		useCase.On("JoinGameByID", mock.Anything, game.ID, "p2").Return(game, nil).Once()

		_, url := listen(t, useCase)
		creator, joiner := dial(t, url), dial(t, url)
		connect(t, creator, "p1")

		// When: p2 joins by id
		send(t, joiner, actionGameJoin, Payload{
			Player: &entity.Player{ID: "p2"},
			Game:   &entity.GameView{ID: game.ID},
		})

		// Then: each side sees the ongoing game with its own mark
		for conn, mark := range map[*websocket.Conn]string{creator: entity.PlayerX, joiner: entity.PlayerO} {
			action, payload := receive(t, conn)
			assert.Equal(t, actionGameJoin, action)
			require.NotNil(t, payload.Game)
			assert.Equal(t, entity.StatusOngoing, payload.Game.Status)
			require.NotNil(t, payload.Player)
			assert.Equal(t, mark, payload.Player.Mark)
		}
		useCase.AssertExpectations(t)
	})

	t.Run("Full game is refused", func(t *testing.T) {
		// Given: the game already has two players
		useCase := &mockGameUseCase{}
		useCase.On("JoinGameByID", mock.Anything, "12345678", "p3").
			Return(nil, fmt.Errorf("%w: game id %s", apperror.ErrGameIsFull, "12345678")).Once()

		_, conn := startServer(t, useCase)

		// When: a third player tries to join
		send(t, conn, actionGameJoin, Payload{
			Player: &entity.Player{ID: "p3"},
			Game:   &entity.GameView{ID: "12345678"},
		})

		// Then: it is told the game is full
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameJoin, action)
		assert.Equal(t, "game 12345678: game already has two players", payload.Error)
		assert.Nil(t, payload.Game)
	})
}

func TestServer_GameLeave(t *testing.T) {
	// Given: two connected players in the same game
	game := twoPlayerGame()

	useCase := &mockGameUseCase{}
	useCase.On("GetOrCreatePlayer", mock.Anything, "p1").Return(&entity.Player{ID: "p1"}, nil).Once()
	useCase.On("GetGameByPlayerID", mock.Anything, "p2").Return(game, nil).Once()
	useCase.On("EndGame", mock.Anything, game).Return(nil).Once()

	_, url := listen(t, useCase)
	stayer, leaver := dial(t, url), dial(t, url)
	connect(t, stayer, "p1")

	// When: p2 leaves
	send(t, leaver, actionGameLeave, Payload{Player: &entity.Player{ID: "p2"}})

	// Then: both are told the game ended with status leave
	for _, conn := range []*websocket.Conn{stayer, leaver} {
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameLeave, action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, gameStatusLeave, payload.Game.Status)
	}
	useCase.AssertExpectations(t)
}

func TestServer_HandleOpponentOut(t *testing.T) {
	t.Run("Opponent is told the game is over", func(t *testing.T) {
		// Given: p2 is connected and p1 has been gone too long
		game := twoPlayerGame()

		useCase := &mockGameUseCase{}
		useCase.On("GetOrCreatePlayer", mock.Anything, "p2").Return(&entity.Player{ID: "p2"}, nil).Once()
		useCase.On("GetGameByPlayerID", mock.Anything, "p1").Return(game, nil).Once()
		useCase.On("EndGame", mock.Anything, game).Return(nil).Once()

		server, conn := startServer(t, useCase)
		connect(t, conn, "p2")

		// When: p1 loses the seat
		server.handleOpponentOut(context.Background(), "p1")

		// Then: p2 gets game:leave with status opponent_out
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameLeave, action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, gameStatusOpponentOut, payload.Game.Status)
		assert.Equal(t, game.ID, payload.Game.ID)
		useCase.AssertExpectations(t)
	})

	t.Run("Player without a game is ignored", func(t *testing.T) {
		// Given: the player is in no game
		useCase := &mockGameUseCase{}
		useCase.On("GetGameByPlayerID", mock.Anything, "p1").
			Return(nil, fmt.Errorf("failed to get game: %w", apperror.ErrNotInGame)).Once()

		server := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), useCase, time.Minute)

		// When: the player loses the seat
		server.handleOpponentOut(context.Background(), "p1")

		// Then: no game is ended
		useCase.AssertExpectations(t)
		useCase.AssertNotCalled(t, "EndGame", mock.Anything, mock.Anything)
	})
}

func TestServer_NotifyBotTurn(t *testing.T) {
	// Given: a connected player in a bot game
	useCase := &mockGameUseCase{}
	useCase.On("GetOrCreatePlayer", mock.Anything, "p1").Return(&entity.Player{ID: "p1"}, nil).Once()

	server, conn := startServer(t, useCase)
	connect(t, conn, "p1")

	game := entity.NewGame("12345678", entity.WithBotType)
	game.Status = entity.StatusOngoing
	game.Players = []*entity.Player{
		{ID: "p1", Mark: entity.PlayerO, GameID: game.ID},
		entity.NewBotPlayer(game.ID, entity.PlayerX),
	}
	require.NoError(t, game.MakeTurn(entity.PlayerX, sttt.Move{}))

	// When: the bot moves
	server.NotifyBotTurn(context.Background(), game)

	// Then: the player sees it as a turn
	action, payload := receive(t, conn)
	assert.Equal(t, actionGameTurn, action)
	require.NotNil(t, payload.Game)
	assert.Equal(t, "X", payload.Game.Board.Cells[0][0])
	assert.Equal(t, entity.PlayerO, payload.Game.Turn)
}

func TestServer_ExpiredPlayers(t *testing.T) {
	// Given: two players who dropped at different times
	server := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), &mockGameUseCase{}, time.Minute)

	now := time.Now()
	server.disconnectedPlayers["gone"] = now.Add(-2 * time.Minute)
	server.disconnectedPlayers["back-soon"] = now.Add(-10 * time.Second)

	// When: checking who is out
	expired := server.expiredPlayers(now)

	// Then: only the first one lost the seat
	assert.Equal(t, []string{"gone"}, expired)
	assert.Contains(t, server.disconnectedPlayers, "back-soon")
	assert.NotContains(t, server.disconnectedPlayers, "gone")
}
