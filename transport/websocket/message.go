package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/super-tictactoe-backend/internal/entity"
	sttt "github.com/rocketscienceinc/super-tictactoe-backend/internal/supertictactoe"
)

const writeWait = 10 * time.Second

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player *entity.Player   `json:"player,omitempty"`
	Game   *entity.GameView `json:"game,omitempty"`
	Move   *sttt.Move       `json:"move,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// client - a connection shared by the reading loop and by pushes from other
// players' moves. Writes are serialized.
type client struct {
	conn *websocket.Conn

	writeMutex sync.Mutex
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn}
}

func (that *client) read(message *Message) error {
	return that.conn.ReadJSON(message)
}

func (that *client) send(action string, payload Payload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: payloadBytes}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *client) close() {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	_ = that.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	_ = that.conn.Close()
}
