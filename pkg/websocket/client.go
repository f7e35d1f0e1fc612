package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vipauto/pkg/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Команды несут формы заказ-нарядов и клиентов, 512 байт не хватает.
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// MessageHandler получает команды, пришедшие по соединению. Вызывается из
// ReadPump последовательно, поэтому команды одного соединения не переупорядочиваются.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg Inbound)
}

// Client - одно WebSocket-соединение сотрудника.
type Client struct {
	ID       string
	Identity types.Identity

	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, identity types.Identity, logger *zap.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		ID:       id,
		Identity: identity,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		logger:   logger.With(zap.String("login", identity.Login), zap.String("conn_id", id)),
	}
}

// ReadPump читает команды до разрыва соединения или отмены ctx.
// После выхода клиент снят с регистрации и соединение закрыто.
func (c *Client) ReadPump(ctx context.Context, handler MessageHandler) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("соединение закрыто с ошибкой", zap.Error(err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			c.logger.Warn("некорректное сообщение от клиента", zap.Error(err))
			continue
		}
		handler.HandleMessage(ctx, c, msg)
	}
}

// WritePump пишет исходящие сообщения и пинги. Завершается, когда хаб закрывает канал send.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
