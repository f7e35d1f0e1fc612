package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"vipauto/pkg/metrics"
	"vipauto/pkg/types"
)

// Hub - реестр соединений: логин -> множество соединений этого сотрудника.
// Карты меняются только в горутине Run, отправка идёт под RLock, поэтому
// закрытый канал send никогда не получает сообщений.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan registration
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

type registration struct {
	client *Client
	ack    chan struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan registration),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает регистрацию до отмены ctx. При остановке закрывает все соединения.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for login, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, login)
			}
			h.mu.Unlock()
			metrics.WebsocketConnections.Set(0)
			return
		case r := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[r.client.Identity.Login]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[r.client.Identity.Login] = set
			}
			set[r.client] = struct{}{}
			h.mu.Unlock()
			metrics.WebsocketConnections.Inc()
			h.logger.Info("клиент зарегистрирован", zap.String("login", r.client.Identity.Login), zap.String("conn_id", r.client.ID))
			close(r.ack)
		case c := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[c.Identity.Login]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.send)
					metrics.WebsocketConnections.Dec()
					h.logger.Info("клиент отсоединён", zap.String("login", c.Identity.Login), zap.String("conn_id", c.ID))
				}
				if len(set) == 0 {
					delete(h.clients, c.Identity.Login)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register добавляет соединение и ждёт, пока хаб его учтёт.
// Возвращает false, если хаб уже остановлен.
func (h *Hub) Register(c *Client) bool {
	r := registration{client: c, ack: make(chan struct{})}
	select {
	case h.register <- r:
	case <-h.done:
		return false
	}
	select {
	case <-r.ack:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Identities возвращает по одной личности на каждый подключённый логин.
func (h *Hub) Identities() []types.Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]types.Identity, 0, len(h.clients))
	for _, set := range h.clients {
		for c := range set {
			out = append(out, c.Identity)
			break
		}
	}
	return out
}

// ConnectionCount - число открытых соединений.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// SendToUser отправляет готовое сообщение во все соединения логина и
// возвращает число соединений, принявших его.
func (h *Hub) SendToUser(login string, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[login] {
		if h.trySend(c, message) {
			delivered++
		}
	}
	return delivered
}

// SendToClient отправляет сообщение одному соединению, если оно ещё зарегистрировано.
func (h *Hub) SendToClient(c *Client, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c.Identity.Login][c]; !ok {
		return false
	}
	return h.trySend(c, message)
}

// trySend не блокируется: соединение с переполненным буфером считается
// зависшим и снимается с регистрации. Вызывается под RLock.
func (h *Hub) trySend(c *Client, message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		h.logger.Warn("буфер соединения переполнен, отключаем", zap.String("login", c.Identity.Login), zap.String("conn_id", c.ID))
		go h.Unregister(c)
		return false
	}
}
