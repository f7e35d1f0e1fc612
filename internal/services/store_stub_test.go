package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vipauto/internal/entities"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/utils"
	"vipauto/pkg/websocket"
)

// memStore - хранилище в памяти для тестов сервисов.
type memStore struct {
	mu            sync.Mutex
	users         []entities.User
	clients       map[string]*entities.Client
	orders        map[string]*entities.Order
	reports       []entities.WeeklyReport
	searchHistory []entities.SearchHistoryEntry
	snapshots     int
	failWith      error
}

func newMemStore() *memStore {
	return &memStore{
		clients: make(map[string]*entities.Client),
		orders:  make(map[string]*entities.Order),
	}
}

func (s *memStore) FindUserByLogin(_ context.Context, login string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Login == login {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.ErrInvalidCredentials
}

func (s *memStore) Snapshot(_ context.Context) (*entities.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots++
	if s.failWith != nil {
		return nil, s.failWith
	}
	snap := &entities.Snapshot{Users: append([]entities.User(nil), s.users...), Reports: append([]entities.WeeklyReport(nil), s.reports...)}
	for _, o := range s.sortedOrders() {
		snap.AllOrders = append(snap.AllOrders, o)
		if !o.WeekID.Valid {
			snap.OpenOrders = append(snap.OpenOrders, o)
		}
	}
	for _, c := range s.clients {
		snap.Clients = append(snap.Clients, *c)
	}
	return snap, nil
}

func (s *memStore) sortedOrders() []entities.Order {
	out := make([]entities.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) findByPhone(phone string) *entities.Client {
	for _, c := range s.clients {
		if c.Phone == phone {
			return c
		}
	}
	return nil
}

func (s *memStore) AddClient(_ context.Context, client *entities.Client) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	if s.findByPhone(client.Phone) != nil {
		return false, nil
	}
	c := *client
	s.clients[c.ID] = &c
	return true, nil
}

func (s *memStore) UpdateClient(_ context.Context, client *entities.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.clients[client.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if other := s.findByPhone(client.Phone); other != nil && other.ID != client.ID {
		return apperrors.ErrConflict
	}
	existing.Name, existing.Phone, existing.CarModel, existing.LicensePlate = client.Name, client.Phone, client.CarModel, client.LicensePlate
	return nil
}

func (s *memStore) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *memStore) ToggleFavoriteClient(_ context.Context, id string, favorite *bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if favorite != nil {
		c.Favorite = *favorite
	} else {
		c.Favorite = !c.Favorite
	}
	return c.Favorite, nil
}

func (s *memStore) SearchClients(_ context.Context, query string, limit uint64) ([]entities.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.Client, 0)
	for _, c := range s.clients {
		digits := utils.PhoneSearchDigits(query)
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) || strings.Contains(c.Phone, query) ||
			(digits != "" && strings.Contains(c.Phone, digits)) {
			out = append(out, *c)
		}
		if uint64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) AddOrderWithClient(_ context.Context, order *entities.Order, client *entities.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if client != nil {
		existing := s.findByPhone(client.Phone)
		if existing == nil {
			c := *client
			s.clients[c.ID] = &c
			existing = &c
		}
		order.ClientID.SetValid(existing.ID)
	}
	o := *order
	s.orders[o.ID] = &o
	return nil
}

func (s *memStore) FindOrder(_ context.Context, id string) (*entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) UpdateOrderWithClient(_ context.Context, order *entities.Order, client *entities.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.orders[order.ID]; !ok {
		return apperrors.ErrNotFound
	}
	if client != nil {
		existing := s.findByPhone(client.Phone)
		if existing == nil {
			c := *client
			s.clients[c.ID] = &c
			existing = &c
		}
		order.ClientID.SetValid(existing.ID)
	}
	o := *order
	s.orders[o.ID] = &o
	return nil
}

func (s *memStore) UpdateOrderStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	o.Status = status
	return nil
}

func (s *memStore) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *memStore) CloseWeek(_ context.Context, report *entities.WeeklyReport) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, o := range s.orders {
		if !o.WeekID.Valid {
			n++
		}
	}
	if n == 0 {
		return 0, apperrors.ErrNothingToDo
	}
	s.reports = append(s.reports, *report)
	for _, o := range s.orders {
		if !o.WeekID.Valid {
			o.WeekID.SetValid(report.WeekID)
		}
	}
	return n, nil
}

func (s *memStore) ClearData(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make(map[string]*entities.Order)
	s.reports = nil
	return nil
}

func (s *memStore) ClearHistory(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = nil
	return nil
}

func (s *memStore) FindWeek(_ context.Context, weekID string) (*entities.WeeklyReport, []entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.WeekID == weekID {
			r := r
			orders := make([]entities.Order, 0)
			for _, o := range s.sortedOrders() {
				if o.WeekID.String == weekID {
					orders = append(orders, o)
				}
			}
			return &r, orders, nil
		}
	}
	return nil, nil, apperrors.ErrNotFound
}

func (s *memStore) AddSearchQuery(_ context.Context, entry *entities.SearchHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchHistory = append(s.searchHistory, *entry)
	return nil
}

func (s *memStore) GetSearchHistory(_ context.Context, login string, limit uint64) ([]entities.SearchHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.SearchHistoryEntry, 0)
	for i := len(s.searchHistory) - 1; i >= 0 && uint64(len(out)) < limit; i-- {
		if s.searchHistory[i].UserLogin == login {
			out = append(out, s.searchHistory[i])
		}
	}
	return out, nil
}

func (s *memStore) Ping(_ context.Context) error { return nil }

// reply - сообщение, отправленное одному соединению.
type reply struct {
	client  *websocket.Client
	msgType string
	payload interface{}
}

// recordingNotifier запоминает рассылки и ответы вместо отправки в сокет.
type recordingNotifier struct {
	mu         sync.Mutex
	broadcasts int
	replies    []reply
}

func (n *recordingNotifier) Broadcast(_ context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts++
}

func (n *recordingNotifier) SendInitial(_ context.Context, _ *websocket.Client) error { return nil }

func (n *recordingNotifier) Reply(client *websocket.Client, messageType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies = append(n.replies, reply{client: client, msgType: messageType, payload: payload})
}
