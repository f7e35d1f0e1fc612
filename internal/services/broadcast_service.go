package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vipauto/internal/entities"
	"vipauto/pkg/metrics"
	"vipauto/pkg/types"
	"vipauto/pkg/websocket"
)

const (
	broadcastConcurrency = 8
	broadcastTimeout     = 15 * time.Second
)

// ConnectionRegistry - то, что координатору нужно от хаба.
type ConnectionRegistry interface {
	Identities() []types.Identity
	SendToUser(login string, message []byte) int
	SendToClient(client *websocket.Client, message []byte) bool
}

// SnapshotReader читает согласованный снимок данных.
type SnapshotReader interface {
	Snapshot(ctx context.Context) (*entities.Snapshot, error)
}

type BroadcastServiceInterface interface {
	// Broadcast пересчитывает представление для каждого подключённого сотрудника
	// и отправляет его всем его соединениям как dataUpdate.
	Broadcast(ctx context.Context)
	// SendInitial отправляет новому соединению initialData.
	SendInitial(ctx context.Context, client *websocket.Client) error
	// Reply отправляет сообщение только одному соединению.
	Reply(client *websocket.Client, messageType string, payload interface{})
}

type BroadcastService struct {
	registry ConnectionRegistry
	store    SnapshotReader
	opts     ViewOptions
	logger   *zap.Logger
	now      func() time.Time

	// mu упорядочивает раунды: каждое соединение получает снимки в порядке их чтения.
	mu sync.Mutex
}

func NewBroadcastService(registry ConnectionRegistry, store SnapshotReader, opts ViewOptions, logger *zap.Logger) *BroadcastService {
	return &BroadcastService{
		registry: registry,
		store:    store,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *BroadcastService) Broadcast(ctx context.Context) {
	// Рассылка не должна обрываться, если отключился тот, кто сделал изменение.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), broadcastTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.BroadcastRoundsTotal.Inc()
		metrics.BroadcastDuration.Observe(time.Since(start).Seconds())
	}()

	identities := s.registry.Identities()
	if len(identities) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(broadcastConcurrency)
	for _, identity := range identities {
		identity := identity
		g.Go(func() error {
			// Ошибка одного сотрудника не мешает доставке остальным.
			if err := s.pushView(gctx, identity); err != nil {
				metrics.BroadcastPushesTotal.WithLabelValues(metrics.ResultFailed).Inc()
				s.logger.Error("не удалось отправить обновление", zap.String("login", identity.Login), zap.Error(err))
				return nil
			}
			metrics.BroadcastPushesTotal.WithLabelValues(metrics.ResultDelivered).Inc()
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug("рассылка завершена", zap.Int("identities", len(identities)), zap.Duration("took", time.Since(start)))
}

func (s *BroadcastService) pushView(ctx context.Context, identity types.Identity) error {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return err
	}
	view := BuildView(identity, snap, s.now(), s.opts)
	message, err := websocket.Encode(websocket.TypeDataUpdate, view, s.now())
	if err != nil {
		return err
	}
	s.registry.SendToUser(identity.Login, message)
	return nil
}

func (s *BroadcastService) SendInitial(ctx context.Context, client *websocket.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return err
	}
	view := BuildView(client.Identity, snap, s.now(), s.opts)
	message, err := websocket.Encode(websocket.TypeInitialData, view, s.now())
	if err != nil {
		return err
	}
	s.registry.SendToClient(client, message)
	return nil
}

func (s *BroadcastService) Reply(client *websocket.Client, messageType string, payload interface{}) {
	message, err := websocket.Encode(messageType, payload, s.now())
	if err != nil {
		s.logger.Error("не удалось сериализовать ответ", zap.String("type", messageType), zap.Error(err))
		return
	}
	s.registry.SendToClient(client, message)
}
