package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"vipauto/internal/entities"
	apperrors "vipauto/pkg/errors"
)

// StoreInterface - единственная точка доступа к данным мастерской для сервисов.
type StoreInterface interface {
	FindUserByLogin(ctx context.Context, login string) (*entities.User, error)
	Snapshot(ctx context.Context) (*entities.Snapshot, error)

	AddClient(ctx context.Context, client *entities.Client) (bool, error)
	UpdateClient(ctx context.Context, client *entities.Client) error
	DeleteClient(ctx context.Context, id string) error
	ToggleFavoriteClient(ctx context.Context, id string, favorite *bool) (bool, error)
	SearchClients(ctx context.Context, query string, limit uint64) ([]entities.Client, error)

	AddOrderWithClient(ctx context.Context, order *entities.Order, client *entities.Client) error
	FindOrder(ctx context.Context, id string) (*entities.Order, error)
	UpdateOrderWithClient(ctx context.Context, order *entities.Order, client *entities.Client) error
	UpdateOrderStatus(ctx context.Context, id, status string) error
	DeleteOrder(ctx context.Context, id string) error

	CloseWeek(ctx context.Context, report *entities.WeeklyReport) (int64, error)
	ClearData(ctx context.Context) error
	ClearHistory(ctx context.Context) error
	FindWeek(ctx context.Context, weekID string) (*entities.WeeklyReport, []entities.Order, error)

	AddSearchQuery(ctx context.Context, entry *entities.SearchHistoryEntry) error
	GetSearchHistory(ctx context.Context, login string, limit uint64) ([]entities.SearchHistoryEntry, error)

	Ping(ctx context.Context) error
}

type Store struct {
	pool          *pgxpool.Pool
	txManager     TxManagerInterface
	users         UserRepositoryInterface
	clients       ClientRepositoryInterface
	orders        OrderRepositoryInterface
	reports       WeeklyReportRepositoryInterface
	searchHistory SearchHistoryRepositoryInterface
	logger        *zap.Logger
}

func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{
		pool:          pool,
		txManager:     NewTxManager(pool),
		users:         NewUserRepository(pool, logger),
		clients:       NewClientRepository(pool, logger),
		orders:        NewOrderRepository(pool, logger),
		reports:       NewWeeklyReportRepository(pool, logger),
		searchHistory: NewSearchHistoryRepository(pool, logger),
		logger:        logger,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) FindUserByLogin(ctx context.Context, login string) (*entities.User, error) {
	return s.users.FindUserByLogin(ctx, login)
}

// Snapshot читает всё состояние в одной read-only транзакции REPEATABLE READ,
// поэтому открытые заказы, история и клиенты согласованы между собой.
func (s *Store) Snapshot(ctx context.Context) (*entities.Snapshot, error) {
	var snap entities.Snapshot
	err := s.txManager.RunInSnapshot(ctx, func(tx pgx.Tx) error {
		var err error
		if snap.OpenOrders, err = s.orders.WithTx(tx).GetOpenOrders(ctx); err != nil {
			return err
		}
		if snap.AllOrders, err = s.orders.WithTx(tx).GetAllOrders(ctx); err != nil {
			return err
		}
		if snap.Users, err = s.users.WithTx(tx).GetUsers(ctx); err != nil {
			return err
		}
		if snap.Reports, err = s.reports.WithTx(tx).GetReports(ctx); err != nil {
			return err
		}
		snap.Clients, err = s.clients.WithTx(tx).GetClients(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снимка данных: %w", err)
	}
	return &snap, nil
}

func (s *Store) AddClient(ctx context.Context, client *entities.Client) (bool, error) {
	return s.clients.InsertClient(ctx, client)
}

func (s *Store) UpdateClient(ctx context.Context, client *entities.Client) error {
	return s.clients.UpdateClient(ctx, client)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.clients.DeleteClient(ctx, id)
}

func (s *Store) ToggleFavoriteClient(ctx context.Context, id string, favorite *bool) (bool, error) {
	return s.clients.SetFavorite(ctx, id, favorite)
}

func (s *Store) SearchClients(ctx context.Context, query string, limit uint64) ([]entities.Client, error) {
	return s.clients.SearchClients(ctx, query, limit)
}

// AddOrderWithClient в одной транзакции находит клиента по телефону (или создаёт
// его из client) и сохраняет заказ-наряд со ссылкой на него. client == nil
// означает заказ без телефона.
func (s *Store) AddOrderWithClient(ctx context.Context, order *entities.Order, client *entities.Client) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if client != nil {
			resolved, err := s.clients.WithTx(tx).EnsureClientByPhone(ctx, client)
			if err != nil {
				return err
			}
			order.ClientID.SetValid(resolved.ID)
		}
		return s.orders.WithTx(tx).CreateOrder(ctx, order)
	})
}

func (s *Store) FindOrder(ctx context.Context, id string) (*entities.Order, error) {
	return s.orders.FindOrder(ctx, id)
}

// UpdateOrderWithClient сохраняет правку заказ-наряда. Если передан client,
// ссылка на клиента переназначается на найденного (или созданного) по телефону
// в той же транзакции. При client == nil client_id пишется как есть.
func (s *Store) UpdateOrderWithClient(ctx context.Context, order *entities.Order, client *entities.Client) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if client != nil {
			resolved, err := s.clients.WithTx(tx).EnsureClientByPhone(ctx, client)
			if err != nil {
				return err
			}
			order.ClientID.SetValid(resolved.ID)
		}
		return s.orders.WithTx(tx).UpdateOrder(ctx, order)
	})
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id, status string) error {
	return s.orders.UpdateOrderStatus(ctx, id, status)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.orders.DeleteOrder(ctx, id)
}

// CloseWeek создаёт недельный отчёт и проставляет его week_id всем открытым
// заказ-нарядам. Либо сохраняется всё, либо ничего. Если открытых заказов нет,
// возвращает ErrNothingToDo и ничего не пишет.
func (s *Store) CloseWeek(ctx context.Context, report *entities.WeeklyReport) (int64, error) {
	return s.closeWeek(ctx, report, nil)
}

func (s *Store) closeWeek(ctx context.Context, report *entities.WeeklyReport, afterInsert func() error) (int64, error) {
	var closed int64
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		orders := s.orders.WithTx(tx)

		// Блокируем открытые строки, чтобы параллельный closeWeek дождался нас.
		if _, err := tx.Exec(ctx, "SELECT id FROM orders WHERE week_id IS NULL FOR UPDATE"); err != nil {
			return mapError("блокировка открытых заказ-нарядов", err)
		}
		count, err := orders.CountOpenOrders(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			return apperrors.ErrNothingToDo
		}

		if err := s.reports.WithTx(tx).CreateReport(ctx, report); err != nil {
			return err
		}
		if afterInsert != nil {
			if err := afterInsert(); err != nil {
				return err
			}
		}
		closed, err = orders.AssignOpenOrdersToWeek(ctx, report.WeekID)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNothingToDo) {
			return 0, err
		}
		return 0, fmt.Errorf("ошибка закрытия недели: %w", err)
	}
	return closed, nil
}

// ClearData удаляет все заказ-наряды и недельные отчёты одной транзакцией.
func (s *Store) ClearData(ctx context.Context) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		orders, err := s.orders.WithTx(tx).DeleteAllOrders(ctx)
		if err != nil {
			return err
		}
		reports, err := s.reports.WithTx(tx).DeleteAllReports(ctx)
		if err != nil {
			return err
		}
		s.logger.Info("данные очищены", zap.Int64("orders", orders), zap.Int64("reports", reports))
		return nil
	})
}

func (s *Store) ClearHistory(ctx context.Context) error {
	n, err := s.reports.DeleteAllReports(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("история недель очищена", zap.Int64("reports", n))
	return nil
}

// FindWeek возвращает закрытую неделю вместе с её заказ-нарядами.
func (s *Store) FindWeek(ctx context.Context, weekID string) (*entities.WeeklyReport, []entities.Order, error) {
	var (
		report *entities.WeeklyReport
		orders []entities.Order
	)
	err := s.txManager.RunInSnapshot(ctx, func(tx pgx.Tx) error {
		var err error
		if report, err = s.reports.WithTx(tx).FindReport(ctx, weekID); err != nil {
			return err
		}
		orders, err = s.orders.WithTx(tx).GetOrdersByWeek(ctx, weekID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return report, orders, nil
}

func (s *Store) AddSearchQuery(ctx context.Context, entry *entities.SearchHistoryEntry) error {
	return s.searchHistory.AddSearchQuery(ctx, entry)
}

func (s *Store) GetSearchHistory(ctx context.Context, login string, limit uint64) ([]entities.SearchHistoryEntry, error) {
	return s.searchHistory.GetSearchHistory(ctx, login, limit)
}
