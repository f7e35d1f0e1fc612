package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"vipauto/internal/entities"
	apperrors "vipauto/pkg/errors"
)

const orderTable = "orders"

var orderColumns = []string{
	"id", "master_name", "car_model", "license_plate", "description", "amount::float8",
	"payment_type", "status", "client_id", "client_name", "client_phone", "created_at", "week_id",
}

type OrderRepositoryInterface interface {
	CreateOrder(ctx context.Context, order *entities.Order) error
	FindOrder(ctx context.Context, id string) (*entities.Order, error)
	UpdateOrder(ctx context.Context, order *entities.Order) error
	UpdateOrderStatus(ctx context.Context, id, status string) error
	DeleteOrder(ctx context.Context, id string) error
	DeleteAllOrders(ctx context.Context) (int64, error)
	GetOpenOrders(ctx context.Context) ([]entities.Order, error)
	GetAllOrders(ctx context.Context) ([]entities.Order, error)
	GetOrdersByWeek(ctx context.Context, weekID string) ([]entities.Order, error)
	CountOpenOrders(ctx context.Context) (int64, error)
	AssignOpenOrdersToWeek(ctx context.Context, weekID string) (int64, error)
	WithTx(tx pgx.Tx) OrderRepositoryInterface
}

type OrderRepository struct {
	db     querier
	logger *zap.Logger
}

func NewOrderRepository(db querier, logger *zap.Logger) OrderRepositoryInterface {
	return &OrderRepository{db: db, logger: logger}
}

func (r *OrderRepository) WithTx(tx pgx.Tx) OrderRepositoryInterface {
	return &OrderRepository{db: tx, logger: r.logger}
}

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var o entities.Order
	err := row.Scan(
		&o.ID, &o.MasterName, &o.CarModel, &o.LicensePlate, &o.Description, &o.Amount,
		&o.PaymentType, &o.Status, &o.ClientID, &o.ClientName, &o.ClientPhone, &o.CreatedAt, &o.WeekID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) selectOrders() sq.SelectBuilder {
	return psql.Select(orderColumns...).From(orderTable)
}

func (r *OrderRepository) list(ctx context.Context, b sq.SelectBuilder) ([]entities.Order, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("список заказ-нарядов", err)
	}
	defer rows.Close()

	orders := make([]entities.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, mapError("чтение заказ-наряда", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *entities.Order) error {
	sql, args, err := psql.Insert(orderTable).
		Columns("id", "master_name", "car_model", "license_plate", "description", "amount",
			"payment_type", "status", "client_id", "client_name", "client_phone").
		Values(order.ID, order.MasterName, order.CarModel, order.LicensePlate, order.Description, order.Amount,
			order.PaymentType, order.Status, order.ClientID, order.ClientName, order.ClientPhone).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&order.CreatedAt); err != nil {
		return mapError("создание заказ-наряда", err)
	}
	return nil
}

func (r *OrderRepository) FindOrder(ctx context.Context, id string) (*entities.Order, error) {
	sql, args, err := r.selectOrders().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	o, err := scanOrder(r.db.QueryRow(ctx, sql, args...))
	return o, mapError("поиск заказ-наряда", err)
}

// UpdateOrder перезаписывает редактируемые поля вместе со ссылкой на клиента.
// Статус и неделя меняются только своими командами.
func (r *OrderRepository) UpdateOrder(ctx context.Context, order *entities.Order) error {
	sql, args, err := psql.Update(orderTable).
		SetMap(map[string]interface{}{
			"master_name":   order.MasterName,
			"car_model":     order.CarModel,
			"license_plate": order.LicensePlate,
			"description":   order.Description,
			"amount":        order.Amount,
			"payment_type":  order.PaymentType,
			"client_id":     order.ClientID,
			"client_name":   order.ClientName,
			"client_phone":  order.ClientPhone,
		}).
		Where(sq.Eq{"id": order.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	return r.execOne(ctx, "обновление заказ-наряда", order.ID, sql, args...)
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id, status string) error {
	return r.execOne(ctx, "смена статуса", id, "UPDATE orders SET status = $2 WHERE id = $1", id, status)
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) error {
	return r.execOne(ctx, "удаление заказ-наряда", id, "DELETE FROM orders WHERE id = $1", id)
}

func (r *OrderRepository) execOne(ctx context.Context, op, id, sql string, args ...interface{}) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", op, id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *OrderRepository) DeleteAllOrders(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM orders")
	if err != nil {
		return 0, mapError("очистка заказ-нарядов", err)
	}
	return tag.RowsAffected(), nil
}

func (r *OrderRepository) GetOpenOrders(ctx context.Context) ([]entities.Order, error) {
	return r.list(ctx, r.selectOrders().Where(sq.Eq{"week_id": nil}).OrderBy("created_at DESC"))
}

func (r *OrderRepository) GetAllOrders(ctx context.Context) ([]entities.Order, error) {
	return r.list(ctx, r.selectOrders().OrderBy("created_at DESC"))
}

func (r *OrderRepository) GetOrdersByWeek(ctx context.Context, weekID string) ([]entities.Order, error) {
	return r.list(ctx, r.selectOrders().Where(sq.Eq{"week_id": weekID}).OrderBy("master_name", "created_at"))
}

func (r *OrderRepository) CountOpenOrders(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE week_id IS NULL").Scan(&count); err != nil {
		return 0, mapError("подсчёт открытых заказ-нарядов", err)
	}
	return count, nil
}

// AssignOpenOrdersToWeek закрывает все открытые заказ-наряды указанной неделей.
func (r *OrderRepository) AssignOpenOrdersToWeek(ctx context.Context, weekID string) (int64, error) {
	tag, err := r.db.Exec(ctx, "UPDATE orders SET week_id = $1 WHERE week_id IS NULL", weekID)
	if err != nil {
		return 0, mapError("закрытие заказ-нарядов", err)
	}
	return tag.RowsAffected(), nil
}
