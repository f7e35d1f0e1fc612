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
	"vipauto/pkg/utils"
)

const clientTable = "clients"

var clientColumns = []string{"id", "name", "phone", "car_model", "license_plate", "favorite", "created_at"}

type ClientRepositoryInterface interface {
	InsertClient(ctx context.Context, client *entities.Client) (bool, error)
	FindClientByPhone(ctx context.Context, phone string) (*entities.Client, error)
	EnsureClientByPhone(ctx context.Context, client *entities.Client) (*entities.Client, error)
	UpdateClient(ctx context.Context, client *entities.Client) error
	DeleteClient(ctx context.Context, id string) error
	SetFavorite(ctx context.Context, id string, favorite *bool) (bool, error)
	SearchClients(ctx context.Context, search string, limit uint64) ([]entities.Client, error)
	GetClients(ctx context.Context) ([]entities.Client, error)
	WithTx(tx pgx.Tx) ClientRepositoryInterface
}

type ClientRepository struct {
	db     querier
	logger *zap.Logger
}

func NewClientRepository(db querier, logger *zap.Logger) ClientRepositoryInterface {
	return &ClientRepository{db: db, logger: logger}
}

func (r *ClientRepository) WithTx(tx pgx.Tx) ClientRepositoryInterface {
	return &ClientRepository{db: tx, logger: r.logger}
}

func scanClient(row pgx.Row) (*entities.Client, error) {
	var c entities.Client
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.CarModel, &c.LicensePlate, &c.Favorite, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) selectClients() sq.SelectBuilder {
	return psql.Select(clientColumns...).From(clientTable)
}

func (r *ClientRepository) list(ctx context.Context, b sq.SelectBuilder) ([]entities.Client, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("список клиентов", err)
	}
	defer rows.Close()

	clients := make([]entities.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, mapError("чтение клиента", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

func (r *ClientRepository) one(ctx context.Context, b sq.SelectBuilder) (*entities.Client, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	return scanClient(r.db.QueryRow(ctx, sql, args...))
}

// InsertClient вставляет клиента. Если телефон уже занят, ничего не делает и возвращает false.
func (r *ClientRepository) InsertClient(ctx context.Context, client *entities.Client) (bool, error) {
	sql, args, err := psql.Insert(clientTable).
		Columns("id", "name", "phone", "car_model", "license_plate", "favorite").
		Values(client.ID, client.Name, client.Phone, client.CarModel, client.LicensePlate, client.Favorite).
		Suffix("ON CONFLICT (phone) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, mapError("создание клиента", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ClientRepository) FindClientByPhone(ctx context.Context, phone string) (*entities.Client, error) {
	c, err := r.one(ctx, r.selectClients().Where(sq.Eq{"phone": phone}))
	return c, mapError("поиск клиента по телефону", err)
}

// EnsureClientByPhone возвращает клиента с данным телефоном, создавая его при
// необходимости. Параллельные вызовы с одним телефоном сходятся к одной записи.
func (r *ClientRepository) EnsureClientByPhone(ctx context.Context, client *entities.Client) (*entities.Client, error) {
	if _, err := r.InsertClient(ctx, client); err != nil {
		return nil, err
	}
	return r.FindClientByPhone(ctx, client.Phone)
}

func (r *ClientRepository) UpdateClient(ctx context.Context, client *entities.Client) error {
	sql, args, err := psql.Update(clientTable).
		SetMap(map[string]interface{}{
			"name":          client.Name,
			"phone":         client.Phone,
			"car_model":     client.CarModel,
			"license_plate": client.LicensePlate,
		}).
		Where(sq.Eq{"id": client.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapError("обновление клиента", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("обновление клиента %s: %w", client.ID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *ClientRepository) DeleteClient(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return mapError("удаление клиента", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление клиента %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// SetFavorite ставит флаг избранного. При favorite == nil флаг инвертируется.
// Возвращает итоговое значение.
func (r *ClientRepository) SetFavorite(ctx context.Context, id string, favorite *bool) (bool, error) {
	b := psql.Update(clientTable).Where(sq.Eq{"id": id}).Suffix("RETURNING favorite")
	if favorite != nil {
		b = b.Set("favorite", *favorite)
	} else {
		b = b.Set("favorite", sq.Expr("NOT favorite"))
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	var result bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&result); err != nil {
		return false, mapError("избранное клиента", err)
	}
	return result, nil
}

// SearchClients ищет подстроку в имени или телефоне без учёта регистра.
// Телефон дополнительно сравнивается с цифрами запроса, поэтому находится
// и по номеру, набранному со скобками, пробелами или через 8.
func (r *ClientRepository) SearchClients(ctx context.Context, search string, limit uint64) ([]entities.Client, error) {
	pattern := "%" + escapeLike(search) + "%"
	cond := sq.Or{sq.ILike{"name": pattern}, sq.ILike{"phone": pattern}}
	if digits := utils.PhoneSearchDigits(search); digits != "" {
		cond = append(cond, sq.Like{"phone": "%" + digits + "%"})
	}
	return r.list(ctx, r.selectClients().
		Where(cond).
		OrderBy("favorite DESC", "name").
		Limit(limit))
}

func (r *ClientRepository) GetClients(ctx context.Context) ([]entities.Client, error) {
	return r.list(ctx, r.selectClients().OrderBy("created_at DESC"))
}
