package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"vipauto/internal/entities"
	apperrors "vipauto/pkg/errors"
)

const userTable = "users"
const userSelectFields = "login, name, role, password, created_at"

type UserRepositoryInterface interface {
	FindUserByLogin(ctx context.Context, login string) (*entities.User, error)
	GetUsers(ctx context.Context) ([]entities.User, error)
	UpsertUser(ctx context.Context, user *entities.User) error
	WithTx(tx pgx.Tx) UserRepositoryInterface
}

type UserRepository struct {
	db     querier
	logger *zap.Logger
}

func NewUserRepository(db querier, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) WithTx(tx pgx.Tx) UserRepositoryInterface {
	return &UserRepository{db: tx, logger: r.logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	if err := row.Scan(&user.Login, &user.Name, &user.Role, &user.Password, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByLogin ищет сотрудника по логину. Отсутствие пользователя
// возвращается как ErrInvalidCredentials, чтобы не раскрывать, какие логины существуют.
func (r *UserRepository) FindUserByLogin(ctx context.Context, login string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE login = $1", userSelectFields, userTable)
	user, err := scanUser(r.db.QueryRow(ctx, query, login))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		r.logger.Error("ошибка поиска пользователя по логину", zap.String("login", login), zap.Error(err))
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetUsers(ctx context.Context) ([]entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at, login", userSelectFields, userTable)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError("список пользователей", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, mapError("чтение пользователя", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpsertUser используется сидером: повторный запуск обновляет имя, роль и хеш пароля.
func (r *UserRepository) UpsertUser(ctx context.Context, user *entities.User) error {
	sql, args, err := psql.Insert(userTable).
		Columns("login", "name", "role", "password").
		Values(user.Login, user.Name, string(user.Role), user.Password).
		Suffix("ON CONFLICT (login) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, password = EXCLUDED.password").
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return mapError("сохранение пользователя", err)
}
