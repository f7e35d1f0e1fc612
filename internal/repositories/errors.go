package repositories

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "vipauto/pkg/errors"
)

const pgUniqueViolation = "23505"

// mapError переводит ошибки драйвера в ошибки приложения.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w (%s)", op, apperrors.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// psql - построитель запросов squirrel с плейсхолдерами $1, $2...
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
