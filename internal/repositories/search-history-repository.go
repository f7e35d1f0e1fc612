package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"vipauto/internal/entities"
)

type SearchHistoryRepositoryInterface interface {
	AddSearchQuery(ctx context.Context, entry *entities.SearchHistoryEntry) error
	GetSearchHistory(ctx context.Context, login string, limit uint64) ([]entities.SearchHistoryEntry, error)
	WithTx(tx pgx.Tx) SearchHistoryRepositoryInterface
}

type SearchHistoryRepository struct {
	db     querier
	logger *zap.Logger
}

func NewSearchHistoryRepository(db querier, logger *zap.Logger) SearchHistoryRepositoryInterface {
	return &SearchHistoryRepository{db: db, logger: logger}
}

func (r *SearchHistoryRepository) WithTx(tx pgx.Tx) SearchHistoryRepositoryInterface {
	return &SearchHistoryRepository{db: tx, logger: r.logger}
}

func (r *SearchHistoryRepository) AddSearchQuery(ctx context.Context, entry *entities.SearchHistoryEntry) error {
	err := r.db.QueryRow(ctx,
		"INSERT INTO search_history (id, user_login, query) VALUES ($1, $2, $3) RETURNING timestamp",
		entry.ID, entry.UserLogin, entry.Query,
	).Scan(&entry.Timestamp)
	return mapError("запись истории поиска", err)
}

// GetSearchHistory возвращает последние запросы пользователя, новые первыми.
func (r *SearchHistoryRepository) GetSearchHistory(ctx context.Context, login string, limit uint64) ([]entities.SearchHistoryEntry, error) {
	sql, args, err := psql.Select("id", "user_login", "query", "timestamp").
		From("search_history").
		Where("user_login = ?", login).
		OrderBy("timestamp DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("история поиска", err)
	}
	defer rows.Close()

	entries := make([]entities.SearchHistoryEntry, 0)
	for rows.Next() {
		var e entities.SearchHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserLogin, &e.Query, &e.Timestamp); err != nil {
			return nil, mapError("чтение истории поиска", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
