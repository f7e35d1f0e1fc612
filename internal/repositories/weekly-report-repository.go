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

const weeklyReportSelectFields = "week_id, created_at, salary_report"

type WeeklyReportRepositoryInterface interface {
	CreateReport(ctx context.Context, report *entities.WeeklyReport) error
	FindReport(ctx context.Context, weekID string) (*entities.WeeklyReport, error)
	GetReports(ctx context.Context) ([]entities.WeeklyReport, error)
	DeleteAllReports(ctx context.Context) (int64, error)
	WithTx(tx pgx.Tx) WeeklyReportRepositoryInterface
}

type WeeklyReportRepository struct {
	db     querier
	logger *zap.Logger
}

func NewWeeklyReportRepository(db querier, logger *zap.Logger) WeeklyReportRepositoryInterface {
	return &WeeklyReportRepository{db: db, logger: logger}
}

func (r *WeeklyReportRepository) WithTx(tx pgx.Tx) WeeklyReportRepositoryInterface {
	return &WeeklyReportRepository{db: tx, logger: r.logger}
}

func scanWeeklyReport(row pgx.Row) (*entities.WeeklyReport, error) {
	var rep entities.WeeklyReport
	var raw []byte
	if err := row.Scan(&rep.WeekID, &rep.CreatedAt, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	rep.SalaryReport = raw
	return &rep, nil
}

// CreateReport сохраняет отчёт. SalaryReport пишется в JSONB без разбора, пустой отчёт
// сохраняется как {}.
func (r *WeeklyReportRepository) CreateReport(ctx context.Context, report *entities.WeeklyReport) error {
	payload := []byte(report.SalaryReport)
	if len(payload) == 0 || string(payload) == "null" {
		payload = []byte("{}")
	}
	err := r.db.QueryRow(ctx,
		"INSERT INTO weekly_reports (week_id, salary_report) VALUES ($1, $2::jsonb) RETURNING created_at",
		report.WeekID, string(payload),
	).Scan(&report.CreatedAt)
	if err != nil {
		return mapError("создание недельного отчёта", err)
	}
	report.SalaryReport = payload
	return nil
}

func (r *WeeklyReportRepository) FindReport(ctx context.Context, weekID string) (*entities.WeeklyReport, error) {
	query := fmt.Sprintf("SELECT %s FROM weekly_reports WHERE week_id = $1", weeklyReportSelectFields)
	rep, err := scanWeeklyReport(r.db.QueryRow(ctx, query, weekID))
	return rep, mapError("поиск недельного отчёта", err)
}

func (r *WeeklyReportRepository) GetReports(ctx context.Context) ([]entities.WeeklyReport, error) {
	query := fmt.Sprintf("SELECT %s FROM weekly_reports ORDER BY created_at DESC", weeklyReportSelectFields)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError("список недельных отчётов", err)
	}
	defer rows.Close()

	reports := make([]entities.WeeklyReport, 0)
	for rows.Next() {
		rep, err := scanWeeklyReport(rows)
		if err != nil {
			return nil, mapError("чтение недельного отчёта", err)
		}
		reports = append(reports, *rep)
	}
	return reports, rows.Err()
}

func (r *WeeklyReportRepository) DeleteAllReports(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM weekly_reports")
	if err != nil {
		return 0, mapError("очистка истории", err)
	}
	return tag.RowsAffected(), nil
}
