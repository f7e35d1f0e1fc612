package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"vipauto/internal/entities"
)

const (
	ordersSheet = "Заказ-наряды"
	totalsSheet = "Итоги"
	salarySheet = "Зарплата"
	dateTimeFmt = "02.01.2006 15:04"
)

var orderHeaders = []interface{}{
	"Дата", "Мастер", "Автомобиль", "Госномер", "Клиент", "Телефон", "Работы", "Оплата", "Статус", "Сумма",
}

// WeekFinder - чтение закрытой недели вместе с её заказ-нарядами.
type WeekFinder interface {
	FindWeek(ctx context.Context, weekID string) (*entities.WeeklyReport, []entities.Order, error)
}

type ReportExportServiceInterface interface {
	// ExportWeek пишет XLSX-книгу закрытой недели в w.
	ExportWeek(ctx context.Context, weekID string, w io.Writer) error
}

type ReportExportService struct {
	store    WeekFinder
	location *time.Location
	logger   *zap.Logger
}

func NewReportExportService(store WeekFinder, location *time.Location, logger *zap.Logger) ReportExportServiceInterface {
	if location == nil {
		location = time.UTC
	}
	return &ReportExportService{store: store, location: location, logger: logger}
}

func (s *ReportExportService) ExportWeek(ctx context.Context, weekID string, w io.Writer) error {
	report, orders, err := s.store.FindWeek(ctx, weekID)
	if err != nil {
		return err
	}

	f, err := s.buildWorkbook(report, orders)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("не удалось закрыть книгу", zap.Error(cerr))
		}
	}()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("не удалось записать XLSX: %w", err)
	}
	return nil
}

func (s *ReportExportService) buildWorkbook(report *entities.WeeklyReport, orders []entities.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(ordersSheet, "A1", &orderHeaders); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(ordersSheet, "A1", "J1", bold)

	var total float64
	for i, o := range orders {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			o.CreatedAt.In(s.location).Format(dateTimeFmt), o.MasterName, o.CarModel, o.LicensePlate,
			o.ClientName, o.ClientPhone, o.Description, o.PaymentType, o.Status, o.Amount,
		}
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return nil, err
		}
		total += o.Amount
	}
	totalRow := len(orders) + 2
	_ = f.SetCellValue(ordersSheet, fmt.Sprintf("I%d", totalRow), "Итого")
	_ = f.SetCellValue(ordersSheet, fmt.Sprintf("J%d", totalRow), total)
	_ = f.SetCellStyle(ordersSheet, fmt.Sprintf("I%d", totalRow), fmt.Sprintf("J%d", totalRow), bold)

	_ = f.SetColWidth(ordersSheet, "A", "A", 18)
	_ = f.SetColWidth(ordersSheet, "B", "F", 20)
	_ = f.SetColWidth(ordersSheet, "G", "G", 40)

	if err := s.writeTotals(f, orders, bold); err != nil {
		return nil, err
	}
	if err := s.writeSalary(f, report, bold); err != nil {
		return nil, err
	}
	return f, nil
}

// writeTotals - выручка и число заказов по мастерам, по убыванию выручки.
func (s *ReportExportService) writeTotals(f *excelize.File, orders []entities.Order, bold int) error {
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return err
	}
	header := []interface{}{"Мастер", "Заказов", "Выручка"}
	if err := f.SetSheetRow(totalsSheet, "A1", &header); err != nil {
		return err
	}
	_ = f.SetCellStyle(totalsSheet, "A1", "C1", bold)

	for i, e := range buildLeaderboard(orders) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{e.Name, e.OrdersCount, e.Revenue}
		if err := f.SetSheetRow(totalsSheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(totalsSheet, "A", "A", 25)
	return nil
}

// writeSalary выводит отчёт по зарплате. Объект раскладывается по строкам
// "ключ - значение", всё остальное пишется как есть одной ячейкой.
func (s *ReportExportService) writeSalary(f *excelize.File, report *entities.WeeklyReport, bold int) error {
	if _, err := f.NewSheet(salarySheet); err != nil {
		return err
	}
	_ = f.SetCellValue(salarySheet, "A1", "Неделя")
	_ = f.SetCellValue(salarySheet, "B1", report.WeekID)
	_ = f.SetCellValue(salarySheet, "A2", "Закрыта")
	_ = f.SetCellValue(salarySheet, "B2", report.CreatedAt.In(s.location).Format(dateTimeFmt))
	_ = f.SetCellStyle(salarySheet, "A1", "A2", bold)

	var fields map[string]interface{}
	if err := json.Unmarshal(report.SalaryReport, &fields); err != nil || len(fields) == 0 {
		return f.SetCellValue(salarySheet, "A4", string(report.SalaryReport))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		cell, _ := excelize.CoordinatesToCellName(1, i+4)
		value := fields[k]
		switch v := value.(type) {
		case map[string]interface{}, []interface{}:
			raw, _ := json.Marshal(v)
			value = string(raw)
		}
		row := []interface{}{k, value}
		if err := f.SetSheetRow(salarySheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(salarySheet, "A", "B", 25)
	return nil
}
