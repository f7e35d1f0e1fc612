package services

import (
	"math"
	"sort"
	"time"

	"vipauto/internal/dto"
	"vipauto/internal/entities"
	"vipauto/pkg/types"
)

// MastersFilter - как из списка сотрудников выбираются мастера.
type MastersFilter string

const (
	// MastersByRole оставляет сотрудников с ролью мастера (SENIOR_MASTER, MASTER).
	MastersByRole MastersFilter = "role"
	// MastersByName оставляет всех, кроме сотрудника с именем директора.
	MastersByName MastersFilter = "name"
)

// ViewOptions - настройки установки, влияющие на представление.
type ViewOptions struct {
	Location      *time.Location
	MastersFilter MastersFilter
	DirectorName  string
}

// BuildView строит полное представление для одного сотрудника из согласованного
// снимка. Функция чистая: одинаковые входы дают одинаковый результат.
func BuildView(identity types.Identity, snap *entities.Snapshot, now time.Time, opts ViewOptions) dto.ViewPayload {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	weekOrders := visibleOrders(identity, snap.OpenOrders)

	return dto.ViewPayload{
		WeekOrders:  weekOrders,
		WeekStats:   computeWeekStats(weekOrders),
		TodayOrders: ordersOfDay(weekOrders, now, loc),
		Leaderboard: buildLeaderboard(snap.OpenOrders),
		Masters:     mastersList(snap.Users, opts),
		User:        identity,
		History:     buildHistory(snap.Reports, snap.AllOrders),
		Clients:     nonNilClients(snap.Clients),
	}
}

// visibleOrders: директор и старший мастер видят все открытые заказ-наряды,
// мастер - только свои.
func visibleOrders(identity types.Identity, open []entities.Order) []entities.Order {
	if identity.IsPrivileged() {
		out := make([]entities.Order, len(open))
		copy(out, open)
		return out
	}
	out := make([]entities.Order, 0)
	for _, o := range open {
		if o.MasterName == identity.Name {
			out = append(out, o)
		}
	}
	return out
}

// Суммы хранятся как NUMERIC(12,2), поэтому складываются в копейках.
func toKopecks(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromKopecks(k int64) float64 {
	return float64(k) / 100
}

func computeWeekStats(orders []entities.Order) dto.WeekStats {
	var revenue int64
	for _, o := range orders {
		revenue += toKopecks(o.Amount)
	}
	stats := dto.WeekStats{Revenue: fromKopecks(revenue), OrdersCount: len(orders)}
	if len(orders) > 0 {
		stats.AvgCheck = int64(math.Round(float64(revenue) / 100 / float64(len(orders))))
	}
	return stats
}

// buildLeaderboard суммирует все открытые заказ-наряды по мастерам независимо от
// того, кто смотрит. При равной выручке сохраняется порядок первого появления.
func buildLeaderboard(open []entities.Order) []dto.LeaderboardEntry {
	type tally struct {
		entry   dto.LeaderboardEntry
		kopecks int64
	}
	index := make(map[string]int)
	tallies := make([]tally, 0)
	for _, o := range open {
		i, ok := index[o.MasterName]
		if !ok {
			i = len(tallies)
			index[o.MasterName] = i
			tallies = append(tallies, tally{entry: dto.LeaderboardEntry{Name: o.MasterName}})
		}
		tallies[i].kopecks += toKopecks(o.Amount)
		tallies[i].entry.OrdersCount++
	}
	sort.SliceStable(tallies, func(a, b int) bool { return tallies[a].kopecks > tallies[b].kopecks })

	board := make([]dto.LeaderboardEntry, len(tallies))
	for i, t := range tallies {
		board[i] = t.entry
		board[i].Revenue = fromKopecks(t.kopecks)
	}
	return board
}

func ordersOfDay(orders []entities.Order, now time.Time, loc *time.Location) []entities.Order {
	y, m, d := now.In(loc).Date()
	out := make([]entities.Order, 0)
	for _, o := range orders {
		oy, om, od := o.CreatedAt.In(loc).Date()
		if oy == y && om == m && od == d {
			out = append(out, o)
		}
	}
	return out
}

func mastersList(users []entities.User, opts ViewOptions) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, u := range users {
		switch opts.MastersFilter {
		case MastersByName:
			if u.Name == opts.DirectorName {
				continue
			}
		default:
			if !u.Role.IsMechanic() {
				continue
			}
		}
		if _, ok := seen[u.Name]; ok {
			continue
		}
		seen[u.Name] = struct{}{}
		out = append(out, u.Name)
	}
	return out
}

// buildHistory прикладывает к каждой закрытой неделе её заказ-наряды.
func buildHistory(reports []entities.WeeklyReport, all []entities.Order) []dto.HistoryItem {
	byWeek := make(map[string][]entities.Order)
	for _, o := range all {
		if o.WeekID.Valid {
			byWeek[o.WeekID.String] = append(byWeek[o.WeekID.String], o)
		}
	}
	history := make([]dto.HistoryItem, 0, len(reports))
	for _, r := range reports {
		orders := byWeek[r.WeekID]
		if orders == nil {
			orders = make([]entities.Order, 0)
		}
		history = append(history, dto.HistoryItem{WeeklyReport: r, Orders: orders})
	}
	return history
}

func nonNilClients(clients []entities.Client) []entities.Client {
	if clients == nil {
		return make([]entities.Client, 0)
	}
	return clients
}
