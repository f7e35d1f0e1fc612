package dto

import (
	"vipauto/internal/entities"
	"vipauto/pkg/types"
)

type WeekStats struct {
	Revenue     float64 `json:"revenue"`
	OrdersCount int     `json:"ordersCount"`
	AvgCheck    int64   `json:"avgCheck"`
}

type LeaderboardEntry struct {
	Name        string  `json:"name"`
	Revenue     float64 `json:"revenue"`
	OrdersCount int     `json:"ordersCount"`
}

type HistoryItem struct {
	entities.WeeklyReport
	Orders []entities.Order `json:"orders"`
}

// ViewPayload - полный снимок состояния для одного сотрудника.
type ViewPayload struct {
	WeekOrders  []entities.Order   `json:"weekOrders"`
	WeekStats   WeekStats          `json:"weekStats"`
	TodayOrders []entities.Order   `json:"todayOrders"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Masters     []string           `json:"masters"`
	User        types.Identity     `json:"user"`
	History     []HistoryItem      `json:"history"`
	Clients     []entities.Client  `json:"clients"`
}
