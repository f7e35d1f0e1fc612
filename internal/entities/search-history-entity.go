package entities

import "time"

type SearchHistoryEntry struct {
	ID        string    `json:"id"`
	UserLogin string    `json:"userLogin"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}
