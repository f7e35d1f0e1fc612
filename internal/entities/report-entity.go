package entities

import (
	"encoding/json"
	"time"
)

// WeeklyReport - закрытая неделя. SalaryReport считается на клиенте и
// хранится как есть.
type WeeklyReport struct {
	WeekID       string          `json:"weekId"`
	CreatedAt    time.Time       `json:"createdAt"`
	SalaryReport json.RawMessage `json:"salaryReport"`
}
