package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Order - заказ-наряд. WeekID пуст, пока неделя не закрыта.
type Order struct {
	ID           string      `json:"id"`
	MasterName   string      `json:"masterName"`
	CarModel     string      `json:"carModel"`
	LicensePlate string      `json:"licensePlate"`
	Description  string      `json:"description"`
	Amount       float64     `json:"amount"`
	PaymentType  string      `json:"paymentType"`
	Status       string      `json:"status"`
	ClientID     null.String `json:"clientId"`
	ClientName   string      `json:"clientName"`
	ClientPhone  string      `json:"clientPhone"`
	CreatedAt    time.Time   `json:"createdAt"`
	WeekID       null.String `json:"weekId"`
}
