package entities

import "time"

type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	CarModel     string    `json:"carModel"`
	LicensePlate string    `json:"licensePlate"`
	Favorite     bool      `json:"favorite"`
	CreatedAt    time.Time `json:"createdAt"`
}
