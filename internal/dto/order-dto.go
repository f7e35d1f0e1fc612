package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Amount принимает сумму и числом, и строкой ("1500", "1 500,50").
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("некорректная сумма %q", s)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("некорректная сумма: %w", err)
	}
	*a = Amount(f)
	return nil
}

// OrderDTO - полезная нагрузка addOrder/updateOrder.
type OrderDTO struct {
	ID           string `json:"id"`
	MasterName   string `json:"masterName" validate:"max=200"`
	CarModel     string `json:"carModel" validate:"max=200"`
	LicensePlate string `json:"licensePlate" validate:"plate"`
	Description  string `json:"description" validate:"max=2000"`
	Amount       Amount `json:"amount" validate:"gte=0"`
	PaymentType  string `json:"paymentType" validate:"max=50"`
	Status       string `json:"status" validate:"max=50"`
	ClientName   string `json:"clientName" validate:"max=200"`
	ClientPhone  string `json:"clientPhone" validate:"phone"`
}

type UpdateOrderStatusDTO struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required,max=50"`
}

// CloseWeekDTO - отчёт по зарплате считается на клиенте и сохраняется как есть.
type CloseWeekDTO struct {
	SalaryReport json.RawMessage `json:"salaryReport"`
}
