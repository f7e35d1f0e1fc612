// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"vipauto/pkg/utils"
)

// RegisterCustomValidations регистрирует правила мастерской в переданном валидаторе.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", isPhone); err != nil {
		return err
	}
	if err := v.RegisterValidation("plate", isPlate); err != nil {
		return err
	}
	return nil
}

// New возвращает валидатор с уже зарегистрированными правилами.
func New() (*validator.Validate, error) {
	v := validator.New()
	if err := RegisterCustomValidations(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Пустая строка допустима: обязательность задаётся тегом required.
func isPhone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	n := utils.NormalizePhone(s)
	digits := len(n)
	if len(n) > 0 && n[0] == '+' {
		digits--
	}
	return digits >= 5 && digits <= 15
}

func isPlate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return utf8.RuneCountInString(utils.NormalizePlate(s)) <= 12
}
