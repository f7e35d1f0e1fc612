package utils

import (
	"regexp"
	"strings"
)

var nonDigitRegexp = regexp.MustCompile(`\D`)

// NormalizePhone оставляет только цифры и ведущий "+". Российский номер,
// начинающийся с 8 и содержащий 11 цифр, приводится к +7.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	digitsOnly := nonDigitRegexp.ReplaceAllString(phone, "")
	if digitsOnly == "" {
		return ""
	}
	if len(digitsOnly) == 11 && digitsOnly[0] == '8' {
		return "+7" + digitsOnly[1:]
	}
	if strings.HasPrefix(phone, "+") || (len(digitsOnly) == 11 && digitsOnly[0] == '7') {
		return "+" + digitsOnly
	}
	return digitsOnly
}

// PhoneSearchDigits приводит поисковый запрос к цифрам в том виде, в каком
// телефоны хранятся после NormalizePhone: ведущая 8 российского номера
// заменяется на 7. Пустая строка, если в запросе нет цифр.
func PhoneSearchDigits(query string) string {
	query = strings.TrimSpace(query)
	digits := nonDigitRegexp.ReplaceAllString(query, "")
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(query, "8") && len(digits) > 1 {
		return "7" + digits[1:]
	}
	return digits
}
