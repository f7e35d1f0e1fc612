package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// Буквы, разрешённые в российских номерах (совпадают по начертанию с латиницей).
const rusPlateLetters = "АВЕКМНОРСТУХ"

var rusPlateRegexp = regexp.MustCompile(`^([` + rusPlateLetters + `])(\d{3})([` + rusPlateLetters + `]{2})(\d{2,3})$`)

// Латинские двойники кириллических букв номера.
var latinToCyrillic = strings.NewReplacer(
	"A", "А", "B", "В", "E", "Е", "K", "К", "M", "М", "H", "Н",
	"O", "О", "P", "Р", "C", "С", "T", "Т", "Y", "У", "X", "Х",
)

// RussianPlate - разобранный российский номер: А 123 ВС 77.
type RussianPlate struct {
	Letter  string `json:"letter"`
	Digits  string `json:"digits"`
	Letters string `json:"letters"`
	Region  string `json:"region"`
}

// NormalizePlate убирает всё, кроме букв и цифр, и переводит в верхний регистр.
func NormalizePlate(plate string) string {
	var b strings.Builder
	for _, r := range plate {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// ParseRussianPlate разбирает номер после нормализации. Латинские двойники
// (A, B, E...) принимаются наравне с кириллицей.
func ParseRussianPlate(plate string) (RussianPlate, bool) {
	normalized := latinToCyrillic.Replace(NormalizePlate(plate))
	m := rusPlateRegexp.FindStringSubmatch(normalized)
	if m == nil {
		return RussianPlate{}, false
	}
	return RussianPlate{Letter: m[1], Digits: m[2], Letters: m[3], Region: m[4]}, true
}

// CanonicalPlate - форма, в которой номер хранится в БД: российский номер
// кириллицей, иначе просто нормализованная строка.
func CanonicalPlate(plate string) string {
	if p, ok := ParseRussianPlate(plate); ok {
		return p.Letter + p.Digits + p.Letters + p.Region
	}
	return NormalizePlate(plate)
}
