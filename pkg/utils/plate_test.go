package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRussianPlate(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  RussianPlate
		ok    bool
	}{
		{"standard", "А123ВС777", RussianPlate{"А", "123", "ВС", "777"}, true},
		{"lowercase and separators", "а 456 в_с 99", RussianPlate{"А", "456", "ВС", "99"}, true},
		{"latin lookalikes", "a123bc77", RussianPlate{"А", "123", "ВС", "77"}, true},
		{"invalid", "INVALID123", RussianPlate{}, false},
		{"empty", "", RussianPlate{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseRussianPlate(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalPlate(t *testing.T) {
	assert.Equal(t, "А123ВС77", CanonicalPlate("a 123 bc-77"))
	assert.Equal(t, "INVALID123", CanonicalPlate("invalid-123"))
	assert.Equal(t, "", CanonicalPlate(""))
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+7 (912) 345-67-89": "+79123456789",
		"8 912 345 67 89":    "+79123456789",
		"79123456789":        "+79123456789",
		"12-34-56":           "123456",
		"   ":                "",
		"нет":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestPhoneSearchDigits(t *testing.T) {
	cases := map[string]string{
		"8 (999) 123-45-67": "79991234567",
		"89991234567":       "79991234567",
		"+7 999 123":        "7999123",
		"999 123":           "999123",
		"8":                 "8",
		"Иван":              "",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, PhoneSearchDigits(in), in)
	}

	// Запрос в любом из форматов - подстрока сохранённого телефона.
	stored := NormalizePhone("8 (999) 123-45-67")
	for _, q := range []string{"8 (999) 123-45-67", "89991234567", "999 123", "9991234567"} {
		assert.Contains(t, stored, PhoneSearchDigits(q), q)
	}
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	assert.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = BearerToken("")
	assert.Error(t, err)
	_, err = BearerToken("Basic abc")
	assert.Error(t, err)
	_, err = BearerToken("Bearer ")
	assert.Error(t, err)
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("secret")
	assert.NoError(t, err)
	assert.NoError(t, ComparePasswords(hash, "secret"))
	assert.Error(t, ComparePasswords(hash, "wrong"))
}
