package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate Validator
		input    string
		want     bool
	}{
		{"full name", FullName, "Иванов Иван Иванович", true},
		{"full name extra spaces", FullName, "  Иванов   Иван\tИванович ", true},
		{"full name with ё", FullName, "Ёлкин Пётр Семёнович", true},
		{"full name two tokens", FullName, "Иванов Иван", false},
		{"full name four tokens", FullName, "Иванов Иван Иванович Младший", false},
		{"full name latin", FullName, "Ivanov Ivan Ivanovich", false},
		{"full name digits", FullName, "Иванов Иван 3", false},

		{"non-empty", NonEmpty, "ОВД района", true},
		{"non-empty blank", NonEmpty, "   ", false},
		{"non-empty empty", NonEmpty, "", false},

		{"email short", Email, "a@b.c", true},
		{"email dotted", Email, "first.last-name@mail.example.com", true},
		{"email no dot", Email, "a@b", false},
		{"email two at", Email, "a@b@c.d", false},
		{"email inner space", Email, "a b@c.d", false},
		{"email cyrillic", Email, "иван@почта.рф", true},
		{"email cyrillic domain", Email, "user@почта.рф", true},
		{"email cyrillic no dot", Email, "иван@почта", false},

		{"handle", TelegramHandle, "@user_name", true},
		{"handle two chars", TelegramHandle, "@ab", false},
		{"handle no at", TelegramHandle, "username", false},
		{"handle inner dash", TelegramHandle, "@user-name", false},
		{"handle cyrillic", TelegramHandle, "@иван_петров", false},

		{"passport", PassportSeriesNumber, "1234 567890", true},
		{"passport shifted", PassportSeriesNumber, "12345 67890", false},
		{"passport no space", PassportSeriesNumber, "1234567890", false},

		{"issue date", IssueDate, "01.01.2020", true},
		{"issue date leap", IssueDate, "29.02.2020", true},
		{"issue date invalid day", IssueDate, "31.02.2020", false},
		{"issue date single digit", IssueDate, "1.1.2020", false},
		{"issue date iso", IssueDate, "2020-01-01", false},

		{"dept code", DeptCode, "123-456", true},
		{"dept code shifted", DeptCode, "1234-56", false},
		{"dept code no dash", DeptCode, "123456", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.validate(tt.input), "input %q", tt.input)
		})
	}
}

func TestHandleLengthBounds(t *testing.T) {
	assert.True(t, TelegramHandle("@abc"))
	assert.True(t, TelegramHandle("@abcdefghijabcdefghijabcdefghijab"))
	assert.False(t, TelegramHandle("@abcdefghijabcdefghijabcdefghijabc"))
}
