package domain

import (
	"regexp"
	"strings"
	"time"
)

type Currency struct {
	ID        string
	Code      string
	Name      string
	Symbol    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var codeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// NormalizeCode trims and uppercases a currency code; codes are stored uppercased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code is exactly three uppercase letters.
func ValidCode(code string) bool {
	return codeRe.MatchString(code)
}
