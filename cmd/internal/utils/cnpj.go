package utils

import (
	"errors"
	"strings"
)

const CNPJLength = 14

var (
	ErrInvalidLength     = errors.New("cnpj must have exactly 14 digits")
	ErrInvalidCheckDigit = errors.New("cnpj check digits do not match")
)

// NormalizeCNPJ strips all non-digit characters and validates the result,
// returning the canonical digits-only form. "43.227.497/0001-98" and
// "43227497000198" normalize identically. This runs before any lookup so
// malformed input never reaches the dataset.
func NormalizeCNPJ(raw string) (string, error) {
	cnpj := OnlyDigits(raw)
	if len(cnpj) != CNPJLength {
		return "", ErrInvalidLength
	}

	// Reject known invalid patterns that trick the math algorithm
	if hasAllSameDigits(cnpj) {
		return "", ErrInvalidCheckDigit
	}
	if !validateCNPJDigits(cnpj) {
		return "", ErrInvalidCheckDigit
	}
	return cnpj, nil
}

// FormatCNPJ renders a canonical CNPJ as XX.XXX.XXX/XXXX-XX for display.
// Anything that is not 14 digits is returned unchanged.
func FormatCNPJ(cnpj string) string {
	digits := OnlyDigits(cnpj)
	if len(digits) != CNPJLength {
		return cnpj
	}
	return digits[:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:]
}

// OnlyDigits removes every non-digit character from s.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func hasAllSameDigits(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func validateCNPJDigits(cnpj string) bool {
	// RFB weights for the first verifying digit
	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	// RFB weights for the second verifying digit
	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

	digit1 := calculateCNPJDigit(cnpj[:12], weights1)
	digit2 := calculateCNPJDigit(cnpj[:13], weights2)

	actualDigit1 := int(cnpj[12] - '0')
	actualDigit2 := int(cnpj[13] - '0')

	return digit1 == actualDigit1 && digit2 == actualDigit2
}

func calculateCNPJDigit(base string, weights []int) int {
	sum := 0
	for i, weight := range weights {
		// Convert ASCII character to integer ('5' -> 5)
		digit := int(base[i] - '0')
		sum += digit * weight
	}

	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}
