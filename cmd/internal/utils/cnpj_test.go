package utils

import (
	"errors"
	"testing"
)

func TestNormalizeCNPJ(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"formatted", "43.227.497/0001-98", "43227497000198", nil},
		{"plain digits", "43227497000198", "43227497000198", nil},
		{"spaced", "  43227497000198  ", "43227497000198", nil},
		{"too short", "123", "", ErrInvalidLength},
		{"too long", "432274970001980", "", ErrInvalidLength},
		{"empty", "", "", ErrInvalidLength},
		{"letters only", "not-a-cnpj", "", ErrInvalidLength},
		{"all same digits", "11111111111111", "", ErrInvalidCheckDigit},
		{"bad first check digit", "43227497000188", "", ErrInvalidCheckDigit},
		{"bad second check digit", "43227497000199", "", ErrInvalidCheckDigit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeCNPJ(tc.input)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeCNPJPunctuationAgnostic(t *testing.T) {
	a, err := NormalizeCNPJ("43.227.497/0001-98")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NormalizeCNPJ("43227497000198")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("punctuated and plain forms differ: %q vs %q", a, b)
	}
}

func TestFormatCNPJ(t *testing.T) {
	if got, want := FormatCNPJ("43227497000198"), "43.227.497/0001-98"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// Not 14 digits: returned untouched
	if got := FormatCNPJ("123"); got != "123" {
		t.Errorf("got %q, want %q", got, "123")
	}
}

func TestOnlyDigits(t *testing.T) {
	if got, want := OnlyDigits("43.227.497/0001-98"), "43227497000198"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := OnlyDigits("abc"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
