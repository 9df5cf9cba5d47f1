// Package core provides the tutoring-school billing data model.
//
// This file contains the whole-yen amount type and parsing of amounts typed
// by staff ("12,345", "¥12,345", "12345円").
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

// Yen is a whole-yen amount. All billing arithmetic stays in whole yen.
type Yen int64

// String renders the amount with a yen sign and thousands separators, e.g. ¥12,345.
func (y Yen) String() string {
	if y < 0 {
		return "-¥" + humanize.Comma(int64(-y))
	}
	return "¥" + humanize.Comma(int64(y))
}

// Plain renders the amount with thousands separators only
func (y Yen) Plain() string {
	return humanize.Comma(int64(y))
}

// ParseYen converts a staff-entered amount to Yen.
//
// It strips a leading ¥/￥, a trailing 円 and thousands separators. Fractions
// are rejected since yen amounts are whole. Zero is accepted (an explicit zero
// payment is meaningful), negative values are not.
//
// Examples:
//
//	ParseYen("12,345")   -> 12345, nil
//	ParseYen("¥50000")   -> 50000, nil
//	ParseYen("8000円")   -> 8000, nil
//	ParseYen("12.5")     -> 0, ErrInvalidAmount
func ParseYen(s string) (Yen, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "¥")
	s = strings.TrimPrefix(s, "￥")
	s = strings.TrimSuffix(s, "円")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return Yen(v), nil
}
