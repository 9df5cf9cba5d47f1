package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a billing month. It is the unit of reconciliation and aggregation.
type Period struct {
	Year  int
	Month int // 1-12
}

// NewPeriod creates a Period from year and month
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: month}
}

// PeriodOf returns the period containing t
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// ParsePeriod parses the "YYYY-MM" form.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	p := Period{Year: y, Month: m}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// String returns the "YYYY-MM" form
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Next returns the following month, rolling December into January.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Prev returns the preceding month, rolling January into December.
func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Compare returns -1, 0 or +1.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Month < o.Month:
		return -1
	case p.Month > o.Month:
		return 1
	}
	return 0
}

func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }

func (p Period) After(o Period) bool { return p.Compare(o) > 0 }

// IsZero reports whether the period is unset
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// PeriodRange returns every period from..to inclusive, in order.
// An inverted range yields nil.
func PeriodRange(from, to Period) []Period {
	if to.Before(from) {
		return nil
	}
	var out []Period
	for p := from; !p.After(to); p = p.Next() {
		out = append(out, p)
	}
	return out
}
