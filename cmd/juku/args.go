package main

import (
	"fmt"
	"strconv"
	"time"

	"juku/internal/core"
)

const dateLayout = "2006-01-02"

// parseKey reads "<type> <ref-id> <YYYY-MM>".
func parseKey(args []string) (core.ItemKey, error) {
	if len(args) < 3 {
		return core.ItemKey{}, fmt.Errorf("expected <type> <ref-id> <YYYY-MM>, got %d arguments", len(args))
	}
	t := core.BillingType(args[0])
	if err := t.Validate(); err != nil {
		return core.ItemKey{}, err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return core.ItemKey{}, fmt.Errorf("invalid reference id %q", args[1])
	}
	p, err := core.ParsePeriod(args[2])
	if err != nil {
		return core.ItemKey{}, err
	}
	return core.ItemKey{Type: t, RefID: id, Period: p}, nil
}

// parseRange reads "<from> [to]"; a single period means that month only.
func parseRange(args []string) (core.Period, core.Period, error) {
	if len(args) == 0 {
		return core.Period{}, core.Period{}, fmt.Errorf("expected <from> [to]")
	}
	from, err := core.ParsePeriod(args[0])
	if err != nil {
		return core.Period{}, core.Period{}, err
	}
	to := from
	if len(args) > 1 {
		if to, err = core.ParsePeriod(args[1]); err != nil {
			return core.Period{}, core.Period{}, err
		}
	}
	if to.Before(from) {
		return core.Period{}, core.Period{}, fmt.Errorf("%w: %s is before %s", core.ErrInvalidPeriod, to, from)
	}
	return from, to, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return &d, nil
}
