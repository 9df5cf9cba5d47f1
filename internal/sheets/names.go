package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// Default sheet base names; the school year is prefixed.
const (
	SummarySheet = "Summary"
	LedgerSheet  = "Ledger"
)

// SheetName returns "<year> <base>" unless base already starts with a 4-digit year.
func SheetName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
