package memory

import (
	"context"
	"sync"

	"juku/internal/core"
	"juku/internal/sheets"
)

var _ sheets.Exporter = (*Store)(nil)

// Store keeps the last grid written per sheet name.
type Store struct {
	mu     sync.Mutex
	grids  map[string][][]interface{}
	writes int
}

func New() *Store {
	return &Store{grids: map[string][][]interface{}{}}
}

func (s *Store) WriteMonthly(_ context.Context, year int, rows []core.MonthlySummary) error {
	s.put(sheets.SheetName(sheets.SummarySheet, year), sheets.MonthlyValues(rows))
	return nil
}

func (s *Store) WriteStudents(_ context.Context, year int, rows []core.StudentSummary) error {
	s.put(sheets.SheetName(sheets.LedgerSheet, year), sheets.LedgerValues(rows))
	return nil
}

func (s *Store) put(name string, grid [][]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grids[name] = grid
	s.writes++
}

// Grid returns the last grid written to name, nil if none.
func (s *Store) Grid(name string) [][]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grids[name]
}

// Writes counts every write since creation
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
