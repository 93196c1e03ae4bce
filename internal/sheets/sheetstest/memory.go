// Package sheetstest provides an in-memory tabular store for tests.
package sheetstest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AlenaMolokova/circlepay/internal/sheets"
)

// Memory implements sheets.Backend over plain grids. Row 1 of a grid is the
// first element of its slice.
type Memory struct {
	mu    sync.Mutex
	grids map[string][][]string
	order []string
	fail  map[string][]error
	calls map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		grids: make(map[string][][]string),
		fail:  make(map[string][]error),
		calls: make(map[string]int),
	}
}

// NewClient wraps m in a client that neither throttles nor retries.
func NewClient(m *Memory) *sheets.Client {
	return sheets.NewClient(m, sheets.Options{MaxAttempts: 1}, zerolog.Nop())
}

// Seed replaces the contents of sheet.
func (m *Memory) Seed(sheet string, rows ...[]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(sheet)
	grid := make([][]string, len(rows))
	for i, row := range rows {
		grid[i] = append([]string(nil), row...)
	}
	m.grids[sheet] = grid
}

// Rows returns a copy of sheet.
func (m *Memory) Rows(sheet string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.grids[sheet]))
	for i, row := range m.grids[sheet] {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Fail makes the next calls of op ("get", "append", "batch_update",
// "titles", "add_sheet") return errs in order.
func (m *Memory) Fail(op string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = append(m.fail[op], errs...)
}

// Calls reports how many times op reached the backend.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *Memory) enter(op string) error {
	m.calls[op]++
	if errs := m.fail[op]; len(errs) > 0 {
		m.fail[op] = errs[1:]
		return errs[0]
	}
	return nil
}

func (m *Memory) ensure(sheet string) {
	if _, ok := m.grids[sheet]; !ok {
		m.grids[sheet] = nil
		m.order = append(m.order, sheet)
	}
}

func (m *Memory) lookup(sheet string) (string, bool) {
	for _, name := range m.order {
		if strings.EqualFold(name, sheet) {
			return name, true
		}
	}
	return "", false
}

func (m *Memory) Get(_ context.Context, rng string) ([][]string, error) {
	r, err := sheets.ParseRange(rng)
	if err != nil {
		return nil, sheets.Permanent(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("get"); err != nil {
		return nil, err
	}
	name, ok := m.lookup(r.Sheet)
	if !ok {
		return nil, sheets.Permanent(fmt.Errorf("unable to parse range: %s", rng))
	}
	return r.Window(m.grids[name]), nil
}

func (m *Memory) Append(_ context.Context, rng string, rows [][]string) error {
	r, err := sheets.ParseRange(rng)
	if err != nil {
		return sheets.Permanent(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("append"); err != nil {
		return err
	}
	name, ok := m.lookup(r.Sheet)
	if !ok {
		return sheets.Permanent(fmt.Errorf("unable to parse range: %s", rng))
	}
	grid := m.grids[name]
	for len(grid) > 0 && blank(grid[len(grid)-1]) {
		grid = grid[:len(grid)-1]
	}
	offset := max(r.StartCol, 1) - 1
	for _, row := range rows {
		line := make([]string, offset, offset+len(row))
		grid = append(grid, append(line, row...))
	}
	m.grids[name] = grid
	return nil
}

func (m *Memory) BatchUpdate(_ context.Context, updates []sheets.CellUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("batch_update"); err != nil {
		return err
	}
	for _, u := range updates {
		r, err := sheets.ParseRange(u.Range)
		if err != nil {
			return sheets.Permanent(err)
		}
		name, ok := m.lookup(r.Sheet)
		if !ok {
			return sheets.Permanent(fmt.Errorf("unable to parse range: %s", u.Range))
		}
		startCol, startRow := max(r.StartCol, 1), max(r.StartRow, 1)
		grid := m.grids[name]
		for i, values := range u.Values {
			rowIdx := startRow - 1 + i
			for len(grid) <= rowIdx {
				grid = append(grid, nil)
			}
			for j, v := range values {
				colIdx := startCol - 1 + j
				for len(grid[rowIdx]) <= colIdx {
					grid[rowIdx] = append(grid[rowIdx], "")
				}
				grid[rowIdx][colIdx] = v
			}
		}
		m.grids[name] = grid
	}
	return nil
}

func (m *Memory) SheetTitles(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("titles"); err != nil {
		return nil, err
	}
	return append([]string(nil), m.order...), nil
}

func (m *Memory) AddSheet(_ context.Context, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("add_sheet"); err != nil {
		return err
	}
	if _, ok := m.lookup(title); ok {
		return sheets.Permanent(fmt.Errorf("sheet %q already exists", title))
	}
	m.ensure(title)
	return nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
