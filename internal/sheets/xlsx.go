package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

// XLSXBackend keeps the tabular store in a local workbook. It is meant for
// development and offline onboarding, not for concurrent processes.
type XLSXBackend struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

func OpenXLSX(path string) (*XLSXBackend, error) {
	f, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("failed to create workbook %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &XLSXBackend{path: path, file: f}, nil
}

func (b *XLSXBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

func (b *XLSXBackend) Get(_ context.Context, rng string) ([][]string, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, Permanent(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	grid, err := b.file.GetRows(r.Sheet)
	if err != nil {
		return nil, Permanent(err)
	}
	return r.Window(grid), nil
}

func (b *XLSXBackend) Append(_ context.Context, rng string, rows [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return Permanent(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	grid, err := b.file.GetRows(r.Sheet)
	if err != nil {
		return Permanent(err)
	}
	startCol := r.StartCol
	if startCol == 0 {
		startCol = 1
	}
	next := len(grid) + 1
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(startCol, next+i)
		if err != nil {
			return Permanent(err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := b.file.SetSheetRow(r.Sheet, cell, &values); err != nil {
			return err
		}
	}
	return b.file.Save()
}

func (b *XLSXBackend) BatchUpdate(_ context.Context, updates []CellUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, u := range updates {
		r, err := ParseRange(u.Range)
		if err != nil {
			return Permanent(err)
		}
		startCol, startRow := max(r.StartCol, 1), max(r.StartRow, 1)
		for i, row := range u.Values {
			for j, v := range row {
				cell, err := excelize.CoordinatesToCellName(startCol+j, startRow+i)
				if err != nil {
					return Permanent(err)
				}
				if err := b.file.SetCellStr(r.Sheet, cell, v); err != nil {
					return err
				}
			}
		}
	}
	return b.file.Save()
}

func (b *XLSXBackend) SheetTitles(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.GetSheetList(), nil
}

func (b *XLSXBackend) AddSheet(_ context.Context, title string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.file.NewSheet(title); err != nil {
		return err
	}
	return b.file.Save()
}
