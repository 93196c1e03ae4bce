package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// Range is a parsed A1 range. Zero bounds are open: "Withdrawals!A:O" has no
// row bounds, "Withdrawals!2:2" has no column bounds.
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

type CellUpdate struct {
	Range  string
	Values [][]string
}

func ParseRange(a1 string) (Range, error) {
	var r Range
	sheet, cells := a1, ""
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		sheet, cells = a1[:i], a1[i+1:]
	}
	sheet = strings.TrimSpace(sheet)
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	if sheet == "" {
		return r, fmt.Errorf("range %q has no sheet name", a1)
	}
	r.Sheet = sheet
	if cells == "" {
		return r, nil
	}

	start, end, isSpan := strings.Cut(cells, ":")
	var err error
	if r.StartCol, r.StartRow, err = parseRef(start); err != nil {
		return r, fmt.Errorf("range %q: %w", a1, err)
	}
	if !isSpan {
		r.EndCol, r.EndRow = r.StartCol, r.StartRow
		return r, nil
	}
	if r.EndCol, r.EndRow, err = parseRef(end); err != nil {
		return r, fmt.Errorf("range %q: %w", a1, err)
	}
	return r, nil
}

func parseRef(ref string) (col, row int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(ref, "$", "")))
	split := strings.IndexFunc(ref, unicode.IsDigit)
	letters, digits := ref, ""
	if split >= 0 {
		letters, digits = ref[:split], ref[split:]
	}
	if letters != "" {
		if col, err = excelize.ColumnNameToNumber(letters); err != nil {
			return 0, 0, err
		}
	}
	if digits != "" {
		if row, err = strconv.Atoi(digits); err != nil || row < 1 {
			return 0, 0, fmt.Errorf("invalid row %q", digits)
		}
	}
	if letters == "" && digits == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}
	return col, row, nil
}

// Window cuts the block addressed by r out of a full-sheet grid whose first
// element is row 1.
func (r Range) Window(grid [][]string) [][]string {
	first, last := 1, len(grid)
	if r.StartRow > 0 {
		first = r.StartRow
	}
	if r.EndRow > 0 && r.EndRow < last {
		last = r.EndRow
	}
	out := make([][]string, 0)
	for i := first; i <= last; i++ {
		row := grid[i-1]
		from, to := 0, len(row)
		if r.StartCol > 0 {
			from = r.StartCol - 1
		}
		if r.EndCol > 0 && r.EndCol < to {
			to = r.EndCol
		}
		if from > to {
			from = to
		}
		out = append(out, append([]string(nil), row[from:to]...))
	}
	for len(out) > 0 && isBlank(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func quoteSheet(sheet string) string {
	for _, r := range sheet {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
		}
	}
	return sheet
}

// Columns formats "Sheet!A:O" for the first n columns.
func Columns(sheet string, n int) string {
	last, _ := excelize.ColumnNumberToName(n)
	return quoteSheet(sheet) + "!A:" + last
}

// RowSpan formats "Sheet!C5:F5".
func RowSpan(sheet string, row, firstCol, lastCol int) string {
	from, _ := excelize.CoordinatesToCellName(firstCol, row)
	to, _ := excelize.CoordinatesToCellName(lastCol, row)
	return quoteSheet(sheet) + "!" + from + ":" + to
}

func Cell(sheet string, col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return quoteSheet(sheet) + "!" + name
}

// Whole addresses every populated cell of a sheet.
func Whole(sheet string) string {
	return quoteSheet(sheet)
}
