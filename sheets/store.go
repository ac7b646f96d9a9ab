package sheets

import (
	"context"
	"fmt"
)

// SheetRef addresses one tab of one spreadsheet document.
type SheetRef struct {
	SheetID string
	TabName string
}

// CellUpdate sets a single cell, addressed by 1-based row index and the
// column's position within the header row (0-based).
type CellUpdate struct {
	RowIndex int
	Column   int
	Value    string
}

// Store is the row-oriented spreadsheet access the lead queue needs.
// Implementations must return missing trailing cells as empty strings and
// must not invent ordering: rows come back in sheet order.
type Store interface {
	// Tabs lists the worksheet titles of a spreadsheet document.
	Tabs(ctx context.Context, sheetID string) ([]string, error)
	// Header returns row 1 of the tab.
	Header(ctx context.Context, ref SheetRef) ([]string, error)
	// Rows returns every data row (row 2 onward), in sheet order.
	Rows(ctx context.Context, ref SheetRef) ([][]string, error)
	// Row returns a single row by its 1-based sheet index.
	Row(ctx context.Context, ref SheetRef, rowIndex int) ([]string, error)
	// UpdateCell writes one cell.
	UpdateCell(ctx context.Context, ref SheetRef, u CellUpdate) error
	// BatchUpdate writes several cells in one call. Implementations should
	// make this a single round trip so partial visibility stays minimal.
	BatchUpdate(ctx context.Context, ref SheetRef, updates []CellUpdate) error
	// AppendRow appends values after the last data row of the tab.
	AppendRow(ctx context.Context, ref SheetRef, values []string) error
}

// ColumnLetter converts a 0-based column position to its A1 letter form
// (0 → A, 25 → Z, 26 → AA).
func ColumnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}

// CellRange renders the A1 range for a single cell.
func CellRange(ref SheetRef, rowIndex, col int) string {
	return fmt.Sprintf("%s!%s%d", ref.TabName, ColumnLetter(col), rowIndex)
}

// RowRange renders the A1 range covering one full row.
func RowRange(ref SheetRef, rowIndex int) string {
	return fmt.Sprintf("%s!A%d:ZZ%d", ref.TabName, rowIndex, rowIndex)
}
