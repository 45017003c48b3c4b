package google

import (
	"strings"

	"iexpense/internal/core"
)

const lastColumn = "E"

var header = []any{"ID", "Name", "Type", "Amount", "Band"}

func snapshotRows(records []core.ExpenseRecord) [][]any {
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, header)
	for _, r := range records {
		rows = append(rows, []any{
			r.ID,
			r.Name,
			r.Category.String(),
			r.Amount.Units(),
			string(core.BandOf(r.Amount)),
		})
	}
	return rows
}

// sheetRange builds an A1 range, quoting sheet names that need it.
func sheetRange(sheet, cells string) string {
	if strings.ContainsAny(sheet, " '!") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + cells
}
