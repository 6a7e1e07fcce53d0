package main

import "sort"

// summarize aggregates the live cell map per combined code: total quantity
// and cell count, sorted by grouping code then combined code. Pure
// recomputation, no caching; the grids this runs over are small.
func summarize(cells map[string]Cell) []summaryRow {
	byCombined := make(map[string]*summaryRow)
	for _, c := range cells {
		if c.IsEmpty() {
			continue
		}
		key := c.CombinedCode()
		row, ok := byCombined[key]
		if !ok {
			row = &summaryRow{Combined: key, Group: c.GroupCode()}
			byCombined[key] = row
		}
		row.Quantity += c.Quantity
		row.Count++
	}

	rows := make([]summaryRow, 0, len(byCombined))
	for _, row := range byCombined {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Group != rows[j].Group {
			return rows[i].Group < rows[j].Group
		}
		return rows[i].Combined < rows[j].Combined
	})
	return rows
}
