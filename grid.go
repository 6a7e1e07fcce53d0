package main

import "math"

// gridGeometry describes the fixed layout of one surface: cell size in
// unscaled pixels, the header band across the top, the row-label band down
// the left, and the grid dimensions.
type gridGeometry struct {
	rows, cols   int
	cellW, cellH float64
	headerH      float64
	labelW       float64
}

// screenToGrid maps a surface-local screen point to a (row, col) under the
// given viewport, or ok=false when the point falls in a header band or
// outside the grid. Exact inverse of gridToScreen.
func (g gridGeometry) screenToGrid(x, y float64, vp viewport) (row, col int, ok bool) {
	if x < g.labelW || y < g.headerH {
		return 0, 0, false
	}
	gx := (x - g.labelW - vp.offsetX) / vp.scale
	gy := (y - g.headerH - vp.offsetY) / vp.scale
	if gx < 0 || gy < 0 {
		return 0, 0, false
	}
	col = int(math.Floor(gx / g.cellW))
	row = int(math.Floor(gy / g.cellH))
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return 0, 0, false
	}
	return row, col, true
}

// gridToScreen returns the surface-local screen position of the top-left
// corner of (row, col) under the viewport.
func (g gridGeometry) gridToScreen(row, col int, vp viewport) (x, y float64) {
	x = g.labelW + vp.offsetX + float64(col)*g.cellW*vp.scale
	y = g.headerH + vp.offsetY + float64(row)*g.cellH*vp.scale
	return x, y
}

// gridToScreenCenter returns the screen position of the center of (row, col).
func (g gridGeometry) gridToScreenCenter(row, col int, vp viewport) (x, y float64) {
	x, y = g.gridToScreen(row, col, vp)
	return x + g.cellW*vp.scale/2, y + g.cellH*vp.scale/2
}

// visibleRange computes the inclusive row/col window intersecting a viewport
// of the given surface size, so the renderer only walks cells on screen.
func (g gridGeometry) visibleRange(vp viewport, width, height float64) (r0, r1, c0, c1 int) {
	cw := g.cellW * vp.scale
	ch := g.cellH * vp.scale
	c0 = int(math.Floor(-vp.offsetX / cw))
	r0 = int(math.Floor(-vp.offsetY / ch))
	c1 = int(math.Ceil((width - g.labelW - vp.offsetX) / cw))
	r1 = int(math.Ceil((height - g.headerH - vp.offsetY) / ch))
	c0 = max(c0, 0)
	r0 = max(r0, 0)
	c1 = min(c1, g.cols-1)
	r1 = min(r1, g.rows-1)
	return r0, r1, c0, c1
}

// columnLabel converts a zero-based column index to its spreadsheet letter
// label: 0 -> "A", 25 -> "Z", 26 -> "AA". Base 26 with no zero digit.
func columnLabel(col int) string {
	label := ""
	n := col
	for n >= 0 {
		label = string(rune('A'+n%26)) + label
		n = n/26 - 1
	}
	return label
}
