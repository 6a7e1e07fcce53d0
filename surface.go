package main

import (
	"math"
	"time"
)

// cellRun is a vertical group: a run of two or more populated cells at
// consecutive rows in one column. Purely positional, content is not
// compared.
type cellRun struct {
	col      int
	startRow int
	endRow   int // inclusive
}

// Surface is one independent grid instance: its own cell map, viewport,
// geometry, and gesture machine. The main grid and the buffer strip are two
// Surfaces sharing nothing but the drag coordinator.
type Surface struct {
	id    surfaceID
	geom  gridGeometry
	cells map[string]Cell

	vpc    *viewportController
	gest   *gestureMachine
	writer *storeWriter
	coord  *dragCoordinator

	// onTap receives the resolved grid position of a tap. Taps landing on
	// header bands or outside the grid are silently dropped.
	onTap func(s *Surface, row, col int)

	// haptic fires on drag start; no-op where the platform has no vibrator.
	haptic func()

	// placement of the surface inside the window
	originX, originY float64
	width, height    float64

	highlightCode  string
	highlightStart time.Time

	runs      []cellRun
	runsStale bool
}

type surfaceOptions struct {
	id   surfaceID
	geom gridGeometry
	pan  bool
	zoom bool
}

func newSurface(opts surfaceOptions, cells map[string]Cell, writer *storeWriter, gcfg gestureConfig, minScale, maxScale float64) *Surface {
	if cells == nil {
		cells = make(map[string]Cell)
	}
	s := &Surface{
		id:        opts.id,
		geom:      opts.geom,
		cells:     cells,
		vpc:       newViewportController(minScale, maxScale, opts.pan, opts.zoom),
		writer:    writer,
		haptic:    func() {},
		runsStale: true,
	}
	s.gest = newGestureMachine(gcfg, s.canDragAt)
	return s
}

func (s *Surface) setFrame(x, y, w, h float64) {
	s.originX, s.originY = x, y
	s.width, s.height = w, h
}

func (s *Surface) containsWindowPoint(wx, wy float64) bool {
	return wx >= s.originX && wx < s.originX+s.width &&
		wy >= s.originY && wy < s.originY+s.height
}

func (s *Surface) toLocal(wx, wy float64) (float64, float64) {
	return wx - s.originX, wy - s.originY
}

func (s *Surface) toWindow(lx, ly float64) (float64, float64) {
	return lx + s.originX, ly + s.originY
}

func (s *Surface) viewport() viewport { return s.vpc.viewport() }

// handlePointer feeds one event (surface-local coordinates) through the
// gesture machine and applies the resulting effects.
func (s *Surface) handlePointer(ev pointerEvent) {
	for _, eff := range s.gest.handle(ev) {
		s.applyEffect(eff)
	}
}

func (s *Surface) applyEffect(eff gestureEffect) {
	switch eff.kind {
	case effectTap:
		row, col, ok := s.geom.screenToGrid(eff.x, eff.y, s.viewport())
		if !ok {
			return // header band or out of range: not an error
		}
		if s.onTap != nil {
			s.onTap(s, row, col)
		}

	case effectPanBy:
		s.vpc.panBy(eff.dx, eff.dy)

	case effectZoomBegin:
		s.vpc.zoomBegin()

	case effectZoomTo:
		// anchor math runs in body coordinates, with the fixed bands removed
		s.vpc.zoomTo(eff.x-s.geom.labelW, eff.y-s.geom.headerH, eff.ratio)

	case effectDragStart:
		row, col, ok := s.geom.screenToGrid(eff.x, eff.y, s.viewport())
		if !ok {
			return
		}
		cell, ok := s.cellAt(row, col)
		if !ok {
			return
		}
		wx, wy := s.toWindow(eff.x, eff.y)
		s.coord.begin(s.id, cell, row, col, wx, wy)
		s.haptic()

	case effectDragMove:
		wx, wy := s.toWindow(eff.x, eff.y)
		s.coord.move(wx, wy)

	case effectDragEnd:
		wx, wy := s.toWindow(eff.x, eff.y)
		s.coord.end(wx, wy)

	case effectDragCancel:
		s.coord.cancel()
	}
}

// wheelZoom rescales about the cursor, sharing the pinch code path.
func (s *Surface) wheelZoom(lx, ly, factor float64) {
	s.vpc.zoomAbout(lx-s.geom.labelW, ly-s.geom.headerH, factor)
}

// canDragAt reports whether a long-press at a surface-local point sits on a
// populated cell.
func (s *Surface) canDragAt(x, y float64) bool {
	row, col, ok := s.geom.screenToGrid(x, y, s.viewport())
	if !ok {
		return false
	}
	_, occupied := s.cellAt(row, col)
	return occupied
}

func (s *Surface) cellAt(row, col int) (Cell, bool) {
	c, ok := s.cells[cellKey(row, col)]
	return c, ok
}

// setCell updates the in-memory map immediately and queues the durable
// write. The UI never waits on persistence.
func (s *Surface) setCell(cell Cell) {
	s.cells[cell.Key()] = cell
	s.runsStale = true
	if s.writer != nil {
		s.writer.Save(s.id, cell)
	}
}

func (s *Surface) removeCell(row, col int) {
	delete(s.cells, cellKey(row, col))
	s.runsStale = true
	if s.writer != nil {
		s.writer.Delete(s.id, row, col)
	}
}

// CommitEdit is the contract the editor collaborator calls with a completed
// record. Editing a cell down to empty removes it instead of storing a
// blank record.
func (s *Surface) CommitEdit(cell Cell) {
	if cell.IsEmpty() {
		s.removeCell(cell.Row, cell.Col)
		return
	}
	s.setCell(cell)
}

// DeleteAt is the editor collaborator's delete signal.
func (s *Surface) DeleteAt(row, col int) {
	s.removeCell(row, col)
}

// replaceCells swaps the whole in-memory map, used after import.
func (s *Surface) replaceCells(cells map[string]Cell) {
	if cells == nil {
		cells = make(map[string]Cell)
	}
	s.cells = cells
	s.runsStale = true
}

func (s *Surface) setHighlight(code string, now time.Time) {
	s.highlightCode = code
	s.highlightStart = now
}

func (s *Surface) clearHighlight() {
	s.highlightCode = ""
}

// highlightAlpha returns the overlay alpha for the pulsing highlight:
// 0.35 + 0.15*sin(3*pi*progress) over the pulse window, settling to the
// resting alpha once the window elapses.
func (s *Surface) highlightAlpha(now time.Time, window time.Duration) float64 {
	if s.highlightCode == "" {
		return 0
	}
	elapsed := now.Sub(s.highlightStart)
	if elapsed >= window {
		return highlightRestingAlpha
	}
	progress := float64(elapsed) / float64(window)
	return 0.35 + 0.15*math.Sin(3*math.Pi*progress)
}

// highlightAnimating reports whether the pulse window is still running, so
// the app keeps scheduling frames until it settles.
func (s *Surface) highlightAnimating(now time.Time, window time.Duration) bool {
	return s.highlightCode != "" && now.Sub(s.highlightStart) < window
}

// columnRuns returns the vertical groups, recomputing after any cell map
// change.
func (s *Surface) columnRuns() []cellRun {
	if !s.runsStale {
		return s.runs
	}
	occupied := make(map[int][]int) // col -> rows
	for _, c := range s.cells {
		occupied[c.Col] = append(occupied[c.Col], c.Row)
	}
	var runs []cellRun
	for col, rows := range occupied {
		sortInts(rows)
		start := -1
		prev := -2
		for _, r := range rows {
			if r == prev+1 {
				prev = r
				continue
			}
			if start >= 0 && prev > start {
				runs = append(runs, cellRun{col: col, startRow: start, endRow: prev})
			}
			start = r
			prev = r
		}
		if start >= 0 && prev > start {
			runs = append(runs, cellRun{col: col, startRow: start, endRow: prev})
		}
	}
	s.runs = runs
	s.runsStale = false
	return runs
}
