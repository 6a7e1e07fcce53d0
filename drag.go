package main

import "log/slog"

// dragCoordinator owns the shared drag record for both surfaces. Surfaces
// report drag lifecycle through begin/move/end/cancel; the coordinator
// resolves the drop target and pushes set/remove commands back through
// surface methods. No two components ever write the same mutable state.
type dragCoordinator struct {
	// hit-test priority order: overlay surfaces first, base surface last
	surfaces []*Surface
	byID     map[surfaceID]*Surface
	logger   *slog.Logger

	active *dragRecord
}

func newDragCoordinator(logger *slog.Logger, surfaces ...*Surface) *dragCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	d := &dragCoordinator{
		surfaces: surfaces,
		byID:     make(map[surfaceID]*Surface, len(surfaces)),
		logger:   logger,
	}
	for _, s := range surfaces {
		d.byID[s.id] = s
		s.coord = d
	}
	return d
}

// record exposes the live drag for rendering; nil when no drag is active.
func (d *dragCoordinator) record() *dragRecord {
	return d.active
}

func (d *dragCoordinator) begin(source surfaceID, cell Cell, row, col int, wx, wy float64) {
	d.active = &dragRecord{
		source:  source,
		cell:    cell,
		srcRow:  row,
		srcCol:  col,
		cursorX: wx,
		cursorY: wy,
	}
}

func (d *dragCoordinator) move(wx, wy float64) {
	if d.active == nil {
		return
	}
	d.active.cursorX = wx
	d.active.cursorY = wy
}

func (d *dragCoordinator) cancel() {
	d.active = nil
}

// end resolves the drop at the final cursor position. Exactly one commit
// happens per drag; a cursor over no valid cell clears the drag with no
// effect.
func (d *dragCoordinator) end(wx, wy float64) {
	drag := d.active
	d.active = nil
	if drag == nil || drag.dropHandled {
		return
	}
	drag.dropHandled = true

	target, row, col, ok := d.hitTest(wx, wy)
	if !ok {
		return
	}
	d.resolveDrop(drag, target, row, col)
}

// hitTest asks each surface, in priority order, whether the window point
// resolves to a grid position. First valid answer wins.
func (d *dragCoordinator) hitTest(wx, wy float64) (*Surface, int, int, bool) {
	for _, s := range d.surfaces {
		if !s.containsWindowPoint(wx, wy) {
			continue
		}
		lx, ly := s.toLocal(wx, wy)
		if row, col, ok := s.geom.screenToGrid(lx, ly, s.viewport()); ok {
			return s, row, col, true
		}
	}
	return nil, 0, 0, false
}

// resolveDrop applies the move/swap policy. On a cross-surface swap the two
// key spaces are committed independently; they share no keys, so order
// between the background writes does not matter.
func (d *dragCoordinator) resolveDrop(drag *dragRecord, target *Surface, row, col int) {
	source, ok := d.byID[drag.source]
	if !ok {
		d.logger.Error("drag ended with unknown source surface", "source", drag.source.String())
		return
	}
	if source.id == target.id && drag.srcRow == row && drag.srcCol == col {
		return // dropped back where it started
	}

	occupant, occupied := target.cellAt(row, col)
	source.removeCell(drag.srcRow, drag.srcCol)
	target.setCell(drag.cell.AtPosition(row, col))
	if occupied {
		// swap: the displaced cell takes the dragged cell's old position
		source.setCell(occupant.AtPosition(drag.srcRow, drag.srcCol))
	}
}
