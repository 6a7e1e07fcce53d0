package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSurfacePair(t *testing.T) (*Surface, *Surface, *dragCoordinator) {
	t.Helper()
	cfg := defaultConfig()
	gcfg := cfg.gestureConfig()
	mainSurf := newSurface(surfaceOptions{
		id: surfaceMain, geom: cfg.mainGeometry(), pan: true, zoom: true,
	}, nil, nil, gcfg, cfg.MinScale, cfg.MaxScale)
	bufSurf := newSurface(surfaceOptions{
		id: surfaceBuffer, geom: cfg.bufferGeometry(), pan: true, zoom: false,
	}, nil, nil, gcfg, 1.0, 1.0)
	mainSurf.setFrame(0, 0, 1280, 700)
	bufSurf.setFrame(0, 700, 1280, 152)
	coord := newDragCoordinator(nil, bufSurf, mainSurf)
	return mainSurf, bufSurf, coord
}

// dropOnto drives a full drag through the coordinator, window coordinates
// resolved from grid positions.
func dropOnto(t *testing.T, coord *dragCoordinator, src *Surface, fromRow, fromCol int, dst *Surface, toRow, toCol int) {
	t.Helper()
	cell, ok := src.cellAt(fromRow, fromCol)
	require.True(t, ok, "drag source (%d,%d) must hold content", fromRow, fromCol)

	lx, ly := src.geom.gridToScreenCenter(fromRow, fromCol, src.viewport())
	wx, wy := src.toWindow(lx, ly)
	coord.begin(src.id, cell, fromRow, fromCol, wx, wy)

	lx, ly = dst.geom.gridToScreenCenter(toRow, toCol, dst.viewport())
	wx, wy = dst.toWindow(lx, ly)
	coord.move(wx, wy)
	coord.end(wx, wy)
}

func TestDrag_MoveToEmptyCell(t *testing.T) {
	mainSurf, _, coord := testSurfacePair(t)
	cell := Cell{Row: 0, Col: 0, Code1: "S", Code2: "5", Quantity: 2}
	mainSurf.setCell(cell)

	dropOnto(t, coord, mainSurf, 0, 0, mainSurf, 2, 3)

	_, stillThere := mainSurf.cellAt(0, 0)
	assert.False(t, stillThere, "move deletes the source record")
	moved, ok := mainSurf.cellAt(2, 3)
	require.True(t, ok)
	assert.Equal(t, cell.AtPosition(2, 3), moved)
	assert.Nil(t, coord.record(), "drag state cleared after drop")
}

func TestDrag_DropOnSelfIsNoop(t *testing.T) {
	mainSurf, _, coord := testSurfacePair(t)
	cell := Cell{Row: 1, Col: 1, Code1: "A", Quantity: 1}
	mainSurf.setCell(cell)

	dropOnto(t, coord, mainSurf, 1, 1, mainSurf, 1, 1)

	got, ok := mainSurf.cellAt(1, 1)
	require.True(t, ok)
	assert.Equal(t, cell, got)
}

func TestDrag_SwapSymmetry_SameSurface(t *testing.T) {
	mainSurf, _, coord := testSurfacePair(t)
	a := Cell{Row: 0, Col: 0, Code1: "S", Code2: "5", Quantity: 2, Note: "a"}
	b := Cell{Row: 1, Col: 1, Code1: "A", Code2: "1", Quantity: 3, Note: "b"}
	mainSurf.setCell(a)
	mainSurf.setCell(b)

	dropOnto(t, coord, mainSurf, 0, 0, mainSurf, 1, 1)
	swappedA, ok := mainSurf.cellAt(1, 1)
	require.True(t, ok)
	assert.Equal(t, a.AtPosition(1, 1), swappedA)
	swappedB, ok := mainSurf.cellAt(0, 0)
	require.True(t, ok)
	assert.Equal(t, b.AtPosition(0, 0), swappedB)

	// swapping back restores the original arrangement
	dropOnto(t, coord, mainSurf, 1, 1, mainSurf, 0, 0)
	gotA, ok := mainSurf.cellAt(0, 0)
	require.True(t, ok)
	assert.Equal(t, a, gotA)
	gotB, ok := mainSurf.cellAt(1, 1)
	require.True(t, ok)
	assert.Equal(t, b, gotB)
}

func TestDrag_SwapSymmetry_CrossSurface(t *testing.T) {
	mainSurf, bufSurf, coord := testSurfacePair(t)
	a := Cell{Row: 2, Col: 3, Code1: "SI", Code2: "10", Quantity: 1.5}
	b := Cell{Row: 0, Col: 1, Code1: "P", Quantity: 4}
	mainSurf.setCell(a)
	bufSurf.setCell(b)

	dropOnto(t, coord, mainSurf, 2, 3, bufSurf, 0, 1)
	gotA, ok := bufSurf.cellAt(0, 1)
	require.True(t, ok)
	assert.Equal(t, a.AtPosition(0, 1), gotA)
	gotB, ok := mainSurf.cellAt(2, 3)
	require.True(t, ok)
	assert.Equal(t, b.AtPosition(2, 3), gotB)

	dropOnto(t, coord, bufSurf, 0, 1, mainSurf, 2, 3)
	gotA, ok = mainSurf.cellAt(2, 3)
	require.True(t, ok)
	assert.Equal(t, a, gotA)
	gotB, ok = bufSurf.cellAt(0, 1)
	require.True(t, ok)
	assert.Equal(t, b, gotB)
}

func TestDrag_CrossSurfaceMoveChangesKeySpaces(t *testing.T) {
	mainSurf, bufSurf, coord := testSurfacePair(t)
	cell := Cell{Row: 4, Col: 2, Code1: "G", Quantity: 7}
	mainSurf.setCell(cell)

	dropOnto(t, coord, mainSurf, 4, 2, bufSurf, 1, 0)

	_, inMain := mainSurf.cellAt(4, 2)
	assert.False(t, inMain)
	got, ok := bufSurf.cellAt(1, 0)
	require.True(t, ok)
	assert.Equal(t, cell.AtPosition(1, 0), got)
}

func TestDrag_DropOutsideAnyGridIsNoop(t *testing.T) {
	mainSurf, _, coord := testSurfacePair(t)
	cell := Cell{Row: 0, Col: 0, Code1: "W", Quantity: 1}
	mainSurf.setCell(cell)

	lx, ly := mainSurf.geom.gridToScreenCenter(0, 0, mainSurf.viewport())
	wx, wy := mainSurf.toWindow(lx, ly)
	coord.begin(surfaceMain, cell, 0, 0, wx, wy)
	coord.end(5, 5) // inside the header corner, resolves to no cell

	got, ok := mainSurf.cellAt(0, 0)
	require.True(t, ok)
	assert.Equal(t, cell, got)
	assert.Nil(t, coord.record())
}

func TestDrag_ExactlyOneCommitPerDrag(t *testing.T) {
	mainSurf, _, coord := testSurfacePair(t)
	mainSurf.setCell(Cell{Row: 0, Col: 0, Code1: "S", Quantity: 1})

	lx, ly := mainSurf.geom.gridToScreenCenter(0, 0, mainSurf.viewport())
	wx, wy := mainSurf.toWindow(lx, ly)
	coord.begin(surfaceMain, mainSurf.cells["0-0"], 0, 0, wx, wy)

	tx, ty := mainSurf.geom.gridToScreenCenter(1, 1, mainSurf.viewport())
	twx, twy := mainSurf.toWindow(tx, ty)
	coord.end(twx, twy)
	coord.end(twx, twy) // double-fire must not commit twice

	_, ok := mainSurf.cellAt(1, 1)
	assert.True(t, ok)
	assert.Len(t, mainSurf.cells, 1)
}

func TestDrag_CancelClearsRecord(t *testing.T) {
	mainSurf, _, coord := testSurfacePair(t)
	mainSurf.setCell(Cell{Row: 0, Col: 0, Code1: "S", Quantity: 1})

	coord.begin(surfaceMain, mainSurf.cells["0-0"], 0, 0, 100, 100)
	require.NotNil(t, coord.record())
	coord.cancel()
	assert.Nil(t, coord.record())

	// nothing moved
	_, ok := mainSurf.cellAt(0, 0)
	assert.True(t, ok)
}

func TestDrag_BufferHasDropPriority(t *testing.T) {
	mainSurf, bufSurf, coord := testSurfacePair(t)
	mainSurf.setCell(Cell{Row: 0, Col: 0, Code1: "S", Quantity: 1})

	// a point inside the buffer frame resolves against the buffer even
	// though the main surface also sits in the window
	lx, ly := bufSurf.geom.gridToScreenCenter(0, 0, bufSurf.viewport())
	wx, wy := bufSurf.toWindow(lx, ly)
	target, row, col, ok := coord.hitTest(wx, wy)
	require.True(t, ok)
	assert.Equal(t, surfaceBuffer, target.id)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
}
