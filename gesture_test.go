package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGestureConfig() gestureConfig {
	return gestureConfig{
		tapThreshold:   10,
		pinchThreshold: 10,
		longPress:      500 * time.Millisecond,
	}
}

func effectsOfKind(effects []gestureEffect, kind effectKind) []gestureEffect {
	var out []gestureEffect
	for _, e := range effects {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestGesture_TapDispatchesOnce(t *testing.T) {
	g := newGestureMachine(testGestureConfig(), func(x, y float64) bool { return true })
	t0 := time.Now()

	var all []gestureEffect
	all = append(all, g.handle(pointerEvent{kind: pointerDown, id: 1, x: 100, y: 100, time: t0})...)
	all = append(all, g.handle(pointerEvent{kind: pointerMove, id: 1, x: 103, y: 102, time: t0.Add(50 * time.Millisecond)})...)
	all = append(all, g.handle(pointerEvent{kind: pointerTick, time: t0.Add(80 * time.Millisecond)})...)
	all = append(all, g.handle(pointerEvent{kind: pointerUp, id: 1, x: 103, y: 102, time: t0.Add(100 * time.Millisecond)})...)

	taps := effectsOfKind(all, effectTap)
	require.Len(t, taps, 1)
	// tap resolves at the press point, not the release point
	assert.Equal(t, 100.0, taps[0].x)
	assert.Equal(t, 100.0, taps[0].y)

	assert.Empty(t, effectsOfKind(all, effectPanBy))
	assert.Empty(t, effectsOfKind(all, effectZoomTo))
	assert.Empty(t, effectsOfKind(all, effectDragStart))
	assert.Equal(t, gestureIdle, g.state)
}

func TestGesture_SlowReleaseIsNotATap(t *testing.T) {
	g := newGestureMachine(testGestureConfig(), func(x, y float64) bool { return false })
	t0 := time.Now()

	g.handle(pointerEvent{kind: pointerDown, id: 1, x: 100, y: 100, time: t0})
	// deadline fires over an empty cell: no drag, and the release is too
	// late to be a tap
	effects := g.handle(pointerEvent{kind: pointerTick, time: t0.Add(600 * time.Millisecond)})
	assert.Empty(t, effects)

	effects = g.handle(pointerEvent{kind: pointerUp, id: 1, x: 100, y: 100, time: t0.Add(700 * time.Millisecond)})
	assert.Empty(t, effectsOfKind(effects, effectTap))
	assert.Empty(t, effectsOfKind(effects, effectDragStart))
	assert.Equal(t, gestureIdle, g.state)
}

func TestGesture_MovementPromotesToPan(t *testing.T) {
	g := newGestureMachine(testGestureConfig(), func(x, y float64) bool { return true })
	t0 := time.Now()

	g.handle(pointerEvent{kind: pointerDown, id: 1, x: 100, y: 100, time: t0})
	effects := g.handle(pointerEvent{kind: pointerMove, id: 1, x: 130, y: 100, time: t0.Add(100 * time.Millisecond)})
	pans := effectsOfKind(effects, effectPanBy)
	require.Len(t, pans, 1)
	assert.Equal(t, 30.0, pans[0].dx)
	assert.Equal(t, 0.0, pans[0].dy)
	assert.Equal(t, gesturePanning, g.state)

	// subsequent moves pan by the incremental delta
	effects = g.handle(pointerEvent{kind: pointerMove, id: 1, x: 135, y: 110, time: t0.Add(150 * time.Millisecond)})
	pans = effectsOfKind(effects, effectPanBy)
	require.Len(t, pans, 1)
	assert.Equal(t, 5.0, pans[0].dx)
	assert.Equal(t, 10.0, pans[0].dy)

	// the long-press deadline was killed by the movement
	effects = g.handle(pointerEvent{kind: pointerTick, time: t0.Add(time.Second)})
	assert.Empty(t, effectsOfKind(effects, effectDragStart))

	// releasing a pan is not a tap
	effects = g.handle(pointerEvent{kind: pointerUp, id: 1, x: 135, y: 110, time: t0.Add(time.Second)})
	assert.Empty(t, effectsOfKind(effects, effectTap))
	assert.Equal(t, gestureIdle, g.state)
}

func TestGesture_LongPressStartsDragOnPopulatedCell(t *testing.T) {
	g := newGestureMachine(testGestureConfig(), func(x, y float64) bool { return true })
	t0 := time.Now()

	g.handle(pointerEvent{kind: pointerDown, id: 1, x: 200, y: 150, time: t0})
	effects := g.handle(pointerEvent{kind: pointerTick, time: t0.Add(400 * time.Millisecond)})
	assert.Empty(t, effects, "deadline has not elapsed yet")

	effects = g.handle(pointerEvent{kind: pointerTick, time: t0.Add(500 * time.Millisecond)})
	starts := effectsOfKind(effects, effectDragStart)
	require.Len(t, starts, 1)
	assert.Equal(t, 200.0, starts[0].x)
	assert.Equal(t, 150.0, starts[0].y)
	assert.Equal(t, gestureDragging, g.state)

	// a second tick never fires the deadline again
	effects = g.handle(pointerEvent{kind: pointerTick, time: t0.Add(time.Second)})
	assert.Empty(t, effectsOfKind(effects, effectDragStart))

	effects = g.handle(pointerEvent{kind: pointerMove, id: 1, x: 260, y: 180, time: t0.Add(600 * time.Millisecond)})
	moves := effectsOfKind(effects, effectDragMove)
	require.Len(t, moves, 1)
	assert.Equal(t, 260.0, moves[0].x)

	effects = g.handle(pointerEvent{kind: pointerUp, id: 1, x: 260, y: 180, time: t0.Add(700 * time.Millisecond)})
	ends := effectsOfKind(effects, effectDragEnd)
	require.Len(t, ends, 1)
	assert.Empty(t, effectsOfKind(effects, effectTap))
	assert.Equal(t, gestureIdle, g.state)
}

func TestGesture_LongPressOnEmptyCellStaysInert(t *testing.T) {
	g := newGestureMachine(testGestureConfig(), func(x, y float64) bool { return false })
	t0 := time.Now()

	g.handle(pointerEvent{kind: pointerDown, id: 1, x: 10, y: 10, time: t0})
	effects := g.handle(pointerEvent{kind: pointerTick, time: t0.Add(time.Second)})
	assert.Empty(t, effects)
	assert.Equal(t, gesturePressed, g.state)
}

func TestGesture_SecondContactPromotesToZoom(t *testing.T) {
	g := newGestureMachine(testGestureConfig(), func(x, y float64) bool { return true })
	t0 := time.Now()

	g.handle(pointerEvent{kind: pointerDown, id: 1, x: 100, y: 100, time: t0})
	effects := g.handle(pointerEvent{kind: pointerDown, id: 2, x: 200, y: 100, time: t0.Add(100 * time.Millisecond)})
	begins := effectsOfKind(effects, effectZoomBegin)
	require.Len(t, begins, 1)
	assert.Equal(t, 150.0, begins[0].x)
	assert.Equal(t, 100.0, begins[0].y)
	assert.Equal(t, gestureZooming, g.state)

	// the long-press deadline was cancelled by the second contact
	effects = g.handle(pointerEvent{kind: pointerTick, time: t0.Add(time.Second)})
	assert.Empty(t, effectsOfKind(effects, effectDragStart))

	// below the pinch threshold: no rescale yet
	effects = g.handle(pointerEvent{kind: pointerMove, id: 2, x: 205, y: 100, time: t0.Add(200 * time.Millisecond)})
	assert.Empty(t, effectsOfKind(effects, effectZoomTo))

	// past the threshold: scale ratio relative to the initial distance
	effects = g.handle(pointerEvent{kind: pointerMove, id: 2, x: 220, y: 100, time: t0.Add(300 * time.Millisecond)})
	zooms := effectsOfKind(effects, effectZoomTo)
	require.Len(t, zooms, 1)
	assert.InDelta(t, 1.2, zooms[0].ratio, 1e-9)
	assert.Equal(t, 150.0, zooms[0].x, "centroid stays the anchor")

	// once engaged, every move rescales
	effects = g.handle(pointerEvent{kind: pointerMove, id: 2, x: 150, y: 100, time: t0.Add(400 * time.Millisecond)})
	zooms = effectsOfKind(effects, effectZoomTo)
	require.Len(t, zooms, 1)
	assert.InDelta(t, 0.5, zooms[0].ratio, 1e-9)
}

func TestGesture_ThirdContactIgnored(t *testing.T) {
	g := newGestureMachine(testGestureConfig(), func(x, y float64) bool { return true })
	t0 := time.Now()

	g.handle(pointerEvent{kind: pointerDown, id: 1, x: 100, y: 100, time: t0})
	g.handle(pointerEvent{kind: pointerDown, id: 2, x: 200, y: 100, time: t0})
	effects := g.handle(pointerEvent{kind: pointerDown, id: 3, x: 150, y: 200, time: t0})
	assert.Empty(t, effects)
	assert.Equal(t, gestureZooming, g.state)

	// a move of the third contact changes nothing
	effects = g.handle(pointerEvent{kind: pointerMove, id: 3, x: 400, y: 400, time: t0})
	assert.Empty(t, effects)
}

func TestGesture_FingerLeftAfterPinchRestartsPan(t *testing.T) {
	g := newGestureMachine(testGestureConfig(), func(x, y float64) bool { return true })
	t0 := time.Now()

	g.handle(pointerEvent{kind: pointerDown, id: 1, x: 100, y: 100, time: t0})
	g.handle(pointerEvent{kind: pointerDown, id: 2, x: 200, y: 100, time: t0})
	effects := g.handle(pointerEvent{kind: pointerUp, id: 2, x: 200, y: 100, time: t0.Add(300 * time.Millisecond)})
	assert.Empty(t, effectsOfKind(effects, effectTap))
	assert.Equal(t, gesturePanning, g.state)

	effects = g.handle(pointerEvent{kind: pointerMove, id: 1, x: 110, y: 105, time: t0.Add(400 * time.Millisecond)})
	pans := effectsOfKind(effects, effectPanBy)
	require.Len(t, pans, 1)
	assert.Equal(t, 10.0, pans[0].dx)
	assert.Equal(t, 5.0, pans[0].dy)
}

func TestGesture_CancelClearsEverything(t *testing.T) {
	g := newGestureMachine(testGestureConfig(), func(x, y float64) bool { return true })
	t0 := time.Now()

	// cancel during a drag emits a drag cancel
	g.handle(pointerEvent{kind: pointerDown, id: 1, x: 100, y: 100, time: t0})
	g.handle(pointerEvent{kind: pointerTick, time: t0.Add(600 * time.Millisecond)})
	require.Equal(t, gestureDragging, g.state)
	effects := g.handle(pointerEvent{kind: pointerCancel, id: 1, time: t0.Add(700 * time.Millisecond)})
	require.Len(t, effectsOfKind(effects, effectDragCancel), 1)
	assert.Equal(t, gestureIdle, g.state)
	assert.Empty(t, g.pointers)

	// cancel during a press kills the armed deadline
	g.handle(pointerEvent{kind: pointerDown, id: 5, x: 50, y: 50, time: t0})
	g.handle(pointerEvent{kind: pointerCancel, id: 5, time: t0.Add(100 * time.Millisecond)})
	effects = g.handle(pointerEvent{kind: pointerTick, time: t0.Add(time.Second)})
	assert.Empty(t, effects, "no spurious drag start after cancel")
	assert.Equal(t, gestureIdle, g.state)
}
