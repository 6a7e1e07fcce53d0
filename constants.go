package main

import "time"

type surfaceID int

const (
	surfaceMain surfaceID = iota
	surfaceBuffer
)

func (s surfaceID) String() string {
	switch s {
	case surfaceMain:
		return "main"
	case surfaceBuffer:
		return "buffer"
	}
	return "unknown"
}

// Gesture machine states. longPressPending is implicit: the machine is in
// gesturePressed with an armed deadline.
type gestureStateKind int

const (
	gestureIdle gestureStateKind = iota
	gesturePressed
	gesturePanning
	gestureZooming
	gestureDragging
)

func (k gestureStateKind) String() string {
	switch k {
	case gestureIdle:
		return "idle"
	case gesturePressed:
		return "pressed"
	case gesturePanning:
		return "panning"
	case gestureZooming:
		return "zooming"
	case gestureDragging:
		return "dragging"
	}
	return "unknown"
}

type pointerEventKind int

const (
	pointerDown pointerEventKind = iota
	pointerMove
	pointerUp
	pointerCancel
	pointerTick // per-frame clock event, drives the long-press deadline
)

type effectKind int

const (
	effectTap effectKind = iota
	effectPanBy
	effectZoomBegin
	effectZoomTo
	effectDragStart
	effectDragMove
	effectDragEnd
	effectDragCancel
)

// Default tuning. All of these are configuration, overridable from the
// config file; behavior (not the exact numbers) is what matters.
const (
	defaultTapThreshold   = 10.0 // px of displacement before a press becomes a pan
	defaultPinchThreshold = 10.0 // px of distance change before a pinch rescales
	defaultLongPress      = 500 * time.Millisecond
	defaultMinScale       = 0.3
	defaultMaxScale       = 3.0
	defaultHighlightPulse = 1500 * time.Millisecond
	highlightRestingAlpha = 0.3
)

const (
	defaultCellWidth    = 96.0
	defaultCellHeight   = 64.0
	defaultHeaderHeight = 24.0
	defaultLabelWidth   = 36.0
	defaultMainRows     = 40
	defaultMainCols     = 26
	defaultBufferRows   = 2
	defaultBufferCols   = 26
)
