package main

import (
	"math"
	"time"
)

// pointerEvent is one raw input sample: a contact appearing, moving, or
// leaving, or the per-frame tick that advances the long-press clock. All
// positions are surface-local screen coordinates; timestamps are monotonic.
type pointerEvent struct {
	kind pointerEventKind
	id   int
	x, y float64
	time time.Time
}

// gestureEffect is a semantic output of the machine. The surface applies
// effects to its viewport, drag coordinator, and tap handler; the machine
// itself never mutates anything outside its own state.
type gestureEffect struct {
	kind   effectKind
	x, y   float64 // tap / drag start / drag cursor / pinch centroid
	dx, dy float64 // pan delta, raw pixels
	ratio  float64 // pinch scale ratio relative to the gesture baseline
}

type gestureConfig struct {
	tapThreshold   float64
	pinchThreshold float64
	longPress      time.Duration
}

// gestureMachine disambiguates tap / pan / pinch / long-press-drag from a
// stream of pointer events. Only the first contact controls tap and drag
// semantics; a second contact promotes to zooming; third and later
// simultaneous contacts are ignored.
type gestureMachine struct {
	cfg gestureConfig

	// canDrag reports whether a long-press at this point may start a drag
	// (i.e. the cell under it holds content). Injected by the surface.
	canDrag func(x, y float64) bool

	state    gestureStateKind
	pointers map[int]*pointerRecord
	order    []int // arrival order of active contacts

	deadline      time.Time
	deadlineArmed bool

	// pinch baseline, captured when the second contact lands
	pinchDist    float64
	pinchCX      float64
	pinchCY      float64
	pinchEngaged bool
}

func newGestureMachine(cfg gestureConfig, canDrag func(x, y float64) bool) *gestureMachine {
	if canDrag == nil {
		canDrag = func(float64, float64) bool { return false }
	}
	return &gestureMachine{
		cfg:      cfg,
		canDrag:  canDrag,
		state:    gestureIdle,
		pointers: make(map[int]*pointerRecord),
	}
}

// handle advances the machine by one event and returns the effects to apply.
func (g *gestureMachine) handle(ev pointerEvent) []gestureEffect {
	switch ev.kind {
	case pointerDown:
		return g.handleDown(ev)
	case pointerMove:
		return g.handleMove(ev)
	case pointerUp:
		return g.handleUp(ev)
	case pointerCancel:
		return g.handleCancel(ev)
	case pointerTick:
		return g.handleTick(ev)
	}
	return nil
}

func (g *gestureMachine) handleDown(ev pointerEvent) []gestureEffect {
	if _, exists := g.pointers[ev.id]; exists {
		return nil
	}
	g.pointers[ev.id] = &pointerRecord{
		id: ev.id, x: ev.x, y: ev.y,
		startX: ev.x, startY: ev.y, startTime: ev.time,
	}
	g.order = append(g.order, ev.id)

	switch len(g.order) {
	case 1:
		g.state = gesturePressed
		g.deadline = ev.time.Add(g.cfg.longPress)
		g.deadlineArmed = true
		return nil
	case 2:
		if g.state == gestureDragging {
			// extra contact during a drag is inert
			return nil
		}
		// second contact before resolution: promote to zooming
		g.disarm()
		g.state = gestureZooming
		a, b := g.pointers[g.order[0]], g.pointers[g.order[1]]
		g.pinchDist = dist(a.x, a.y, b.x, b.y)
		g.pinchCX = (a.x + b.x) / 2
		g.pinchCY = (a.y + b.y) / 2
		g.pinchEngaged = false
		return []gestureEffect{{kind: effectZoomBegin, x: g.pinchCX, y: g.pinchCY}}
	default:
		// no 3-finger gestures
		return nil
	}
}

func (g *gestureMachine) handleMove(ev pointerEvent) []gestureEffect {
	p, ok := g.pointers[ev.id]
	if !ok {
		return nil
	}
	prevX, prevY := p.x, p.y
	p.x, p.y = ev.x, ev.y

	first := len(g.order) > 0 && g.order[0] == ev.id

	switch g.state {
	case gesturePressed:
		if !first {
			return nil
		}
		if dist(ev.x, ev.y, p.startX, p.startY) > g.cfg.tapThreshold {
			// movement kills the long-press before it can fire
			g.disarm()
			g.state = gesturePanning
			return []gestureEffect{{kind: effectPanBy, dx: ev.x - p.startX, dy: ev.y - p.startY}}
		}
		return nil

	case gesturePanning:
		if !first {
			return nil
		}
		return []gestureEffect{{kind: effectPanBy, dx: ev.x - prevX, dy: ev.y - prevY}}

	case gestureZooming:
		if len(g.order) < 2 || (ev.id != g.order[0] && ev.id != g.order[1]) {
			return nil
		}
		a, b := g.pointers[g.order[0]], g.pointers[g.order[1]]
		d := dist(a.x, a.y, b.x, b.y)
		if !g.pinchEngaged && math.Abs(d-g.pinchDist) <= g.cfg.pinchThreshold {
			return nil
		}
		g.pinchEngaged = true
		if g.pinchDist == 0 {
			return nil
		}
		return []gestureEffect{{
			kind:  effectZoomTo,
			x:     g.pinchCX,
			y:     g.pinchCY,
			ratio: d / g.pinchDist,
		}}

	case gestureDragging:
		if !first {
			return nil
		}
		return []gestureEffect{{kind: effectDragMove, x: ev.x, y: ev.y}}
	}
	return nil
}

func (g *gestureMachine) handleTick(ev pointerEvent) []gestureEffect {
	if g.state != gesturePressed || !g.deadlineArmed || ev.time.Before(g.deadline) {
		return nil
	}
	g.disarm()
	p := g.firstPointer()
	if p == nil {
		return nil
	}
	if !g.canDrag(p.startX, p.startY) {
		// empty cell under the press: no drag, and the eventual release is
		// too late to count as a tap
		return nil
	}
	g.state = gestureDragging
	return []gestureEffect{{kind: effectDragStart, x: p.startX, y: p.startY}}
}

func (g *gestureMachine) handleUp(ev pointerEvent) []gestureEffect {
	p, ok := g.pointers[ev.id]
	if !ok {
		return nil
	}
	first := len(g.order) > 0 && g.order[0] == ev.id
	wasState := g.state
	g.removePointer(ev.id)

	var effects []gestureEffect
	if first {
		switch wasState {
		case gestureDragging:
			effects = append(effects, gestureEffect{kind: effectDragEnd, x: p.x, y: p.y})
		case gesturePressed:
			moved := dist(p.x, p.y, p.startX, p.startY)
			if moved < g.cfg.tapThreshold && ev.time.Sub(p.startTime) < g.cfg.longPress {
				// tap resolves against the press point, not the release point
				effects = append(effects, gestureEffect{kind: effectTap, x: p.startX, y: p.startY})
			}
		}
	}

	g.disarm()
	if len(g.order) == 0 {
		g.state = gestureIdle
	} else if wasState == gestureZooming && len(g.order) == 1 {
		// one finger left after a pinch: restart a pan from where it sits
		g.state = gesturePanning
	} else if wasState == gestureDragging || wasState == gesturePressed {
		g.state = gestureIdle
	}
	return effects
}

func (g *gestureMachine) handleCancel(ev pointerEvent) []gestureEffect {
	if _, ok := g.pointers[ev.id]; !ok {
		return nil
	}
	wasDragging := g.state == gestureDragging && len(g.order) > 0 && g.order[0] == ev.id
	g.removePointer(ev.id)
	g.disarm()

	var effects []gestureEffect
	if wasDragging {
		effects = append(effects, gestureEffect{kind: effectDragCancel})
		g.state = gestureIdle
	} else if len(g.order) == 0 {
		g.state = gestureIdle
	}
	return effects
}

func (g *gestureMachine) disarm() { g.deadlineArmed = false }

func (g *gestureMachine) firstPointer() *pointerRecord {
	if len(g.order) == 0 {
		return nil
	}
	return g.pointers[g.order[0]]
}

func (g *gestureMachine) removePointer(id int) {
	delete(g.pointers, id)
	for i, pid := range g.order {
		if pid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func dist(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
