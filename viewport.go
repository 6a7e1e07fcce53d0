package main

// viewport is the pan/zoom transform of one surface. It is mutated only by
// gesture effects (and the mouse wheel, which goes through the same zoom
// path) and read every frame by the renderer.
type viewport struct {
	offsetX float64
	offsetY float64
	scale   float64
}

// viewportController applies gesture effects to a viewport, clamping scale
// and keeping the pinch centroid visually fixed while zooming.
type viewportController struct {
	vp viewport

	minScale float64
	maxScale float64
	panning  bool // pan effects mutate the offset
	zooming  bool // zoom effects rescale; false pins scale at 1.0

	// captured at zoomBegin so the whole pinch is relative to one baseline
	startScale   float64
	startOffsetX float64
	startOffsetY float64
}

func newViewportController(minScale, maxScale float64, pan, zoom bool) *viewportController {
	return &viewportController{
		vp:       viewport{scale: 1.0},
		minScale: minScale,
		maxScale: maxScale,
		panning:  pan,
		zooming:  zoom,
	}
}

func (vc *viewportController) viewport() viewport { return vc.vp }

// panBy shifts the offset by a raw pixel delta, 1:1 and unscaled.
func (vc *viewportController) panBy(dx, dy float64) {
	if !vc.panning {
		return
	}
	vc.vp.offsetX += dx
	vc.vp.offsetY += dy
}

// zoomBegin captures the baseline for a pinch gesture.
func (vc *viewportController) zoomBegin() {
	vc.startScale = vc.vp.scale
	vc.startOffsetX = vc.vp.offsetX
	vc.startOffsetY = vc.vp.offsetY
}

// zoomTo rescales by ratio relative to the pinch baseline, anchored so the
// centroid (cx, cy) in surface-local coordinates keeps pointing at the same
// grid position: new_offset = center - (center - old_offset) * (new/old).
func (vc *viewportController) zoomTo(cx, cy, ratio float64) {
	if !vc.zooming {
		return
	}
	newScale := clampFloat(vc.startScale*ratio, vc.minScale, vc.maxScale)
	k := newScale / vc.startScale
	vc.vp.offsetX = cx - (cx-vc.startOffsetX)*k
	vc.vp.offsetY = cy - (cy-vc.startOffsetY)*k
	vc.vp.scale = newScale
}

// zoomAbout is the single-step variant used by the mouse wheel: rescale by
// factor anchored at (cx, cy) against the current viewport.
func (vc *viewportController) zoomAbout(cx, cy, factor float64) {
	if !vc.zooming {
		return
	}
	vc.zoomBegin()
	vc.zoomTo(cx, cy, factor)
}
