package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

var (
	colorBackground  = color.RGBA{0xfa, 0xfa, 0xfa, 0xff}
	colorCellArea    = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorGridLine    = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	colorHeaderBand  = color.RGBA{0xee, 0xee, 0xee, 0xff}
	colorHeaderText  = color.RGBA{0x55, 0x55, 0x55, 0xff}
	colorForeground  = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colorHighlight   = color.RGBA{0xff, 0xeb, 0x3b, 0xff}
	colorGroupStroke = color.RGBA{0x90, 0xa4, 0xae, 0xff}
	colorDropTarget  = color.RGBA{0x19, 0x76, 0xd2, 0xff}
	colorNoteFlag    = color.RGBA{0xf9, 0xa8, 0x25, 0xff}
	colorShadow      = color.RGBA{0x00, 0x00, 0x00, 0x50}
)

// renderer draws one surface per frame: immediate mode, single pass, only
// the rows and columns intersecting the visible window.
type renderer struct {
	cfg *Config

	w, h int
	dc   *gg.Context

	mono  *truetype.Font
	bold  *truetype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	size int
	bold bool
}

func newRenderer(cfg *Config) (*renderer, error) {
	mono, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse mono font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &renderer{
		cfg:   cfg,
		mono:  mono,
		bold:  bold,
		faces: make(map[faceKey]font.Face),
	}, nil
}

// face returns a cached font face. Sizes are quantized to whole pixels so
// pinch zoom does not allocate a face per frame.
func (r *renderer) face(size float64, bold bool) font.Face {
	px := int(math.Round(clampFloat(size, 8, 28)))
	key := faceKey{size: px, bold: bold}
	if f, ok := r.faces[key]; ok {
		return f
	}
	ttf := r.mono
	if bold {
		ttf = r.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	r.faces[key] = f
	return f
}

// render draws the surface into an RGBA image of the given size. The drag
// record, when non-nil and hovering over this surface, contributes the drop
// target outline and the floating preview.
func (r *renderer) render(s *Surface, drag *dragRecord, now time.Time) image.Image {
	w, h := int(s.width), int(s.height)
	if w < 1 || h < 1 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	if r.dc == nil || r.w != w || r.h != h {
		r.dc = gg.NewContext(w, h)
		r.w, r.h = w, h
	}
	dc := r.dc
	vp := s.viewport()
	geom := s.geom

	// 1. clear
	dc.SetColor(colorBackground)
	dc.Clear()

	// 2. cell area + grid lattice, visible window only
	r0, r1, c0, c1 := geom.visibleRange(vp, s.width, s.height)
	bodyX0, bodyY0 := geom.gridToScreen(r0, c0, vp)
	bodyX1, bodyY1 := geom.gridToScreen(r1+1, c1+1, vp)
	dc.SetColor(colorCellArea)
	dc.DrawRectangle(bodyX0, bodyY0, bodyX1-bodyX0, bodyY1-bodyY0)
	dc.Fill()

	dc.SetColor(colorGridLine)
	dc.SetLineWidth(1.0)
	for col := c0; col <= c1+1; col++ {
		x, _ := geom.gridToScreen(r0, col, vp)
		dc.DrawLine(x, bodyY0, x, bodyY1)
		dc.Stroke()
	}
	for row := r0; row <= r1+1; row++ {
		_, y := geom.gridToScreen(row, c0, vp)
		dc.DrawLine(bodyX0, y, bodyX1, y)
		dc.Stroke()
	}

	// 3. populated cells
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if cell, ok := s.cellAt(row, col); ok {
				r.drawCell(dc, geom, vp, cell)
			}
		}
	}

	// 4. highlight overlay with pulsing alpha
	if alpha := s.highlightAlpha(now, r.cfg.pulseWindow()); alpha > 0 {
		dc.SetRGBA(float64(colorHighlight.R)/255, float64(colorHighlight.G)/255, float64(colorHighlight.B)/255, alpha)
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				cell, ok := s.cellAt(row, col)
				if !ok || cell.CombinedCode() != s.highlightCode {
					continue
				}
				x, y := geom.gridToScreen(row, col, vp)
				dc.DrawRectangle(x, y, geom.cellW*vp.scale, geom.cellH*vp.scale)
				dc.Fill()
			}
		}
	}

	// 5. vertical group outlines
	dc.SetColor(colorGroupStroke)
	dc.SetLineWidth(2.0)
	for _, run := range s.columnRuns() {
		if run.endRow < r0 || run.startRow > r1 || run.col < c0 || run.col > c1 {
			continue
		}
		x, y := geom.gridToScreen(run.startRow, run.col, vp)
		hpx := float64(run.endRow-run.startRow+1) * geom.cellH * vp.scale
		dc.DrawRectangle(x+1, y+1, geom.cellW*vp.scale-2, hpx-2)
		dc.Stroke()
	}

	// 6. fixed header bands on top of the body
	r.drawHeaders(dc, s, vp, r0, r1, c0, c1)

	// 7. drag preview and prospective drop target
	if drag != nil && s.containsWindowPoint(drag.cursorX, drag.cursorY) {
		lx, ly := s.toLocal(drag.cursorX, drag.cursorY)
		if row, col, ok := geom.screenToGrid(lx, ly, vp); ok {
			x, y := geom.gridToScreen(row, col, vp)
			dc.SetColor(colorDropTarget)
			dc.SetLineWidth(3.0)
			dc.DrawRectangle(x+1.5, y+1.5, geom.cellW*vp.scale-3, geom.cellH*vp.scale-3)
			dc.Stroke()
		}
		r.drawDragPreview(dc, drag, lx, ly)
	}

	return dc.Image()
}

func (r *renderer) drawCell(dc *gg.Context, geom gridGeometry, vp viewport, cell Cell) {
	x, y := geom.gridToScreen(cell.Row, cell.Col, vp)
	cw := geom.cellW * vp.scale
	ch := geom.cellH * vp.scale
	accent := materialColor(cell.Code1)

	// background tint and left accent bar, both from the family color
	dc.SetRGBA(float64(accent.R)/255, float64(accent.G)/255, float64(accent.B)/255, 0.10)
	dc.DrawRectangle(x, y, cw, ch)
	dc.Fill()
	dc.SetColor(accent)
	dc.DrawRectangle(x, y, 4*vp.scale, ch)
	dc.Fill()

	pad := 6 * vp.scale

	// combined code top-left in the accent color
	dc.SetFontFace(r.face(13*vp.scale, true))
	dc.SetColor(accent)
	dc.DrawStringAnchored(cell.Code1+cell.Code2, x+pad+4*vp.scale, y+pad, 0, 1)

	// suffix top-right, neutral
	if cell.Code3 != "" {
		dc.SetFontFace(r.face(11*vp.scale, false))
		dc.SetColor(colorForeground)
		dc.DrawStringAnchored(cell.Code3, x+cw-pad, y+pad, 1, 1)
	}

	// quantity centered near the bottom
	if cell.Quantity > 0 {
		dc.SetFontFace(r.face(16*vp.scale, true))
		dc.SetColor(colorForeground)
		dc.DrawStringAnchored(formatQuantity(cell.Quantity), x+cw/2, y+ch-pad, 0.5, 0)
	}

	// note indicator: small triangle in the top-right corner
	if cell.Note != "" {
		t := 10 * vp.scale
		dc.SetColor(colorNoteFlag)
		dc.MoveTo(x+cw-t, y)
		dc.LineTo(x+cw, y)
		dc.LineTo(x+cw, y+t)
		dc.ClosePath()
		dc.Fill()
	}
}

// drawHeaders repaints the pinned bands: column letters stay fixed
// vertically but track horizontal pan/zoom, row numbers the other way
// around.
func (r *renderer) drawHeaders(dc *gg.Context, s *Surface, vp viewport, r0, r1, c0, c1 int) {
	geom := s.geom

	dc.SetColor(colorHeaderBand)
	dc.DrawRectangle(0, 0, s.width, geom.headerH)
	dc.Fill()
	dc.DrawRectangle(0, 0, geom.labelW, s.height)
	dc.Fill()

	dc.SetFontFace(r.face(11, true))
	dc.SetColor(colorHeaderText)
	for col := c0; col <= c1; col++ {
		x, _ := geom.gridToScreen(0, col, vp)
		cx := x + geom.cellW*vp.scale/2
		if cx < geom.labelW {
			continue
		}
		dc.DrawStringAnchored(columnLabel(col), cx, geom.headerH/2, 0.5, 0.35)
	}
	for row := r0; row <= r1; row++ {
		_, y := geom.gridToScreen(row, 0, vp)
		cy := y + geom.cellH*vp.scale/2
		if cy < geom.headerH {
			continue
		}
		dc.DrawStringAnchored(strconv.Itoa(row+1), geom.labelW/2, cy, 0.5, 0.35)
	}

	// corner square masks the band overlap
	dc.SetColor(colorHeaderBand)
	dc.DrawRectangle(0, 0, geom.labelW, geom.headerH)
	dc.Fill()
}

// drawDragPreview floats the dragged cell's code and quantity near the
// cursor with a drop shadow.
func (r *renderer) drawDragPreview(dc *gg.Context, drag *dragRecord, lx, ly float64) {
	label := drag.cell.CombinedCode()
	if drag.cell.Quantity > 0 {
		label += "  " + formatQuantity(drag.cell.Quantity)
	}

	dc.SetFontFace(r.face(13, true))
	tw, th := dc.MeasureString(label)
	px := lx + 14
	py := ly - 14
	bw := tw + 16
	bh := th + 12

	dc.SetColor(colorShadow)
	dc.DrawRoundedRectangle(px+3, py+3, bw, bh, 4)
	dc.Fill()

	accent := materialColor(drag.cell.Code1)
	dc.SetColor(color.White)
	dc.DrawRoundedRectangle(px, py, bw, bh, 4)
	dc.Fill()
	dc.SetColor(accent)
	dc.SetLineWidth(2.0)
	dc.DrawRoundedRectangle(px, py, bw, bh, 4)
	dc.Stroke()
	dc.DrawStringAnchored(label, px+8, py+bh/2, 0, 0.35)
}

// formatQuantity trims trailing zeros so fractional counts stay compact.
func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
