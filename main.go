package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/fogleman/gg"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const mousePointerID = -1

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := loadConfig()

	store, err := OpenStore(cfg.DBPath, logger)
	if err != nil {
		// durability is gone but the grid still works from memory
		logger.Error("storage open failed, continuing without persistence", "path", cfg.DBPath, "error", err)
	}

	app, err := newApp(cfg, store, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.shutdown()

	ebiten.SetWindowTitle("gridstock")
	ebiten.SetWindowSize(1280, 900)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(app); err != nil {
		logger.Error("game loop failed", "error", err)
		os.Exit(1)
	}
}

// App owns the two surfaces, the drag coordinator, and the input pump. All
// gesture handling and rendering happen on the game loop; only the store
// writer runs in the background.
type App struct {
	cfg    *Config
	logger *slog.Logger
	store  *Store
	writer *storeWriter

	main   *Surface
	buffer *Surface
	coord  *dragCoordinator

	mainRenderer   *renderer
	bufferRenderer *renderer
	mainImg        *ebiten.Image
	bufferImg      *ebiten.Image

	width, height int

	// contacts are captured by the surface they started on
	contactSurface map[int]*Surface
	mouseDown      bool
	touchIDs       []ebiten.TouchID
	activeTouches  map[ebiten.TouchID]bool

	showSummary  bool
	message      string
	messageUntil time.Time
}

func newApp(cfg *Config, store *Store, logger *slog.Logger) (*App, error) {
	var writer *storeWriter
	mainCells := make(map[string]Cell)
	bufferCells := make(map[string]Cell)
	if store != nil {
		writer = newStoreWriter(store, logger)
		ctx := context.Background()
		var err error
		if mainCells, err = store.LoadCells(ctx, surfaceMain); err != nil {
			return nil, fmt.Errorf("load main cells: %w", err)
		}
		if bufferCells, err = store.LoadCells(ctx, surfaceBuffer); err != nil {
			return nil, fmt.Errorf("load buffer cells: %w", err)
		}
	}

	gcfg := cfg.gestureConfig()
	mainSurf := newSurface(surfaceOptions{
		id: surfaceMain, geom: cfg.mainGeometry(), pan: true, zoom: true,
	}, mainCells, writer, gcfg, cfg.MinScale, cfg.MaxScale)
	bufSurf := newSurface(surfaceOptions{
		id: surfaceBuffer, geom: cfg.bufferGeometry(), pan: true, zoom: false,
	}, bufferCells, writer, gcfg, 1.0, 1.0)

	mainRend, err := newRenderer(cfg)
	if err != nil {
		return nil, err
	}
	bufRend, err := newRenderer(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		writer:         writer,
		main:           mainSurf,
		buffer:         bufSurf,
		mainRenderer:   mainRend,
		bufferRenderer: bufRend,
		contactSurface: make(map[int]*Surface),
		activeTouches:  make(map[ebiten.TouchID]bool),
	}
	// buffer strip overlays conceptually above the main grid, so it gets
	// drop priority
	app.coord = newDragCoordinator(logger, bufSurf, mainSurf)

	mainSurf.onTap = app.handleCellTap
	bufSurf.onTap = app.handleCellTap
	return app, nil
}

func (a *App) shutdown() {
	if a.writer != nil {
		a.writer.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// handleCellTap is the stand-in for the external editor hookup: tapping a
// populated cell pulses the highlight for its combined code everywhere,
// tapping an empty cell clears it.
func (a *App) handleCellTap(s *Surface, row, col int) {
	now := time.Now()
	if cell, ok := s.cellAt(row, col); ok {
		code := cell.CombinedCode()
		a.main.setHighlight(code, now)
		a.buffer.setHighlight(code, now)
		return
	}
	a.main.clearHighlight()
	a.buffer.clearHighlight()
}

func (a *App) Update() error {
	now := time.Now()
	a.pumpMouse(now)
	a.pumpTouches(now)

	// the tick drives armed long-press deadlines
	tick := pointerEvent{kind: pointerTick, time: now}
	a.main.handlePointer(tick)
	a.buffer.handlePointer(tick)

	a.pumpWheel()
	if err := a.handleKeys(); err != nil {
		return err
	}
	return nil
}

// pumpMouse treats the mouse as one more pointer contact.
func (a *App) pumpMouse(now time.Time) {
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	switch {
	case pressed && !a.mouseDown:
		a.mouseDown = true
		a.dispatchDown(mousePointerID, x, y, now)
	case pressed && a.mouseDown:
		a.dispatchMove(mousePointerID, x, y, now)
	case !pressed && a.mouseDown:
		a.mouseDown = false
		a.dispatchUp(mousePointerID, x, y, now)
	}
}

// pumpTouches feeds touch contacts through the same dispatch path; a touch
// absent from this tick was released at its last known position.
func (a *App) pumpTouches(now time.Time) {
	a.touchIDs = ebiten.AppendTouchIDs(a.touchIDs[:0])
	seen := make(map[ebiten.TouchID]bool, len(a.touchIDs))
	for _, tid := range a.touchIDs {
		seen[tid] = true
		tx, ty := ebiten.TouchPosition(tid)
		x, y := float64(tx), float64(ty)
		if !a.activeTouches[tid] {
			a.activeTouches[tid] = true
			a.dispatchDown(int(tid), x, y, now)
		} else {
			a.dispatchMove(int(tid), x, y, now)
		}
	}
	for tid := range a.activeTouches {
		if seen[tid] {
			continue
		}
		delete(a.activeTouches, tid)
		tx, ty := inpututil.TouchPositionInPreviousTick(tid)
		a.dispatchUp(int(tid), float64(tx), float64(ty), now)
	}
}

// dispatchDown routes a new contact to the surface under it and captures
// the contact there for the rest of the gesture.
func (a *App) dispatchDown(id int, x, y float64, now time.Time) {
	s := a.surfaceAt(x, y)
	if s == nil {
		return
	}
	a.contactSurface[id] = s
	lx, ly := s.toLocal(x, y)
	s.handlePointer(pointerEvent{kind: pointerDown, id: id, x: lx, y: ly, time: now})
}

func (a *App) dispatchMove(id int, x, y float64, now time.Time) {
	s, ok := a.contactSurface[id]
	if !ok {
		return
	}
	lx, ly := s.toLocal(x, y)
	s.handlePointer(pointerEvent{kind: pointerMove, id: id, x: lx, y: ly, time: now})
}

func (a *App) dispatchUp(id int, x, y float64, now time.Time) {
	s, ok := a.contactSurface[id]
	if !ok {
		return
	}
	delete(a.contactSurface, id)
	lx, ly := s.toLocal(x, y)
	s.handlePointer(pointerEvent{kind: pointerUp, id: id, x: lx, y: ly, time: now})
}

func (a *App) surfaceAt(x, y float64) *Surface {
	if a.buffer.containsWindowPoint(x, y) {
		return a.buffer
	}
	if a.main.containsWindowPoint(x, y) {
		return a.main
	}
	return nil
}

func (a *App) pumpWheel() {
	_, wy := ebiten.Wheel()
	if wy == 0 {
		return
	}
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	s := a.surfaceAt(x, y)
	if s == nil {
		return
	}
	factor := 1.0 + 0.1*wy
	if factor < 0.5 {
		factor = 0.5
	}
	lx, ly := s.toLocal(x, y)
	s.wheelZoom(lx, ly, factor)
}

func (a *App) handleKeys() error {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		a.showSummary = !a.showSummary
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.main.clearHighlight()
		a.buffer.clearHighlight()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		a.exportToClipboard()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		a.importFromClipboard()
	}
	return nil
}

func (a *App) exportToClipboard() {
	data, err := exportJSON(a.main.cells, a.buffer.cells)
	if err != nil {
		a.setMessage("export failed: " + err.Error())
		return
	}
	if err := writeClipboardText(string(data)); err != nil {
		a.setMessage("clipboard write failed: " + err.Error())
		return
	}
	a.setMessage(fmt.Sprintf("exported %d + %d cells to clipboard", len(a.main.cells), len(a.buffer.cells)))
}

// importFromClipboard parses first and only touches the store after a clean
// parse; malformed input leaves everything as it was.
func (a *App) importFromClipboard() {
	text, err := readClipboardText()
	if err != nil {
		a.setMessage("clipboard read failed: " + err.Error())
		return
	}
	cells, bufferCells, err := importJSON([]byte(text))
	if err != nil {
		a.setMessage(err.Error())
		return
	}
	if a.store != nil {
		if err := a.store.ReplaceAll(context.Background(), cells, bufferCells); err != nil {
			a.logger.Error("import persist failed", "error", err)
			a.setMessage("import could not be saved")
			return
		}
	}
	a.main.replaceCells(cellsByKey(cells))
	a.buffer.replaceCells(cellsByKey(bufferCells))
	a.setMessage(fmt.Sprintf("imported %d + %d cells", len(cells), len(bufferCells)))
}

func cellsByKey(list []Cell) map[string]Cell {
	m := make(map[string]Cell, len(list))
	for _, c := range list {
		if !c.IsEmpty() {
			m[c.Key()] = c
		}
	}
	return m
}

func (a *App) setMessage(msg string) {
	a.message = msg
	a.messageUntil = time.Now().Add(4 * time.Second)
}

func (a *App) Draw(screen *ebiten.Image) {
	now := time.Now()
	drag := a.coord.record()

	a.mainImg = blit(screen, a.mainImg, a.mainRenderer.render(a.main, drag, now), a.main.originX, a.main.originY)
	a.bufferImg = blit(screen, a.bufferImg, a.bufferRenderer.render(a.buffer, drag, now), a.buffer.originX, a.buffer.originY)

	if a.showSummary {
		a.drawSummaryPanel(screen)
	}
	if a.message != "" && now.Before(a.messageUntil) {
		ebitenutil.DebugPrintAt(screen, a.message, 8, a.height-16)
	}
}

// blit copies a rendered RGBA frame onto the screen, reusing the GPU-side
// image across frames when the size is unchanged.
func blit(screen, dst *ebiten.Image, frame image.Image, x, y float64) *ebiten.Image {
	rgba, ok := frame.(*image.RGBA)
	if !ok {
		return dst
	}
	b := rgba.Bounds()
	if dst == nil || dst.Bounds().Dx() != b.Dx() || dst.Bounds().Dy() != b.Dy() {
		dst = ebiten.NewImage(b.Dx(), b.Dy())
	}
	dst.WritePixels(rgba.Pix)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(x, y)
	screen.DrawImage(dst, op)
	return dst
}

func (a *App) drawSummaryPanel(screen *ebiten.Image) {
	rows := summarize(a.main.cells)
	panelW := 260
	lineH := 20
	panelH := lineH*(len(rows)+2) + 12
	if panelH > a.height-40 {
		panelH = a.height - 40
	}

	dc := gg.NewContext(panelW, panelH)
	dc.SetRGBA(1, 1, 1, 0.92)
	dc.Clear()
	dc.SetColor(colorGroupStroke)
	dc.SetLineWidth(1.0)
	dc.DrawRectangle(0.5, 0.5, float64(panelW)-1, float64(panelH)-1)
	dc.Stroke()

	dc.SetFontFace(a.mainRenderer.face(13, true))
	dc.SetColor(colorForeground)
	dc.DrawString("MATERIAL SUMMARY", 10, 20)
	dc.SetFontFace(a.mainRenderer.face(12, false))
	y := 20 + lineH
	for _, row := range rows {
		if y > panelH-8 {
			break
		}
		dc.SetColor(materialColor(groupFamily(row.Group)))
		dc.DrawString(row.Combined, 10, float64(y))
		dc.SetColor(colorForeground)
		dc.DrawString(fmt.Sprintf("%s x%d", formatQuantity(row.Quantity), row.Count), 160, float64(y))
		y += lineH
	}

	img := ebiten.NewImageFromImage(dc.Image())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(a.width-panelW-12), 12)
	screen.DrawImage(img, op)
}

// groupFamily extracts the leading letters of a grouping code for the
// palette lookup.
func groupFamily(group string) string {
	for i, r := range group {
		if r >= '0' && r <= '9' {
			return group[:i]
		}
	}
	return group
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.width, a.height = outsideWidth, outsideHeight

	// buffer strip pinned to the bottom, main grid above it
	bufH := a.cfg.HeaderHeight + float64(a.cfg.BufferRows)*a.cfg.CellHeight
	if bufH > float64(outsideHeight)/2 {
		bufH = float64(outsideHeight) / 2
	}
	mainH := float64(outsideHeight) - bufH
	a.main.setFrame(0, 0, float64(outsideWidth), mainH)
	a.buffer.setFrame(0, mainH, float64(outsideWidth), bufH)
	return outsideWidth, outsideHeight
}
