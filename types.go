package main

import (
	"fmt"
	"image/color"
	"time"
)

// Cell is one populated grid position. Row/Col are the position inside the
// owning surface's key space; surfaces never share keys.
type Cell struct {
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	Code1    string  `json:"code1"`
	Code2    string  `json:"code2"`
	Code3    string  `json:"code3"`
	Quantity float64 `json:"quantity"`
	Note     string  `json:"note"`
}

// Key returns the persistence key for the cell's position.
func (c Cell) Key() string {
	return fmt.Sprintf("%d-%d", c.Row, c.Col)
}

// CombinedCode is the display identity of a material variant:
// code1+code2, plus " code3" when a suffix is present.
func (c Cell) CombinedCode() string {
	s := c.Code1 + c.Code2
	if c.Code3 != "" {
		s += " " + c.Code3
	}
	return s
}

// GroupCode ignores the suffix annotation, used for sorting and aggregation.
func (c Cell) GroupCode() string {
	return c.Code1 + c.Code2
}

// IsEmpty reports whether the cell carries no content. Empty cells are never
// persisted; editing a cell down to empty deletes it.
func (c Cell) IsEmpty() bool {
	return c.Code1 == "" && c.Quantity == 0 && c.Note == ""
}

// AtPosition returns a copy of the cell relocated to (row, col).
func (c Cell) AtPosition(row, col int) Cell {
	c.Row = row
	c.Col = col
	return c
}

// materialPalette maps code1 (material family) to its accent color. Unknown
// families fall back to neutral gray.
var materialPalette = map[string]color.RGBA{
	"S":  {0x2e, 0x7d, 0x32, 0xff}, // structural steel
	"SI": {0x15, 0x65, 0xc0, 0xff}, // silicate
	"A":  {0xc6, 0x28, 0x28, 0xff}, // alloy
	"C":  {0x6a, 0x1b, 0x9a, 0xff}, // composite
	"P":  {0xef, 0x6c, 0x00, 0xff}, // polymer
	"G":  {0x00, 0x83, 0x8f, 0xff}, // glass
	"W":  {0x5d, 0x40, 0x37, 0xff}, // wood
	"M":  {0x37, 0x47, 0x4f, 0xff}, // misc metal
}

var neutralAccent = color.RGBA{0x75, 0x75, 0x75, 0xff}

func materialColor(code1 string) color.RGBA {
	if c, ok := materialPalette[code1]; ok {
		return c
	}
	return neutralAccent
}

// pointerRecord tracks one active contact. Membership in the gesture
// machine's pointer map changes only on down/up/cancel.
type pointerRecord struct {
	id        int
	x, y      float64
	startX    float64
	startY    float64
	startTime time.Time
}

// dragRecord is the shared drag state owned by the coordinator. It exists
// only while a long-press drag is in progress.
type dragRecord struct {
	source      surfaceID
	cell        Cell
	srcRow      int
	srcCol      int
	cursorX     float64 // window coordinates
	cursorY     float64
	dropHandled bool
}

// summaryRow is one aggregate line of the material summary.
type summaryRow struct {
	Combined string
	Group    string
	Quantity float64
	Count    int
}
