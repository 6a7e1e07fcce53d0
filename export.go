package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// exportDocument is the current export form. The legacy form was a bare
// array of main-grid records; import accepts both.
type exportDocument struct {
	Cells       []Cell `json:"cells"`
	BufferCells []Cell `json:"bufferCells"`
}

// exportJSON renders both record spaces as a JSON document, cells ordered
// by position for stable output.
func exportJSON(cells, bufferCells map[string]Cell) ([]byte, error) {
	doc := exportDocument{
		Cells:       sortedCells(cells),
		BufferCells: sortedCells(bufferCells),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}

func sortedCells(m map[string]Cell) []Cell {
	list := make([]Cell, 0, len(m))
	for _, c := range m {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Row != list[j].Row {
			return list[i].Row < list[j].Row
		}
		return list[i].Col < list[j].Col
	})
	return list
}

// importJSON parses an export document in either form and migrates every
// record through the legacy code split. Returns an error without side
// effects on malformed input; the caller only touches the store after a
// clean parse.
func importJSON(data []byte) (cells, bufferCells []Cell, err error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, nil, fmt.Errorf("import: empty document")
	}

	if trimmed[0] == '[' {
		// legacy form: bare array of main-grid records
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, nil, fmt.Errorf("import: %w", err)
		}
		cells, err = migrateAll(raws)
		if err != nil {
			return nil, nil, fmt.Errorf("import: %w", err)
		}
		return cells, nil, nil
	}

	var doc struct {
		Cells       []json.RawMessage `json:"cells"`
		BufferCells []json.RawMessage `json:"bufferCells"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, nil, fmt.Errorf("import: %w", err)
	}
	if cells, err = migrateAll(doc.Cells); err != nil {
		return nil, nil, fmt.Errorf("import: %w", err)
	}
	if bufferCells, err = migrateAll(doc.BufferCells); err != nil {
		return nil, nil, fmt.Errorf("import: %w", err)
	}
	return cells, bufferCells, nil
}

func migrateAll(raws []json.RawMessage) ([]Cell, error) {
	cells := make([]Cell, 0, len(raws))
	for _, raw := range raws {
		cell, err := migrateCell(raw)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, nil
}
