package main

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Legacy records carried a single freeform materialCode. The split is a
// fixed policy: leading letters become code1 (uppercased), the digit run
// immediately after becomes code2, and whatever trails becomes code3.
// Codes mixing letters and digits non-contiguously (e.g. "5S") never
// matched the original pattern and land whole in code3.
var legacyCodePattern = regexp.MustCompile(`^([A-Za-z]+)(\d*)(.*)$`)

// cellRecord is the superset wire shape covering both schema generations.
// Code1 is a pointer so field presence distinguishes an already-migrated
// record from a legacy one; legacy color is read and discarded.
type cellRecord struct {
	Row          int     `json:"row"`
	Col          int     `json:"col"`
	Code1        *string `json:"code1,omitempty"`
	Code2        string  `json:"code2,omitempty"`
	Code3        string  `json:"code3,omitempty"`
	MaterialCode string  `json:"materialCode,omitempty"`
	Color        string  `json:"color,omitempty"`
	Quantity     float64 `json:"quantity"`
	Note         string  `json:"note,omitempty"`
}

// migrateCell decodes one stored record, applying the v1 -> v2 migration
// when the record predates the code split. Idempotent: a record that
// already carries code1 passes through unchanged.
func migrateCell(raw []byte) (Cell, error) {
	var rec cellRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Cell{}, fmt.Errorf("decode cell record: %w", err)
	}
	cell := Cell{
		Row:      rec.Row,
		Col:      rec.Col,
		Quantity: rec.Quantity,
		Note:     rec.Note,
	}
	if rec.Code1 != nil {
		cell.Code1 = *rec.Code1
		cell.Code2 = rec.Code2
		cell.Code3 = rec.Code3
		return cell, nil
	}
	cell.Code1, cell.Code2, cell.Code3 = splitLegacyCode(rec.MaterialCode)
	return cell, nil
}

// splitLegacyCode applies the fixed v1 -> v2 parse to a legacy material code.
func splitLegacyCode(code string) (code1, code2, code3 string) {
	m := legacyCodePattern.FindStringSubmatch(code)
	if m == nil {
		// code does not start with a letter; keep it visible as the suffix
		return "", "", strings.TrimSpace(code)
	}
	return strings.ToUpper(m[1]), m[2], strings.TrimSpace(m[3])
}

// encodeCell serializes a cell in the current (v2) record shape.
func encodeCell(c Cell) ([]byte, error) {
	rec := cellRecord{
		Row:      c.Row,
		Col:      c.Col,
		Code1:    &c.Code1,
		Code2:    c.Code2,
		Code3:    c.Code3,
		Quantity: c.Quantity,
		Note:     c.Note,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode cell record: %w", err)
	}
	return data, nil
}
