package importer

import (
	"fmt"
	"strings"
)

// Suspicious fila sospechosa detectada por Verify.
type Suspicious struct {
	RowIndex int      `json:"row_index"`
	Preview  string   `json:"preview"`
	Reasons  []string `json:"reasons"`
}

const (
	reasonMissingIdentifier = "missing identifier"
	previewNone             = "(none)"
)

var numericFields = []Field{FieldOriginalPrice, FieldSalePrice, FieldQuantity}

// Verify inspecciona la tabla sin modificar nada y devuelve las filas que el usuario
// debería revisar (o excluir) antes de lanzar la importación.
func Verify(t Table, cols ColumnMap, layout Layout) []Suspicious {
	var sizeCols []sizeColumn
	if layout == LayoutHorizontal {
		sizeCols = sizeColumns(t.Headers)
	}

	var out []Suspicious
	for i, row := range t.Rows {
		if cols.allEmpty(row) {
			continue
		}
		pk := cols.value(row, FieldProductNumber)
		if pk == "" {
			pk = cols.value(row, FieldBarcode)
		}

		var reasons []string
		if pk == "" {
			reasons = append(reasons, reasonMissingIdentifier)
		}
		for _, f := range numericFields {
			if layout == LayoutHorizontal && f == FieldQuantity {
				continue
			}
			if raw := cols.value(row, f); !looksNumeric(raw) {
				reasons = append(reasons, fmt.Sprintf("non-numeric %s ('%s')", f, raw))
			}
		}
		for _, sc := range sizeCols {
			if raw := cell(row, sc.index); !looksNumeric(raw) {
				reasons = append(reasons, fmt.Sprintf("non-numeric %s ('%s')", FieldQuantity, raw))
			}
		}
		if len(reasons) == 0 {
			continue
		}

		preview := pk
		if preview == "" {
			preview = previewNone
		}
		out = append(out, Suspicious{
			RowIndex: RowIndex(i),
			Preview:  preview + " / " + cols.value(row, FieldProductName),
			Reasons:  reasons,
		})
	}
	return out
}

// looksNumeric: vacío es válido; se ignoran "," y "." y se admite un "-" inicial.
func looksNumeric(s string) bool {
	s = strings.NewReplacer(",", "", ".", "").Replace(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
