// Package importer convierte hojas de cálculo (vertical o matriz horizontal) en registros
// normalizados de SKU listos para la reconciliación.
package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
)

// Layout disposición del archivo de entrada.
type Layout string

const (
	LayoutVertical   Layout = "vertical"
	LayoutHorizontal Layout = "horizontal_matrix"
)

// ParseLayout acepta "", "vertical" u "horizontal_matrix".
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.TrimSpace(s)) {
	case "", LayoutVertical:
		return LayoutVertical, nil
	case LayoutHorizontal:
		return LayoutHorizontal, nil
	}
	return "", fmt.Errorf("%w: layout %q", domain.ErrInvalidInput, s)
}

// Field campo lógico de un registro.
type Field string

const (
	FieldProductNumber Field = "product_number"
	FieldProductName   Field = "product_name"
	FieldColor         Field = "color"
	FieldSize          Field = "size"
	FieldBarcode       Field = "barcode"
	FieldOriginalPrice Field = "original_price"
	FieldSalePrice     Field = "sale_price"
	FieldReleaseYear   Field = "release_year"
	FieldCategory      Field = "item_category"
	FieldFavorite      Field = "is_favorite"
	FieldQuantity      Field = "quantity"
)

var knownFields = map[Field]bool{
	FieldProductNumber: true, FieldProductName: true, FieldColor: true, FieldSize: true,
	FieldBarcode: true, FieldOriginalPrice: true, FieldSalePrice: true, FieldReleaseYear: true,
	FieldCategory: true, FieldFavorite: true, FieldQuantity: true,
}

// ColumnMap campo lógico -> índice de columna (base 0).
type ColumnMap map[Field]int

// ParseColumnMap interpreta letras de columna ("A", "AB") o índices decimales.
// Valores vacíos se ignoran; campos desconocidos son error de validación.
func ParseColumnMap(raw map[string]string) (ColumnMap, error) {
	cols := make(ColumnMap, len(raw))
	for k, v := range raw {
		f := Field(strings.TrimSpace(k))
		if !knownFields[f] {
			return nil, fmt.Errorf("%w: campo desconocido %q", domain.ErrInvalidInput, k)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		idx, err := columnIndex(v)
		if err != nil {
			return nil, fmt.Errorf("%w: columna %q para %s", domain.ErrInvalidInput, v, k)
		}
		cols[f] = idx
	}
	return cols, nil
}

// Require verifica que los campos indicados estén mapeados.
func (c ColumnMap) Require(fields ...Field) error {
	var missing []string
	for _, f := range fields {
		if _, ok := c[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: columnas requeridas sin asignar: %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

func columnIndex(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("índice negativo")
		}
		return n, nil
	}
	idx := 0
	for _, r := range strings.ToUpper(v) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("letra inválida")
		}
		idx = idx*26 + int(r-'A'+1)
	}
	return idx - 1, nil
}

// FirstDataRow número de fila (1-based, como en la hoja) de la primera fila de datos.
const FirstDataRow = 2

// Table datos tabulares ya abiertos: encabezados + filas de celdas como texto.
type Table struct {
	Headers []string
	Rows    [][]string
}

// RowIndex número de fila en la hoja para la fila de datos i.
func RowIndex(i int) int { return i + FirstDataRow }

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (c ColumnMap) value(row []string, f Field) string {
	idx, ok := c[f]
	if !ok {
		return ""
	}
	return cell(row, idx)
}

// allEmpty indica si todas las celdas mapeadas están vacías.
func (c ColumnMap) allEmpty(row []string) bool {
	for _, idx := range c {
		if cell(row, idx) != "" {
			return false
		}
	}
	return true
}
