package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
)

// MaxSizeCode último código de columna de talla en la matriz horizontal (0..29).
const MaxSizeCode = 29

// Candidate registro crudo leído de la hoja, todavía sin validar.
type Candidate struct {
	RowIndex      int
	ProductNumber string
	ProductName   string
	Color         string
	Size          string
	Barcode       string
	OriginalPrice string
	SalePrice     string
	ReleaseYear   string
	Category      string
	Favorite      string
	Quantity      string
	// HasQuantity la fila trae cantidad (columna mapeada o matriz de tallas).
	HasQuantity bool
}

// Normalize convierte la tabla en candidatos según el layout.
// La secuencia se materializa completa: la reconciliación necesita búsquedas agregadas.
func Normalize(t Table, cols ColumnMap, layout Layout, rules BrandRules) ([]Candidate, error) {
	switch layout {
	case LayoutHorizontal:
		return normalizeHorizontal(t, cols, rules)
	case LayoutVertical, "":
		return normalizeVertical(t, cols), nil
	}
	return nil, fmt.Errorf("%w: layout %q", domain.ErrInvalidInput, layout)
}

func normalizeVertical(t Table, cols ColumnMap) []Candidate {
	_, hasQty := cols[FieldQuantity]
	out := make([]Candidate, 0, len(t.Rows))
	for i, row := range t.Rows {
		if cols.allEmpty(row) {
			continue
		}
		out = append(out, Candidate{
			RowIndex:      RowIndex(i),
			ProductNumber: cols.value(row, FieldProductNumber),
			ProductName:   cols.value(row, FieldProductName),
			Color:         cols.value(row, FieldColor),
			Size:          cols.value(row, FieldSize),
			Barcode:       cols.value(row, FieldBarcode),
			OriginalPrice: cols.value(row, FieldOriginalPrice),
			SalePrice:     cols.value(row, FieldSalePrice),
			ReleaseYear:   cols.value(row, FieldReleaseYear),
			Category:      cols.value(row, FieldCategory),
			Favorite:      cols.value(row, FieldFavorite),
			Quantity:      cols.value(row, FieldQuantity),
			HasQuantity:   hasQty,
		})
	}
	return out
}

type sizeColumn struct {
	code  string
	index int
}

// sizeColumns columnas cuyo encabezado es un código de talla "0".."29" (".0" final ignorado).
func sizeColumns(headers []string) []sizeColumn {
	var out []sizeColumn
	for i, h := range headers {
		h = strings.TrimSuffix(strings.TrimSpace(h), ".0")
		n, err := strconv.Atoi(h)
		if err != nil || n < 0 || n > MaxSizeCode || strconv.Itoa(n) != h {
			continue
		}
		out = append(out, sizeColumn{code: h, index: i})
	}
	return out
}

func normalizeHorizontal(t Table, cols ColumnMap, rules BrandRules) ([]Candidate, error) {
	sizeCols := sizeColumns(t.Headers)
	if len(sizeCols) == 0 {
		return nil, fmt.Errorf("%w: no hay columnas de talla (0-%d) en el encabezado", domain.ErrInvalidInput, MaxSizeCode)
	}

	var out []Candidate
	for i, row := range t.Rows {
		if cols.allEmpty(row) {
			continue
		}
		pn := cols.value(row, FieldProductNumber)
		rawCategory := cols.value(row, FieldCategory)
		group := SizeGroupKey(pn, rawCategory)
		category := rules.Category.Resolve(pn, rawCategory)

		op := coerceInt(cols.value(row, FieldOriginalPrice))
		sp := coerceInt(cols.value(row, FieldSalePrice))
		op, sp = backfillPrices(op, sp)
		year := coerceInt(cols.value(row, FieldReleaseYear))

		base := Candidate{
			RowIndex:      RowIndex(i),
			ProductNumber: pn,
			ProductName:   cols.value(row, FieldProductName),
			Color:         cols.value(row, FieldColor),
			OriginalPrice: op.String(),
			SalePrice:     sp.String(),
			Category:      category,
			HasQuantity:   true,
		}
		if !year.IsZero() {
			base.ReleaseYear = year.String()
		}

		for _, sc := range sizeCols {
			size, ok := rules.SizeMapping.Resolve(group, sc.code)
			if !ok {
				continue
			}
			c := base
			c.Size = size
			c.Quantity = coerceInt(cell(row, sc.index)).String()
			out = append(out, c)
		}
	}
	return out, nil
}

// coerceInt convierte a entero; valores no numéricos valen 0.
func coerceInt(s string) decimal.Decimal {
	d, ok := parseNumber(s)
	if !ok {
		return decimal.Zero
	}
	return d.Truncate(0)
}

// backfillPrices copia el precio positivo al que vale cero, en ambos sentidos.
func backfillPrices(original, sale decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	switch {
	case original.IsZero() && sale.IsPositive():
		original = sale
	case sale.IsZero() && original.IsPositive():
		sale = original
	}
	return original, sale
}

// parseNumber acepta separadores de miles y decimales ("1,000", "12.0"). Vacío vale 0.
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
