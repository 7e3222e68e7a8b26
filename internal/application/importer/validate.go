package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/catalog"
)

// Record registro validado y normalizado, con código de SKU derivado.
type Record struct {
	RowIndex      int
	ProductNumber string
	ProductName   string
	Color         string
	Size          string
	Code          string
	OriginalPrice decimal.Decimal
	SalePrice     decimal.Decimal
	ReleaseYear   *int
	Category      string
	Favorite      bool
	Quantity      int
	HasQuantity   bool

	// BarcodeOnly: fila identificada solo por barcode (actualización de cantidades);
	// nunca crea catálogo.
	BarcodeOnly bool

	ProductNumberCleaned string
	NameCleaned          string
	NameInitials         string
	CodeCleaned          string
	ColorCleaned         string
	SizeCleaned          string
}

// RowIssue fila descartada con su motivo.
type RowIssue struct {
	RowIndex int    `json:"row_index"`
	Reason   string `json:"reason"`
}

// ValidationResult registros aceptados y filas descartadas.
type ValidationResult struct {
	Records  []Record
	Rejected []RowIssue
	// Duplicates filas reemplazadas por una aparición posterior del mismo código.
	Duplicates int
}

// Validate aplica la validación uniforme: exclusiones, identificadores obligatorios,
// coerción numérica, derivación del código y deduplicación (gana la última aparición).
func Validate(cands []Candidate, rules BrandRules, excluded map[int]bool) ValidationResult {
	var res ValidationResult
	pos := make(map[string]int, len(cands))

	for _, c := range cands {
		if excluded[c.RowIndex] {
			continue
		}
		rec, reason := toRecord(c, rules)
		if reason != "" {
			res.Rejected = append(res.Rejected, RowIssue{RowIndex: c.RowIndex, Reason: reason})
			continue
		}
		if i, dup := pos[rec.CodeCleaned]; dup {
			res.Records[i] = rec
			res.Duplicates++
			continue
		}
		pos[rec.CodeCleaned] = len(res.Records)
		res.Records = append(res.Records, rec)
	}
	return res
}

func toRecord(c Candidate, rules BrandRules) (Record, string) {
	rec := Record{
		RowIndex:      c.RowIndex,
		ProductNumber: strings.TrimSpace(c.ProductNumber),
		ProductName:   strings.TrimSpace(c.ProductName),
		Color:         strings.TrimSpace(c.Color),
		Size:          strings.TrimSpace(c.Size),
		Category:      strings.TrimSpace(c.Category),
		Favorite:      parseFavorite(c.Favorite),
		HasQuantity:   c.HasQuantity,
	}

	op, ok := parseNumber(c.OriginalPrice)
	if !ok {
		return rec, fmt.Sprintf("non-numeric %s ('%s')", FieldOriginalPrice, c.OriginalPrice)
	}
	sp, ok := parseNumber(c.SalePrice)
	if !ok {
		return rec, fmt.Sprintf("non-numeric %s ('%s')", FieldSalePrice, c.SalePrice)
	}
	qty, ok := parseNumber(c.Quantity)
	if !ok {
		return rec, fmt.Sprintf("non-numeric %s ('%s')", FieldQuantity, c.Quantity)
	}
	if op.IsNegative() || sp.IsNegative() {
		return rec, "negative price"
	}
	rec.OriginalPrice, rec.SalePrice = backfillPrices(op.Truncate(0), sp.Truncate(0))
	rec.Quantity = int(qty.IntPart())
	rec.ReleaseYear = parseYear(c.ReleaseYear)

	if rec.ProductNumber == "" && strings.TrimSpace(c.Barcode) != "" {
		rec.BarcodeOnly = true
		rec.Code = strings.TrimSpace(c.Barcode)
		rec.CodeCleaned = catalog.NormalizeKey(rec.Code)
		return rec, ""
	}

	switch {
	case rec.ProductNumber == "":
		return rec, "missing product number"
	case rec.Color == "":
		return rec, "missing color"
	case rec.Size == "":
		return rec, "missing size"
	}
	code, ok := catalog.DeriveCode(rec.ProductNumber, rec.Color, rec.Size, rules.BarcodeFormat)
	if !ok {
		return rec, "code derivation failed"
	}
	if rec.ProductName == "" {
		rec.ProductName = rec.ProductNumber
	}
	rec.Code = code
	rec.CodeCleaned = catalog.NormalizeKey(code)
	rec.ProductNumberCleaned = catalog.NormalizeKey(rec.ProductNumber)
	rec.NameCleaned = catalog.NormalizeKey(rec.ProductName)
	rec.NameInitials = catalog.PhoneticInitials(rec.ProductName)
	rec.ColorCleaned = catalog.NormalizeKey(rec.Color)
	rec.SizeCleaned = catalog.NormalizeKey(rec.Size)
	return rec, ""
}

// parseYear admite "2024", "2024.0" y "2024년"; cualquier otro valor queda sin año.
func parseYear(s string) *int {
	s = strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), " ", ""), "년", "")
	if s == "" {
		return nil
	}
	d, ok := parseNumber(s)
	if !ok || !d.IsPositive() {
		return nil
	}
	y := int(d.IntPart())
	return &y
}

func parseFavorite(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "Y", "O", "TRUE":
		return true
	}
	return false
}
