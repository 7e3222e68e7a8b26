package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un estilo dentro de una marca (tenant). ProductNumber es único por marca.
// Los campos *Cleaned y NameInitials son derivados (catalog.NormalizeKey / PhoneticInitials) y nunca se editan a mano.
type Product struct {
	ID                   string
	BrandID              string
	ProductNumber        string
	Name                 string
	ReleaseYear          *int
	ItemCategory         string
	IsFavorite           bool
	ProductNumberCleaned string
	NameCleaned          string
	NameInitials         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Variant es el SKU: (producto, color, talla) con código derivado único en todo el sistema.
type Variant struct {
	ID             string
	ProductID      string
	Barcode        string
	BarcodeCleaned string
	Color          string
	ColorCleaned   string
	Size           string
	SizeCleaned    string
	OriginalPrice  decimal.Decimal
	SalePrice      decimal.Decimal
	HQQuantity     int // cantidad de referencia en casa matriz
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// VariantWithProduct une una variante con su producto (snapshot de venta, exportación).
type VariantWithProduct struct {
	Variant *Variant
	Product *Product
}
