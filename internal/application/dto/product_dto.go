package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// ProductResponse salida de un producto del catálogo.
type ProductResponse struct {
	ID            string `json:"id"`
	ProductNumber string `json:"product_number"`
	Name          string `json:"name"`
	ReleaseYear   *int   `json:"release_year,omitempty"`
	ItemCategory  string `json:"item_category,omitempty"`
	IsFavorite    bool   `json:"is_favorite"`
}

// NewProductResponse convierte la entidad.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		ProductNumber: p.ProductNumber,
		Name:          p.Name,
		ReleaseYear:   p.ReleaseYear,
		ItemCategory:  p.ItemCategory,
		IsFavorite:    p.IsFavorite,
	}
}

// VariantResponse salida de una variante (SKU).
type VariantResponse struct {
	ID            string          `json:"id"`
	Barcode       string          `json:"barcode"`
	Color         string          `json:"color"`
	Size          string          `json:"size"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	HQQuantity    int             `json:"hq_quantity"`
}

// NewVariantResponse convierte la entidad.
func NewVariantResponse(v *entity.Variant) VariantResponse {
	return VariantResponse{
		ID:            v.ID,
		Barcode:       v.Barcode,
		Color:         v.Color,
		Size:          v.Size,
		OriginalPrice: v.OriginalPrice,
		SalePrice:     v.SalePrice,
		HQQuantity:    v.HQQuantity,
	}
}

// DetachResponse salida de POST /api/products/:id/detach.
type DetachResponse struct {
	Status   string `json:"status"`
	Detached int    `json:"detached"`
}
