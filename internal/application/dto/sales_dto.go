package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// Quantity cantidad entera que llega como número JSON o como texto numérico ("2").
type Quantity int

// UnmarshalJSON acepta 2, 2.0 y "2"; cualquier otro valor es ErrInvalidInput.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*q = 0
		return nil
	}
	s := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("%w: cantidad inválida", domain.ErrInvalidInput)
		}
		s = strings.TrimSpace(s)
	}
	if n, err := strconv.Atoi(s); err == nil {
		*q = Quantity(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("%w: cantidad inválida %q", domain.ErrInvalidInput, s)
	}
	*q = Quantity(f)
	return nil
}

// SaleLineRequest línea de venta solicitada.
type SaleLineRequest struct {
	VariantID      string          `json:"variant_id"`
	Quantity       Quantity        `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// CreateSaleRequest entrada de POST /api/sales. SaleDate vacío = hoy (YYYY-MM-DD).
type CreateSaleRequest struct {
	SaleDate      string            `json:"sale_date"`
	PaymentMethod string            `json:"payment_method"`
	IsOnline      bool              `json:"is_online"`
	Items         []SaleLineRequest `json:"items"`
}

// CreateSaleResponse salida de POST /api/sales.
type CreateSaleResponse struct {
	Status        string          `json:"status"`
	SaleID        string          `json:"sale_id"`
	ReceiptDate   string          `json:"receipt_date"`
	ReceiptSeq    int             `json:"receipt_seq"`
	ReceiptNumber string          `json:"receipt_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// RefundLineRequest línea de reembolso parcial.
type RefundLineRequest struct {
	VariantID string   `json:"variant_id"`
	Quantity  Quantity `json:"quantity"`
}

// RefundPartialRequest entrada de POST /api/sales/:id/refund-partial.
type RefundPartialRequest struct {
	Items []RefundLineRequest `json:"items"`
}

// RefundPartialResponse salida del reembolso parcial.
type RefundPartialResponse struct {
	Status         string              `json:"status"`
	RefundedAmount decimal.Decimal     `json:"refunded_amount"`
	Skipped        []RefundLineRequest `json:"skipped"`
}

// SaleItemResponse línea de venta con datos congelados.
type SaleItemResponse struct {
	LineNo          int             `json:"line_no"`
	VariantID       string          `json:"variant_id,omitempty"`
	ProductNumber   string          `json:"product_number"`
	ProductName     string          `json:"product_name"`
	Color           string          `json:"color"`
	Size            string          `json:"size"`
	Barcode         string          `json:"barcode"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Quantity        int             `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta completa.
type SaleResponse struct {
	ID             string             `json:"id"`
	StoreID        string             `json:"store_id"`
	ReceiptNumber  string             `json:"receipt_number"`
	SaleDate       string             `json:"sale_date"`
	DailyNumber    int                `json:"daily_number"`
	PaymentMethod  string             `json:"payment_method"`
	Status         string             `json:"status"`
	IsOnline       bool               `json:"is_online"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	OriginalTotal  decimal.Decimal    `json:"original_total"`
	RefundedAmount decimal.Decimal    `json:"refunded_amount"`
	Items          []SaleItemResponse `json:"items"`
	CreatedAt      time.Time          `json:"created_at"`
}

// NewSaleResponse convierte la entidad.
func NewSaleResponse(s *entity.Sale) SaleResponse {
	out := SaleResponse{
		ID:             s.ID,
		StoreID:        s.StoreID,
		ReceiptNumber:  s.ReceiptNumber(),
		SaleDate:       s.SaleDate.Format(time.DateOnly),
		DailyNumber:    s.DailyNumber,
		PaymentMethod:  s.PaymentMethod,
		Status:         s.Status,
		IsOnline:       s.IsOnline,
		TotalAmount:    s.TotalAmount,
		OriginalTotal:  s.OriginalTotal,
		RefundedAmount: s.RefundedAmount,
		Items:          make([]SaleItemResponse, 0, len(s.Items)),
		CreatedAt:      s.CreatedAt,
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, SaleItemResponse{
			LineNo:          it.LineNo,
			VariantID:       it.VariantID,
			ProductNumber:   it.ProductNumber,
			ProductName:     it.ProductName,
			Color:           it.Color,
			Size:            it.Size,
			Barcode:         it.Barcode,
			OriginalPrice:   it.OriginalPrice,
			UnitPrice:       it.UnitPrice,
			DiscountAmount:  it.DiscountAmount,
			DiscountedPrice: it.DiscountedPrice,
			Quantity:        it.Quantity,
			Subtotal:        it.Subtotal,
		})
	}
	return out
}
