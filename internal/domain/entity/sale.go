package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de venta: valid -> refunded (terminal).
const (
	SaleStatusValid    = "valid"
	SaleStatusRefunded = "refunded"
)

// DefaultPaymentMethod método de pago por defecto (tarjeta).
const DefaultPaymentMethod = "카드"

// Sale una transacción en una tienda y fecha comercial.
// El número de recibo se deriva de (SaleDate, DailyNumber); no se almacena.
type Sale struct {
	ID             string
	StoreID        string
	ActorID        string
	SaleDate       time.Time
	DailyNumber    int
	PaymentMethod  string
	Status         string
	IsOnline       bool
	TotalAmount    decimal.Decimal
	OriginalTotal  decimal.Decimal
	RefundedAmount decimal.Decimal
	Items          []*SaleItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReceiptNumber formato visible: YYYYMMDD-NNNN.
func (s *Sale) ReceiptNumber() string {
	return ReceiptNumber(s.SaleDate, s.DailyNumber)
}

// ReceiptNumber deriva el número de recibo a partir de fecha y secuencia diaria.
func ReceiptNumber(date time.Time, seq int) string {
	return fmt.Sprintf("%s-%04d", date.Format("20060102"), seq)
}

// IsRefunded indica si la venta está en estado terminal.
func (s *Sale) IsRefunded() bool { return s.Status == SaleStatusRefunded }

// SaleItem línea de venta con los datos descriptivos congelados al momento de la venta.
// VariantID puede quedar vacío si la variante fue desvinculada (detach) del catálogo.
type SaleItem struct {
	ID              string
	SaleID          string
	LineNo          int
	VariantID       string
	ProductName     string
	ProductNumber   string
	Color           string
	Size            string
	Barcode         string
	OriginalPrice   decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountedPrice decimal.Decimal
	Quantity        int
	Subtotal        decimal.Decimal
}
