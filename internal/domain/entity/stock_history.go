package entity

import "time"

// ChangeType tipo de cambio registrado en el libro de stock.
type ChangeType string

const (
	ChangeSale          ChangeType = "SALE"
	ChangeRefundFull    ChangeType = "REFUND_FULL"
	ChangeRefundPartial ChangeType = "REFUND_PARTIAL"
	ChangeManualUpdate  ChangeType = "MANUAL_UPDATE"
	ChangeExcelUpload   ChangeType = "EXCEL_UPLOAD"
	ChangeCheckAdjust   ChangeType = "CHECK_ADJUST"
)

// StockHistory es una entrada inmutable del libro: delta firmado y saldo resultante.
// Nunca se actualiza ni se borra (salvo el rebuild completo de la marca).
type StockHistory struct {
	ID              string
	StoreID         string
	VariantID       string
	ChangeType      ChangeType
	QuantityChange  int
	CurrentQuantity int
	ActorID         string
	Description     string
	CreatedAt       time.Time
}
