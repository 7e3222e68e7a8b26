package sales

import (
	"context"
	"fmt"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

// ReceiptRenderer genera el recibo imprimible de una venta.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, sale *entity.Sale, store *entity.Store) ([]byte, error)
}

// ReceiptUseCase descarga del recibo en PDF.
type ReceiptUseCase struct {
	saleRepo  repository.SaleRepository
	storeRepo repository.StoreRepository
	renderer  ReceiptRenderer
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(saleRepo repository.SaleRepository, storeRepo repository.StoreRepository, renderer ReceiptRenderer) *ReceiptUseCase {
	return &ReceiptUseCase{saleRepo: saleRepo, storeRepo: storeRepo, renderer: renderer}
}

// DownloadReceipt devuelve el PDF y el nombre de archivo. La venta debe ser de la tienda indicada.
func (uc *ReceiptUseCase) DownloadReceipt(ctx context.Context, saleID, storeID string) ([]byte, string, error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, "", fmt.Errorf("recibo: obtener venta: %w", err)
	}
	if sale == nil || sale.StoreID != storeID {
		return nil, "", fmt.Errorf("venta %s: %w", saleID, domain.ErrNotFound)
	}
	store, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, "", err
	}
	if store == nil {
		return nil, "", fmt.Errorf("tienda %s: %w", storeID, domain.ErrNotFound)
	}
	doc, err := uc.renderer.RenderReceipt(ctx, sale, store)
	if err != nil {
		return nil, "", fmt.Errorf("recibo: %w", err)
	}
	return doc, "receipt-" + sale.ReceiptNumber() + ".pdf", nil
}
