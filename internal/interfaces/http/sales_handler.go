package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/dto"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/sales"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// SalesHandler punto de venta de la tienda del token.
type SalesHandler struct {
	uc       *sales.UseCase
	receipts *sales.ReceiptUseCase
	loc      *time.Location
	log      *logger.Logger
}

// NewSalesHandler construye el handler. loc interpreta las fechas recibidas.
func NewSalesHandler(uc *sales.UseCase, receipts *sales.ReceiptUseCase, loc *time.Location, log *logger.Logger) *SalesHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SalesHandler{uc: uc, receipts: receipts, loc: loc, log: log}
}

// bodyError distingue una cantidad no numérica (VALIDATION) de un JSON mal formado.
func (h *SalesHandler) bodyError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrInvalidInput) {
		return respondError(c, h.log, err)
	}
	return badRequest(c, "INVALID_BODY", "cuerpo inválido")
}

func (h *SalesHandler) parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation(time.DateOnly, s, h.loc)
	return t, err == nil
}

// Create godoc
// @Summary      Registrar venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Líneas de la venta"
// @Success      201   {object}  dto.CreateSaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SalesHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return h.bodyError(c, err)
	}
	date, ok := h.parseDate(in.SaleDate)
	if !ok {
		return badRequest(c, "VALIDATION", "sale_date debe tener formato YYYY-MM-DD")
	}
	lines := make([]sales.LineInput, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, sales.LineInput{
			VariantID:      it.VariantID,
			Quantity:       int(it.Quantity),
			UnitPrice:      it.UnitPrice,
			DiscountAmount: it.DiscountAmount,
		})
	}
	out, err := h.uc.CreateSale(c.UserContext(), sales.CreateSaleInput{
		StoreID:       GetStoreID(c),
		ActorID:       GetUserID(c),
		SaleDate:      date,
		PaymentMethod: in.PaymentMethod,
		IsOnline:      in.IsOnline,
		Lines:         lines,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateSaleResponse{
		Status:        out.Status,
		SaleID:        out.SaleID,
		ReceiptDate:   out.SaleDate.Format(time.DateOnly),
		ReceiptSeq:    out.DailyNumber,
		ReceiptNumber: out.ReceiptNumber,
		TotalAmount:   out.TotalAmount,
	})
}

// List GET /api/sales?date=YYYY-MM-DD (vacío = hoy)
func (h *SalesHandler) List(c *fiber.Ctx) error {
	date, ok := h.parseDate(c.Query("date"))
	if !ok {
		return badRequest(c, "VALIDATION", "date debe tener formato YYYY-MM-DD")
	}
	list, err := h.uc.ListDaily(c.UserContext(), GetStoreID(c), date)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.NewSaleResponse(s))
	}
	return c.JSON(out)
}

// GetByID GET /api/sales/:id
func (h *SalesHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.uc.GetSale(c.UserContext(), c.Params("id"), GetStoreID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.NewSaleResponse(sale))
}

// Receipt GET /api/sales/:id/receipt.pdf
func (h *SalesHandler) Receipt(c *fiber.Ctx) error {
	doc, filename, err := h.receipts.DownloadReceipt(c.UserContext(), c.Params("id"), GetStoreID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Attachment(filename)
	return c.Send(doc)
}

// Refund POST /api/sales/:id/refund
func (h *SalesHandler) Refund(c *fiber.Ctx) error {
	out, err := h.uc.RefundFull(c.UserContext(), c.Params("id"), GetStoreID(c), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.StatusResponse{Status: out.Status})
}

// RefundPartial godoc
// @Summary      Reembolso parcial por variante
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la venta"
// @Param        body  body  dto.RefundPartialRequest  true  "Cantidades a devolver"
// @Success      200   {object}  dto.RefundPartialResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/refund-partial [post]
func (h *SalesHandler) RefundPartial(c *fiber.Ctx) error {
	var in dto.RefundPartialRequest
	if err := c.BodyParser(&in); err != nil {
		return h.bodyError(c, err)
	}
	lines := make([]sales.RefundLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, sales.RefundLine{VariantID: it.VariantID, Quantity: int(it.Quantity)})
	}
	out, err := h.uc.RefundPartial(c.UserContext(), c.Params("id"), GetStoreID(c), GetUserID(c), lines)
	if err != nil {
		return respondError(c, h.log, err)
	}
	skipped := make([]dto.RefundLineRequest, 0, len(out.Skipped))
	for _, s := range out.Skipped {
		skipped = append(skipped, dto.RefundLineRequest{VariantID: s.VariantID, Quantity: dto.Quantity(s.Quantity)})
	}
	return c.JSON(dto.RefundPartialResponse{
		Status:         out.Status,
		RefundedAmount: out.RefundedAmount,
		Skipped:        skipped,
	})
}
