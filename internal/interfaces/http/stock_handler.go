package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/dto"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/stock"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// StockHandler saldos y libro de la tienda del token.
type StockHandler struct {
	uc  *stock.UseCase
	log *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.UseCase, log *logger.Logger) *StockHandler {
	return &StockHandler{uc: uc, log: log}
}

// Adjust godoc
// @Summary      Ajuste manual de saldo
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "set o delta"
// @Success      200   {object}  stock.AdjustOutput
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Adjust(c.UserContext(), stock.AdjustInput{
		StoreID:   GetStoreID(c),
		VariantID: in.VariantID,
		ActorID:   GetUserID(c),
		Set:       in.Set,
		Delta:     in.Delta,
		Note:      in.Note,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Count POST /api/stock/count
func (h *StockHandler) Count(c *fiber.Ctx) error {
	var in dto.CountStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if err := h.uc.RecordCount(c.UserContext(), GetStoreID(c), in.VariantID, in.Counted); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.StatusResponse{Status: "success"})
}

// ApplyCounts POST /api/stock/count/apply
func (h *StockHandler) ApplyCounts(c *fiber.Ctx) error {
	out, err := h.uc.ApplyCounts(c.UserContext(), GetStoreID(c), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// History GET /api/stock/history?variant_id=
func (h *StockHandler) History(c *fiber.Ctx) error {
	entries, err := h.uc.History(c.UserContext(), GetStoreID(c), c.Query("variant_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.NewStockHistoryResponse(entries))
}
