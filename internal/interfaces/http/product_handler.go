package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/catalog"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/dto"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// ProductHandler maneja las peticiones HTTP del catálogo de la marca (protegido).
type ProductHandler struct {
	uc  *catalog.UseCase
	log *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *catalog.UseCase, log *logger.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, log: log}
}

// Search godoc
// @Summary      Buscar productos por número, nombre o iniciales
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        q      query  string  true   "Texto de búsqueda"
// @Param        limit  query  int     false  "Máximo de resultados"
// @Success      200    {array}   dto.ProductResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/products/search [get]
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	list, err := h.uc.Search(c.UserContext(), GetBrandID(c), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.NewProductResponse(p))
	}
	return c.JSON(out)
}

// Variants GET /api/products/:id/variants
func (h *ProductHandler) Variants(c *fiber.Ctx) error {
	list, err := h.uc.ListVariants(c.UserContext(), GetBrandID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.VariantResponse, 0, len(list))
	for _, v := range list {
		out = append(out, dto.NewVariantResponse(v))
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto
// @Description  Falla con 409 INTEGRITY si hay ventas que referencian sus variantes.
// @Tags         products
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.StatusResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteProduct(c.UserContext(), GetBrandID(c), c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.StatusResponse{Status: "success"})
}

// Detach POST /api/products/:id/detach
func (h *ProductHandler) Detach(c *fiber.Ctx) error {
	n, err := h.uc.DetachProduct(c.UserContext(), GetBrandID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.DetachResponse{Status: "success", Detached: n})
}

// Export GET /api/products/export.xlsx
func (h *ProductHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.uc.ExportCatalog(c.UserContext(), GetBrandID(c), &buf); err != nil {
		return respondError(c, h.log, err)
	}
	c.Attachment("catalog.xlsx")
	return c.Send(buf.Bytes())
}
