package http

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/dto"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importer"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importjob"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// ImportHandler carga masiva de catálogo y stock por archivo.
type ImportHandler struct {
	runner *importjob.Runner
	tmpDir string
	log    *logger.Logger
}

// NewImportHandler construye el handler. Los archivos subidos se guardan en tmpDir hasta
// que el trabajo termina.
func NewImportHandler(runner *importjob.Runner, tmpDir string, log *logger.Logger) *ImportHandler {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &ImportHandler{runner: runner, tmpDir: tmpDir, log: log}
}

// saveUpload guarda el campo "file" con un nombre único conservando la extensión.
func (h *ImportHandler) saveUpload(c *fiber.Ctx) (string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("%w: archivo requerido", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(h.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("directorio temporal: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	path := filepath.Join(h.tmpDir, uuid.New().String()+ext)
	if err := c.SaveFile(fh, path); err != nil {
		return "", fmt.Errorf("guardar archivo: %w", err)
	}
	return path, nil
}

func parseColumns(raw string) (importer.ColumnMap, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: columns requerido", domain.ErrInvalidInput)
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("%w: columns debe ser un objeto JSON", domain.ErrInvalidInput)
	}
	return importer.ParseColumnMap(m)
}

// parseExcluded lee excluded_rows: arreglo JSON de números de fila.
func parseExcluded(raw string) (map[int]bool, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var rows []int
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("%w: excluded_rows debe ser un arreglo JSON", domain.ErrInvalidInput)
	}
	out := make(map[int]bool, len(rows))
	for _, r := range rows {
		out[r] = true
	}
	return out, nil
}

// Verify godoc
// @Summary      Verificar archivo de carga
// @Description  Devuelve las filas sospechosas sin escribir nada.
// @Tags         imports
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file     formData  file    true   "Archivo xlsx o csv"
// @Param        columns  formData  string  true   "Mapeo campo -> columna (JSON)"
// @Param        layout   formData  string  false  "vertical | horizontal_matrix"
// @Success      200      {array}   importer.Suspicious
// @Failure      400      {object}  dto.ErrorResponse
// @Router       /api/imports/verify [post]
func (h *ImportHandler) Verify(c *fiber.Ctx) error {
	cols, err := parseColumns(c.FormValue("columns"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	layout, err := importer.ParseLayout(c.FormValue("layout"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	path, err := h.saveUpload(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	rows, err := h.runner.Verify(c.UserContext(), importjob.VerifyRequest{
		BrandID:    GetBrandID(c),
		Columns:    cols,
		Layout:     layout,
		FilePath:   path,
		RemoveFile: true,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	if rows == nil {
		rows = []importer.Suspicious{}
	}
	return c.JSON(rows)
}

// Submit godoc
// @Summary      Encolar carga masiva
// @Description  Solo admin puede crear productos y usar los modos hq y db.
// @Tags         imports
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file           formData  file    true   "Archivo xlsx o csv"
// @Param        mode           formData  string  true   "hq | store | db"
// @Param        columns        formData  string  true   "Mapeo campo -> columna (JSON)"
// @Param        layout         formData  string  false  "vertical | horizontal_matrix"
// @Param        store_id       formData  string  false  "Tienda destino (modo store)"
// @Param        excluded_rows  formData  string  false  "Filas a omitir (JSON)"
// @Success      202            {object}  dto.SubmitImportResponse
// @Failure      403            {object}  dto.ErrorResponse
// @Router       /api/imports [post]
func (h *ImportHandler) Submit(c *fiber.Ctx) error {
	mode, err := reconcile.ParseMode(c.FormValue("mode"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	storeID := strings.TrimSpace(c.FormValue("store_id"))
	admin := IsAdmin(c)
	if !admin {
		if mode != reconcile.ModeStore {
			return forbidden(c, "solo admin puede cargar en modo "+string(mode))
		}
		own := GetStoreID(c)
		if own == "" || (storeID != "" && storeID != own) {
			return forbidden(c, "solo puede cargar stock de su propia tienda")
		}
		storeID = own
	} else if storeID == "" && mode == reconcile.ModeStore {
		storeID = GetStoreID(c)
	}
	if mode != reconcile.ModeStore {
		storeID = ""
	}
	cols, err := parseColumns(c.FormValue("columns"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	layout := importer.Layout("")
	if raw := c.FormValue("layout"); raw != "" {
		if layout, err = importer.ParseLayout(raw); err != nil {
			return respondError(c, h.log, err)
		}
	}
	excluded, err := parseExcluded(c.FormValue("excluded_rows"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	path, err := h.saveUpload(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	job, err := h.runner.Submit(c.UserContext(), importjob.JobRequest{
		BrandID:     GetBrandID(c),
		StoreID:     storeID,
		Mode:        mode,
		Columns:     cols,
		Layout:      layout,
		AllowCreate: admin,
		ActorID:     GetUserID(c),
		FilePath:    path,
		RemoveFile:  true,
		Excluded:    excluded,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.SubmitImportResponse{JobID: job.ID})
}

// ownJob obtiene el trabajo si pertenece a la marca del token.
func (h *ImportHandler) ownJob(c *fiber.Ctx) (*entity.ImportJob, error) {
	job, err := h.runner.Status(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if job.BrandID != GetBrandID(c) {
		return nil, fmt.Errorf("trabajo %s: %w", c.Params("id"), domain.ErrNotFound)
	}
	return job, nil
}

// Status GET /api/imports/:id
func (h *ImportHandler) Status(c *fiber.Ctx) error {
	job, err := h.ownJob(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(job)
}

// Cancel DELETE /api/imports/:id
func (h *ImportHandler) Cancel(c *fiber.Ctx) error {
	job, err := h.ownJob(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.runner.Cancel(c.UserContext(), job.ID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.StatusResponse{Status: "cancelling"})
}
