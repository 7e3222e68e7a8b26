package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/catalog"
)

var _ catalog.CatalogWriter = (*CatalogWriter)(nil)

const catalogSheet = "catalog"

var catalogHeaders = []any{"품번", "품명", "분류", "출시년도", "컬러", "사이즈", "바코드", "정가", "판매가", "본사재고"}

// CatalogWriter exporta el catálogo como xlsx usando el stream writer de excelize.
type CatalogWriter struct{}

// NewCatalogWriter construye el exportador.
func NewCatalogWriter() *CatalogWriter { return &CatalogWriter{} }

func (w *CatalogWriter) WriteCatalog(out io.Writer, rows []catalog.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", catalogSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(catalogSheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", catalogHeaders); err != nil {
		return err
	}
	for i, r := range rows {
		var year any
		if r.ReleaseYear != nil {
			year = *r.ReleaseYear
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.ProductNumber, r.ProductName, r.Category, year, r.Color, r.Size, r.Barcode,
			r.OriginalPrice.InexactFloat64(), r.SalePrice.InexactFloat64(), r.HQQuantity,
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("fila %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(out)
	return err
}
