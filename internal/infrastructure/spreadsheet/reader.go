// Package spreadsheet lectura de archivos subidos (xlsx, csv) y exportación xlsx del catálogo.
package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importer"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importjob"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
)

var _ importjob.TableReader = (*Reader)(nil)

// Reader abre la primera hoja de un xlsx o un csv (UTF-8 o cp949) como tabla de texto.
// Todas las celdas se normalizan a NFC.
type Reader struct{}

// NewReader construye el lector.
func NewReader() *Reader { return &Reader{} }

func (r *Reader) ReadFile(ctx context.Context, path string) (importer.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(ctx, path)
	case ".csv":
		return readCSV(path)
	}
	return importer.Table{}, fmt.Errorf("%w: formato no soportado %q", domain.ErrInvalidInput, filepath.Ext(path))
}

func readXLSX(ctx context.Context, path string) (importer.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return importer.Table{}, fmt.Errorf("%w: abrir xlsx: %v", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return importer.Table{}, fmt.Errorf("%w: el archivo no tiene hojas", domain.ErrInvalidInput)
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return importer.Table{}, fmt.Errorf("leer hoja %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		if len(records)%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return importer.Table{}, err
			}
		}
		cols, err := rows.Columns()
		if err != nil {
			return importer.Table{}, fmt.Errorf("leer fila %d: %w", len(records)+1, err)
		}
		records = append(records, cols)
	}
	if err := rows.Error(); err != nil {
		return importer.Table{}, fmt.Errorf("recorrer filas: %w", err)
	}
	return toTable(records)
}

func readCSV(path string) (importer.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return importer.Table{}, err
	}
	data, err := decodeText(raw)
	if err != nil {
		return importer.Table{}, err
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return importer.Table{}, fmt.Errorf("%w: csv: %v", domain.ErrInvalidInput, err)
		}
		records = append(records, rec)
	}
	return toTable(records)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText UTF-8 (con o sin BOM) o, si no es UTF-8 válido, cp949/EUC-KR.
func decodeText(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		return bytes.TrimPrefix(raw, utf8BOM), nil
	}
	out, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: codificación no reconocida: %v", domain.ErrInvalidInput, err)
	}
	return out, nil
}

func toTable(records [][]string) (importer.Table, error) {
	if len(records) == 0 {
		return importer.Table{}, fmt.Errorf("%w: archivo vacío", domain.ErrInvalidInput)
	}
	for _, rec := range records {
		for i, v := range rec {
			rec[i] = norm.NFC.String(strings.TrimSpace(v))
		}
	}
	return importer.Table{Headers: records[0], Rows: records[1:]}, nil
}
