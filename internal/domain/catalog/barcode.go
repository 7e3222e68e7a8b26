// Package catalog contiene los algoritmos puros de identidad de SKU: derivación del código
// (barcode), claves normalizadas de búsqueda, iniciales fonéticas y orden de tallas.
package catalog

import (
	"strings"
)

// Tokens admitidos en la plantilla BARCODE_FORMAT de la marca.
const (
	TokenProductNumber = "product_number"
	TokenColor         = "color"
	TokenSize          = "size"
	TokenPNCleaned     = "pn_cleaned"
	TokenSizeUpper     = "size_upper"
	TokenPNFinal       = "pn_final"
	TokenSizeFinal     = "size_final"
)

const (
	pnPadThreshold = 10
	pnPadSuffix    = "00"
	sizeWidth      = 3
	sizeFree       = "FREE"
	sizeFreeCode   = "00F"
)

// DeriveCode deriva el código canónico del SKU a partir de (productNumber, color, size).
// format es la plantilla opcional de la marca; si es inválida se usa la concatenación por defecto
// pnFinal + color + sizeFinal. Devuelve false si algún componente queda vacío: el llamador debe
// omitir el registro en vez de insertar un código malformado.
func DeriveCode(productNumber, color, size, format string) (string, bool) {
	pn := strings.TrimSpace(productNumber)
	color = strings.TrimSpace(color)
	size = strings.TrimSpace(size)

	pnCleaned := strings.ReplaceAll(pn, "-", "")
	sizeUpper := strings.ToUpper(size)
	pnFinal := PadProductNumber(pnCleaned)
	sizeFinal := PadSize(size)

	if pnFinal == "" || color == "" || sizeFinal == "" {
		return "", false
	}

	if format != "" {
		tokens := map[string]string{
			TokenProductNumber: pn,
			TokenColor:         color,
			TokenSize:          size,
			TokenPNCleaned:     pnCleaned,
			TokenSizeUpper:     sizeUpper,
			TokenPNFinal:       pnFinal,
			TokenSizeFinal:     sizeFinal,
		}
		if out, ok := expandTemplate(format, tokens); ok && out != "" {
			return strings.ToUpper(out), true
		}
	}
	return strings.ToUpper(pnFinal + color + sizeFinal), true
}

// PadProductNumber agrega el sufijo "00" a números de producto de hasta 10 caracteres.
func PadProductNumber(pnCleaned string) string {
	if pnCleaned == "" {
		return ""
	}
	if len([]rune(pnCleaned)) <= pnPadThreshold {
		return pnCleaned + pnPadSuffix
	}
	return pnCleaned
}

// PadSize normaliza la talla a 3 posiciones:
// FREE -> 00F; numérica -> ceros a la izquierda; 1-3 caracteres -> ceros a la derecha (M -> M00);
// más larga -> primeros 3 caracteres.
func PadSize(size string) string {
	size = strings.TrimSpace(size)
	if size == "" {
		return ""
	}
	upper := strings.ToUpper(size)
	switch {
	case upper == sizeFree:
		return sizeFreeCode
	case isASCIIDigits(size):
		if len(size) >= sizeWidth {
			return size
		}
		return strings.Repeat("0", sizeWidth-len(size)) + size
	}
	r := []rune(upper)
	if len(r) <= sizeWidth {
		return upper + strings.Repeat("0", sizeWidth-len(r))
	}
	return string(r[:sizeWidth])
}

// expandTemplate sustituye {token} en tpl. "{{" y "}}" producen llaves literales.
// Devuelve false ante tokens desconocidos o llaves sin cerrar.
func expandTemplate(tpl string, tokens map[string]string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch c {
		case '{':
			if i+1 < len(tpl) && tpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return "", false
			}
			name := strings.TrimSpace(tpl[i+1 : i+1+end])
			val, ok := tokens[name]
			if !ok {
				return "", false
			}
			b.WriteString(val)
			i += end + 1
		case '}':
			if i+1 < len(tpl) && tpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", false
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), true
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
