package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Consonantes iniciales (초성) en el orden de la descomposición Unicode de sílabas Hangul.
var leadingConsonants = []rune{
	'ㄱ', 'ㄲ', 'ㄴ', 'ㄷ', 'ㄸ', 'ㄹ', 'ㅁ', 'ㅂ', 'ㅃ', 'ㅅ',
	'ㅆ', 'ㅇ', 'ㅈ', 'ㅉ', 'ㅊ', 'ㅋ', 'ㅌ', 'ㅍ', 'ㅎ',
}

const (
	hangulBase      = 0xAC00
	hangulLast      = 0xD7A3
	hangulBlockSize = 21 * 28
	jamoFirst       = 'ㄱ'
	jamoLast        = 'ㅎ'
)

// NormalizeKey clave de búsqueda: NFC, sin guiones ni espacios, en mayúsculas.
// Se usa para todas las columnas indexadas (número de producto, nombre, color, talla, barcode).
func NormalizeKey(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// PhoneticInitials extrae las consonantes iniciales de cada sílaba Hangul (búsqueda por 초성).
// Letras ASCII y dígitos pasan sin cambios; jamo compatibles se conservan; el resto se descarta.
func PhoneticInitials(s string) string {
	key := NormalizeKey(s)
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= hangulBase && r <= hangulLast:
			b.WriteRune(leadingConsonants[(r-hangulBase)/hangulBlockSize])
		case r >= jamoFirst && r <= jamoLast:
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
