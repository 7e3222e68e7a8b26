package catalog

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// Grupos de orden: lista de la marca, numéricas, nombradas (XXS..XXXL), resto léxico.
const (
	groupCustom = iota
	groupNumeric
	groupNamed
	groupOther
)

var sizeAliases = map[string]string{
	"2XS": "XXS",
	"2XL": "XXL",
	"3XL": "XXXL",
}

var namedSizeRank = map[string]int{
	"XXS": 0, "XS": 1, "S": 2, "M": 3, "L": 4, "XL": 5, "XXL": 6, "XXXL": 7,
}

// SizeOrder posición explícita de tallas definida por la marca (SIZE_SORT_ORDER), en mayúsculas.
type SizeOrder map[string]int

// ParseSizeOrder interpreta el JSON de SIZE_SORT_ORDER. JSON inválido devuelve un orden vacío.
func ParseSizeOrder(raw string) SizeOrder {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	order := make(SizeOrder, len(list))
	for i, s := range list {
		k := strings.ToUpper(strings.TrimSpace(s))
		if _, dup := order[k]; !dup {
			order[k] = i
		}
	}
	return order
}

// SizeRank posición ordenable de una talla.
type SizeRank struct {
	Group int
	Rank  int
	Text  string
}

// Key clave de orden final (productNumber, color, talla).
type Key struct {
	ProductNumber string
	Color         string
	Size          SizeRank
}

// RankSize calcula el rango de una talla según el orden de la marca o la tabla canónica.
func RankSize(size string, order SizeOrder) SizeRank {
	s := strings.ToUpper(strings.TrimSpace(size))
	if pos, ok := order[s]; ok {
		return SizeRank{Group: groupCustom, Rank: pos}
	}
	if alias, ok := sizeAliases[s]; ok {
		s = alias
	}
	if isASCIIDigits(s) {
		n, err := strconv.Atoi(s)
		if err == nil {
			return SizeRank{Group: groupNumeric, Rank: n}
		}
	}
	if r, ok := namedSizeRank[s]; ok {
		return SizeRank{Group: groupNamed, Rank: r}
	}
	return SizeRank{Group: groupOther, Text: s}
}

// SortKey clave de orden de una variante.
func SortKey(productNumber, color, size string, order SizeOrder) Key {
	return Key{ProductNumber: productNumber, Color: color, Size: RankSize(size, order)}
}

// Less compara dos claves lexicográficamente por (producto, color, grupo, rango, texto).
func Less(a, b Key) bool {
	if a.ProductNumber != b.ProductNumber {
		return a.ProductNumber < b.ProductNumber
	}
	if a.Color != b.Color {
		return a.Color < b.Color
	}
	if a.Size.Group != b.Size.Group {
		return a.Size.Group < b.Size.Group
	}
	if a.Size.Rank != b.Size.Rank {
		return a.Size.Rank < b.Size.Rank
	}
	return a.Size.Text < b.Size.Text
}

// SortVariants ordena en sitio las variantes de un producto.
func SortVariants(variants []*entity.Variant, productNumber string, order SizeOrder) {
	sort.SliceStable(variants, func(i, j int) bool {
		return Less(
			SortKey(productNumber, variants[i].Color, variants[i].Size, order),
			SortKey(productNumber, variants[j].Color, variants[j].Size, order),
		)
	})
}
