package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/catalog"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

// Grupos de talla usados para resolver SIZE_MAPPING.
const (
	GroupKids         = "키즈"
	GroupTops         = "상의"
	GroupShoes        = "신발"
	GroupHats         = "모자"
	GroupSocks        = "양말"
	GroupBagsSticks   = "가방스틱"
	GroupGloves       = "장갑"
	GroupOther        = "기타"
	GroupMensBottoms  = "남성하의"
	GroupWomensBottom = "여성하의"
)

const defaultCategoryIndex = 5

// SizeMapping grupo de talla -> (código 0..29 -> talla visible).
type SizeMapping map[string]map[string]string

// Resolve busca el código en la tabla del grupo y luego en la tabla genérica "기타".
func (m SizeMapping) Resolve(group, code string) (string, bool) {
	if t, ok := m[group]; ok {
		if s, ok := t[code]; ok && s != "" {
			return s, true
		}
	}
	if t, ok := m[GroupOther]; ok {
		if s, ok := t[code]; ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// CategoryRule regla de la marca: carácter en Index del número de producto -> categoría.
type CategoryRule struct {
	Index   int
	Map     map[string]string
	Default string
}

// Resolve categoría de catálogo; sin regla usa la categoría cruda o "기타".
func (r *CategoryRule) Resolve(productNumber, rawCategory string) string {
	if r == nil {
		if c := strings.TrimSpace(rawCategory); c != "" {
			return c
		}
		return GroupOther
	}
	pn := []rune(strings.TrimSpace(productNumber))
	if len(pn) <= r.Index {
		return r.Default
	}
	if c, ok := r.Map[string(pn[r.Index])]; ok {
		return c
	}
	return r.Default
}

// BrandRules configuración de la marca que afecta la importación.
type BrandRules struct {
	BarcodeFormat string
	SizeMapping   SizeMapping
	Category      *CategoryRule
	SizeOrder     catalog.SizeOrder
	// Strategy layout configurado por la marca (IMPORT_STRATEGY).
	Strategy Layout
}

// RulesFromSettings construye las reglas desde la configuración clave-valor.
// JSON inválido en SIZE_MAPPING o CATEGORY_MAPPING_RULE rechaza la importación completa.
func RulesFromSettings(settings map[string]string) (BrandRules, error) {
	rules := BrandRules{
		BarcodeFormat: strings.TrimSpace(settings[repository.SettingBarcodeFormat]),
		SizeOrder:     catalog.ParseSizeOrder(settings[repository.SettingSizeSortOrder]),
		Strategy:      LayoutVertical,
	}
	if Layout(strings.TrimSpace(settings[repository.SettingImportStrategy])) == LayoutHorizontal {
		rules.Strategy = LayoutHorizontal
	}

	if raw := strings.TrimSpace(settings[repository.SettingSizeMapping]); raw != "" {
		var m map[string]map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return rules, fmt.Errorf("%w: SIZE_MAPPING inválido: %v", domain.ErrInvalidInput, err)
		}
		rules.SizeMapping = make(SizeMapping, len(m))
		for group, table := range m {
			t := make(map[string]string, len(table))
			for code, v := range table {
				t[strings.TrimSpace(code)] = strings.TrimSpace(fmt.Sprint(v))
			}
			rules.SizeMapping[strings.TrimSpace(group)] = t
		}
	}

	if raw := strings.TrimSpace(settings[repository.SettingCategoryRule]); raw != "" {
		var c struct {
			Index   *int              `json:"INDEX"`
			Map     map[string]string `json:"MAP"`
			Default *string           `json:"DEFAULT"`
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return rules, fmt.Errorf("%w: CATEGORY_MAPPING_RULE inválido: %v", domain.ErrInvalidInput, err)
		}
		if len(probe) > 0 {
			if err := json.Unmarshal([]byte(raw), &c); err != nil {
				return rules, fmt.Errorf("%w: CATEGORY_MAPPING_RULE inválido: %v", domain.ErrInvalidInput, err)
			}
			rule := &CategoryRule{Index: defaultCategoryIndex, Map: c.Map, Default: GroupOther}
			if c.Index != nil && *c.Index >= 0 {
				rule.Index = *c.Index
			}
			if c.Default != nil {
				rule.Default = *c.Default
			}
			rules.Category = rule
		}
	}
	return rules, nil
}

// SizeGroupKey clasifica el producto en un grupo de talla según posiciones fijas del número:
// 0 (bandera de categoría superior), 1 (género) y 5 (código detallado).
func SizeGroupKey(productNumber, rawCategory string) string {
	pn := []rune(strings.ToUpper(strings.TrimSpace(productNumber)))
	if len(pn) == 0 {
		return GroupOther
	}
	at := func(i int) rune {
		if i < len(pn) {
			return pn[i]
		}
		return 0
	}
	if at(0) == 'J' {
		return GroupKids
	}
	switch at(5) {
	case '1', '2', '4', '5', '6', 'M', '7':
		return GroupTops
	case 'G', 'N':
		return GroupShoes
	case 'C':
		return GroupHats
	case 'S':
		return GroupSocks
	case 'B', 'T':
		return GroupBagsSticks
	case 'V':
		return GroupGloves
	case 'A', '8', '9':
		return GroupOther
	case '3':
		if at(1) == 'W' {
			return GroupWomensBottom
		}
		return GroupMensBottoms
	}
	c := strings.TrimSpace(rawCategory)
	if c != "" && c != "nan" && c != "None" {
		return c
	}
	return GroupOther
}
