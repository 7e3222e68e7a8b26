package importer_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importer"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

func TestParseColumnMap(t *testing.T) {
	cols, err := importer.ParseColumnMap(map[string]string{
		"product_number": "A",
		"color":          "ab",
		"size":           "3",
		"barcode":        "",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, cols[importer.FieldProductNumber])
	assert.Equal(t, 27, cols[importer.FieldColor])
	assert.Equal(t, 3, cols[importer.FieldSize])
	_, mapped := cols[importer.FieldBarcode]
	assert.False(t, mapped, "columna vacía no se mapea")

	_, err = importer.ParseColumnMap(map[string]string{"precio": "B"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = importer.ParseColumnMap(map[string]string{"color": "B1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, cols.Require(importer.FieldProductNumber, importer.FieldQuantity), domain.ErrInvalidInput)
	assert.NoError(t, cols.Require(importer.FieldProductNumber, importer.FieldColor))
}

func TestRulesFromSettings(t *testing.T) {
	rules, err := importer.RulesFromSettings(map[string]string{
		repository.SettingSizeMapping:    `{"신발": {"1": 230, "2": "240"}, "기타": {"0": "FREE"}}`,
		repository.SettingCategoryRule:   `{"MAP": {"G": "신발"}}`,
		repository.SettingImportStrategy: "horizontal_matrix",
	})
	require.NoError(t, err)
	assert.Equal(t, importer.LayoutHorizontal, rules.Strategy)
	require.NotNil(t, rules.Category)
	assert.Equal(t, 5, rules.Category.Index, "INDEX por defecto")
	assert.Equal(t, importer.GroupOther, rules.Category.Default)

	s, ok := rules.SizeMapping.Resolve(importer.GroupShoes, "1")
	assert.True(t, ok)
	assert.Equal(t, "230", s)
	s, ok = rules.SizeMapping.Resolve(importer.GroupShoes, "0")
	assert.True(t, ok, "cae a la tabla 기타")
	assert.Equal(t, "FREE", s)
	_, ok = rules.SizeMapping.Resolve(importer.GroupShoes, "9")
	assert.False(t, ok)

	_, err = importer.RulesFromSettings(map[string]string{repository.SettingSizeMapping: "{no-json"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = importer.RulesFromSettings(map[string]string{repository.SettingCategoryRule: "[1,"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	empty, err := importer.RulesFromSettings(map[string]string{repository.SettingCategoryRule: "{}"})
	require.NoError(t, err)
	assert.Nil(t, empty.Category)
	assert.Equal(t, importer.LayoutVertical, empty.Strategy)
}

func TestSizeGroupKey(t *testing.T) {
	cases := []struct {
		pn, raw, want string
	}{
		{"JM25AG100", "", importer.GroupKids},
		{"XM25AG100", "", importer.GroupShoes},
		{"XM25AN100", "", importer.GroupShoes},
		{"XW25A3100", "", importer.GroupWomensBottom},
		{"XM25A3100", "", importer.GroupMensBottoms},
		{"XM25A1100", "", importer.GroupTops},
		{"XM25AC100", "", importer.GroupHats},
		{"XM25AV100", "", importer.GroupGloves},
		{"XM25AZ100", "아우터", "아우터"},
		{"XM25AZ100", "nan", importer.GroupOther},
		{"XM2", "", importer.GroupOther},
		{"", "", importer.GroupOther},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, importer.SizeGroupKey(c.pn, c.raw), c.pn)
	}
}

func TestCategoryRule_Resolve(t *testing.T) {
	rule := &importer.CategoryRule{Index: 5, Map: map[string]string{"G": "신발"}, Default: "기타"}
	assert.Equal(t, "신발", rule.Resolve("XM25AG100", "무시"))
	assert.Equal(t, "기타", rule.Resolve("XM25AZ100", ""))
	assert.Equal(t, "기타", rule.Resolve("XM25A", ""), "longitud <= INDEX usa el valor por defecto")

	var none *importer.CategoryRule
	assert.Equal(t, "아우터", none.Resolve("XM25AG100", "아우터"))
	assert.Equal(t, importer.GroupOther, none.Resolve("XM25AG100", ""))
}

func TestNormalize_Vertical(t *testing.T) {
	cols := importer.ColumnMap{
		importer.FieldProductNumber: 0, importer.FieldProductName: 1, importer.FieldColor: 2,
		importer.FieldSize: 3, importer.FieldQuantity: 4,
	}
	table := importer.Table{
		Headers: []string{"품번", "품명", "컬러", "사이즈", "수량"},
		Rows: [][]string{
			{"ABC1234", "티셔츠", "BK", "M", "3"},
			{"", "", "", "", ""},
			{"ABC1234", "티셔츠", "BK", "L", "1,000"},
		},
	}
	cands, err := importer.Normalize(table, cols, importer.LayoutVertical, importer.BrandRules{})
	require.NoError(t, err)
	require.Len(t, cands, 2, "filas vacías se omiten")
	assert.Equal(t, 2, cands[0].RowIndex)
	assert.Equal(t, 4, cands[1].RowIndex)
	assert.Equal(t, "1,000", cands[1].Quantity)
}

func horizontalFixture() (importer.Table, importer.ColumnMap, importer.BrandRules) {
	cols := importer.ColumnMap{
		importer.FieldProductNumber: 0, importer.FieldProductName: 1, importer.FieldColor: 2,
		importer.FieldOriginalPrice: 3, importer.FieldSalePrice: 4,
	}
	table := importer.Table{
		Headers: []string{"품번", "품명", "컬러", "정가", "판매가", "0", "1.0", "2", "비고"},
		Rows: [][]string{
			{"XM25AG100", "러닝화", "BK", "99,000", "", "", "2", "x", "memo"},
			{"XW25A3100", "팬츠", "NV", "", "59000", "1", "", "4", ""},
		},
	}
	rules := importer.BrandRules{
		SizeMapping: importer.SizeMapping{
			importer.GroupShoes:        {"1": "230", "2": "240"},
			importer.GroupWomensBottom: {"0": "S", "2": "L"},
			importer.GroupOther:        {"0": "FREE"},
		},
		Category: &importer.CategoryRule{Index: 5, Map: map[string]string{"G": "신발", "3": "하의"}, Default: "기타"},
	}
	return table, cols, rules
}

func TestNormalize_Horizontal(t *testing.T) {
	table, cols, rules := horizontalFixture()

	cands, err := importer.Normalize(table, cols, importer.LayoutHorizontal, rules)
	require.NoError(t, err)

	type got struct{ pn, size, qty, op, sp, cat string }
	var list []got
	for _, c := range cands {
		list = append(list, got{c.ProductNumber, c.Size, c.Quantity, c.OriginalPrice, c.SalePrice, c.Category})
	}
	assert.Equal(t, []got{
		{"XM25AG100", "FREE", "0", "99000", "99000", "신발"},
		{"XM25AG100", "230", "2", "99000", "99000", "신발"},
		{"XM25AG100", "240", "0", "99000", "99000", "신발"},
		{"XW25A3100", "S", "1", "59000", "59000", "하의"},
		{"XW25A3100", "L", "4", "59000", "59000", "하의"},
	}, list, "desdoblamiento por columna de talla, precios completados en ambos sentidos")
	assert.Equal(t, 2, cands[0].RowIndex)
	assert.Equal(t, 3, cands[3].RowIndex)
}

func TestNormalize_HorizontalWithoutSizeColumns(t *testing.T) {
	table := importer.Table{Headers: []string{"품번", "30", "A"}, Rows: [][]string{{"X", "1", "2"}}}
	_, err := importer.Normalize(table, importer.ColumnMap{importer.FieldProductNumber: 0}, importer.LayoutHorizontal, importer.BrandRules{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidate(t *testing.T) {
	cands := []importer.Candidate{
		{RowIndex: 2, ProductNumber: "ABC1234", ProductName: "티셔츠", Color: "BK", Size: "M", Quantity: "3", OriginalPrice: "10,000", ReleaseYear: "2024년", Favorite: "y"},
		{RowIndex: 3, ProductNumber: "ABC1234", Color: "", Size: "M"},
		{RowIndex: 4, ProductNumber: "ABC1234", Color: "WH", Size: "L", Quantity: "abc"},
		{RowIndex: 5, ProductNumber: "ABC1234", ProductName: "티셔츠", Color: "BK", Size: "L", Quantity: "1"},
		{RowIndex: 6, ProductNumber: "ABC-1234", ProductName: "티셔츠 v2", Color: "bk", Size: "m", Quantity: "7", SalePrice: "9000.0"},
		{RowIndex: 7, ProductNumber: "ZZZ", Color: "RD", Size: "S", Quantity: "1"},
		{RowIndex: 8, Barcode: "8801234567890", Quantity: "2"},
	}

	res := importer.Validate(cands, importer.BrandRules{}, map[int]bool{7: true})

	require.Len(t, res.Rejected, 2)
	assert.Equal(t, 3, res.Rejected[0].RowIndex)
	assert.Equal(t, "missing color", res.Rejected[0].Reason)
	assert.Equal(t, 4, res.Rejected[1].RowIndex)
	assert.Equal(t, "non-numeric quantity ('abc')", res.Rejected[1].Reason)

	require.Len(t, res.Records, 3, "fila excluida omitida y duplicado colapsado")
	assert.Equal(t, 1, res.Duplicates)

	first := res.Records[0]
	assert.Equal(t, "ABC123400BKM00", first.Code)
	assert.Equal(t, 6, first.RowIndex, "gana la última aparición en la posición de la primera")
	assert.Equal(t, 7, first.Quantity)
	assert.True(t, first.SalePrice.Equal(decimal.NewFromInt(9000)))
	assert.True(t, first.OriginalPrice.Equal(decimal.NewFromInt(9000)), "precio original completado desde el de venta")
	assert.Nil(t, first.ReleaseYear)
	assert.Equal(t, "ABC1234", first.ProductNumberCleaned)
	assert.Equal(t, "ㅌㅅㅊV2", first.NameInitials)

	assert.Equal(t, "ABC123400BKL00", res.Records[1].Code)

	bc := res.Records[2]
	assert.True(t, bc.BarcodeOnly)
	assert.Equal(t, "8801234567890", bc.CodeCleaned)
	assert.Equal(t, 2, bc.Quantity)
}

func TestValidate_ParsesYearAndFavorite(t *testing.T) {
	res := importer.Validate([]importer.Candidate{
		{RowIndex: 2, ProductNumber: "A1", Color: "BK", Size: "M", ReleaseYear: "2024 년", Favorite: "O"},
		{RowIndex: 3, ProductNumber: "A1", Color: "BK", Size: "L", ReleaseYear: "2023.0", Favorite: "no"},
		{RowIndex: 4, ProductNumber: "A1", Color: "BK", Size: "S", ReleaseYear: "미정"},
	}, importer.BrandRules{}, nil)

	require.Len(t, res.Records, 3)
	require.NotNil(t, res.Records[0].ReleaseYear)
	assert.Equal(t, 2024, *res.Records[0].ReleaseYear)
	assert.True(t, res.Records[0].Favorite)
	require.NotNil(t, res.Records[1].ReleaseYear)
	assert.Equal(t, 2023, *res.Records[1].ReleaseYear)
	assert.False(t, res.Records[1].Favorite)
	assert.Nil(t, res.Records[2].ReleaseYear)
	assert.Equal(t, "A1", res.Records[0].ProductName, "sin nombre se usa el número de producto")
}

func TestValidate_UsesBarcodeFormat(t *testing.T) {
	res := importer.Validate([]importer.Candidate{
		{RowIndex: 2, ProductNumber: "AB-12", Color: "bk", Size: "FREE"},
	}, importer.BrandRules{BarcodeFormat: "{pn_cleaned}-{color}-{size_final}"}, nil)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "AB12-BK-00F", res.Records[0].Code)
	assert.Equal(t, "AB12BK00F", res.Records[0].CodeCleaned)
}

func TestVerify(t *testing.T) {
	cols := importer.ColumnMap{
		importer.FieldProductNumber: 0, importer.FieldProductName: 1,
		importer.FieldSalePrice: 2, importer.FieldQuantity: 3,
	}
	table := importer.Table{
		Headers: []string{"품번", "품명", "판매가", "수량"},
		Rows: [][]string{
			{"A1", "셔츠", "1,000.00", "-3"},
			{"", "바지", "abc", "2"},
			{"B2", "모자", "500", "x"},
		},
	}

	got := importer.Verify(table, cols, importer.LayoutVertical)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].RowIndex)
	assert.Equal(t, "(none) / 바지", got[0].Preview)
	assert.Equal(t, []string{"missing identifier", "non-numeric sale_price ('abc')"}, got[0].Reasons)
	assert.Equal(t, 4, got[1].RowIndex)
	assert.Equal(t, "B2 / 모자", got[1].Preview)

	assert.Equal(t, got, importer.Verify(table, cols, importer.LayoutVertical), "Verify es idempotente")
}

func TestVerify_HorizontalChecksSizeCells(t *testing.T) {
	table, cols, _ := horizontalFixture()
	got := importer.Verify(table, cols, importer.LayoutHorizontal)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].RowIndex)
	assert.Equal(t, "XM25AG100 / 러닝화", got[0].Preview)
	assert.Equal(t, []string{"non-numeric quantity ('x')"}, got[0].Reasons)
}
