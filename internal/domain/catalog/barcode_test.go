package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/catalog"
)

// El ejemplo canónico: "ABC1234" (7 caracteres) -> "ABC123400", talla "M" -> "M00".
func TestDeriveCode_EjemploCanonico(t *testing.T) {
	code, ok := catalog.DeriveCode("ABC1234", "BK", "M", "")
	require.True(t, ok)
	assert.Equal(t, "ABC123400BKM00", code)
}

func TestDeriveCode_Tallas(t *testing.T) {
	cases := []struct {
		name, pn, color, size, want string
	}{
		{"free", "ABC-1234", "bk", "free", "ABC123400BK00F"},
		{"numerica", "ABC1234", "BK", "95", "ABC123400BK095"},
		{"numerica larga", "ABC1234", "BK", "1000", "ABC123400BK1000"},
		{"tres letras", "ABC1234", "BK", "xxl", "ABC123400BKXXL"},
		{"dos letras", "ABC1234", "BK", "XL", "ABC123400BKXL0"},
		{"truncada", "ABC1234", "BK", "XXXL", "ABC123400BKXXX"},
		{"numero largo sin padding", "ABCDEFGHIJK", "BK", "M", "ABCDEFGHIJKBKM00"},
		{"diez caracteres con padding", "ABCDE-FGHIJ", "BK", "M", "ABCDEFGHIJ00BKM00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := catalog.DeriveCode(tc.pn, tc.color, tc.size, "")
			require.True(t, ok)
			assert.Equal(t, tc.want, code)
		})
	}
}

func TestDeriveCode_ComponentesVacios(t *testing.T) {
	for _, in := range [][3]string{{"", "BK", "M"}, {"ABC", "", "M"}, {"ABC", "BK", "  "}, {"-", "BK", "M"}} {
		_, ok := catalog.DeriveCode(in[0], in[1], in[2], "")
		assert.False(t, ok, "debe fallar para %v", in)
	}
}

func TestDeriveCode_Plantilla(t *testing.T) {
	code, ok := catalog.DeriveCode("abc-1234", "bk", "m", "{pn_cleaned}-{color}-{size_final}")
	require.True(t, ok)
	assert.Equal(t, "ABC1234-BK-M00", code)

	code, ok = catalog.DeriveCode("abc-1234", "bk", "m", "{{{product_number}}}")
	require.True(t, ok)
	assert.Equal(t, "{ABC-1234}", code)
}

func TestDeriveCode_PlantillaInvalidaUsaDefecto(t *testing.T) {
	for _, tpl := range []string{"{unknown}", "{pn_final", "pn}", "{}"} {
		code, ok := catalog.DeriveCode("ABC1234", "BK", "M", tpl)
		require.True(t, ok)
		assert.Equal(t, "ABC123400BKM00", code, "plantilla %q", tpl)
	}
}

func TestDeriveCode_Determinista(t *testing.T) {
	seen := map[string][2]string{}
	for _, color := range []string{"BK", "WH", "NV"} {
		for _, size := range []string{"S", "M", "L", "95", "100", "FREE"} {
			a, ok := catalog.DeriveCode("ABC1234", color, size, "")
			require.True(t, ok)
			b, _ := catalog.DeriveCode("ABC1234", color, size, "")
			assert.Equal(t, a, b)
			prev, dup := seen[a]
			assert.False(t, dup, "colisión %s entre %v y %v", a, prev, [2]string{color, size})
			seen[a] = [2]string{color, size}
		}
	}
}
