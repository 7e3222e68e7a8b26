package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importer"
)

func TestParseColumns_ParesYJSON(t *testing.T) {
	pairs, err := parseColumns("product_number=A, color=C ,size=D")
	require.NoError(t, err)
	assert.Equal(t, importer.ColumnMap{
		importer.FieldProductNumber: 0,
		importer.FieldColor:         2,
		importer.FieldSize:          3,
	}, pairs)

	js, err := parseColumns(`{"product_number":"A","quantity":"AB"}`)
	require.NoError(t, err)
	assert.Equal(t, 27, js[importer.FieldQuantity])

	_, err = parseColumns("product_number")
	assert.Error(t, err, "par sin columna")

	_, err = parseColumns("campo_raro=A")
	assert.Error(t, err, "campo desconocido")
}
