package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
)

func TestWrap(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "variants_barcode_key"}
	err := wrap("insert variants", unique)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "variants_barcode_key")

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "sale_items_variant_id_fkey"}
	assert.ErrorIs(t, wrap("delete variants", fk), domain.ErrIntegrity)

	other := errors.New("conexión cerrada")
	err = wrap("get store", other)
	assert.ErrorIs(t, err, other)
	assert.False(t, errors.Is(err, domain.ErrConflict))
}

func TestDateOnly(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	d := dateOnly(time.Date(2024, 3, 9, 0, 30, 0, 0, seoul))
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), d, "conserva el día calendario local")
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "v1", deref(nullable("v1")))
	assert.Equal(t, "", deref(nil))
}
