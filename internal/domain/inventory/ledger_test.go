package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/inventory"
)

func TestApplyDelta_PermiteNegativo(t *testing.T) {
	st := &entity.StoreStock{StoreID: "s1", VariantID: "v1", Quantity: 1}
	e := inventory.ApplyDelta(st, -3, inventory.Movement{Type: entity.ChangeSale, ActorID: "u1"})
	assert.Equal(t, -2, st.Quantity)
	assert.Equal(t, -3, e.QuantityChange)
	assert.Equal(t, -2, e.CurrentQuantity, "el snapshot es el saldo posterior")
	assert.Equal(t, entity.ChangeSale, e.ChangeType)
}

func TestSetQuantity_SinCambioNoGeneraEntrada(t *testing.T) {
	st := &entity.StoreStock{Quantity: 4}
	assert.Nil(t, inventory.SetQuantity(st, 4, inventory.Movement{Type: entity.ChangeManualUpdate}))
	e := inventory.SetQuantity(st, inventory.Clamp(-5), inventory.Movement{Type: entity.ChangeManualUpdate})
	require.NotNil(t, e)
	assert.Equal(t, -4, e.QuantityChange)
	assert.Equal(t, 0, st.Quantity)
}

func TestReplay_ReconstruyeSaldo(t *testing.T) {
	st := &entity.StoreStock{}
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var log []*entity.StockHistory
	for i, d := range []int{5, -2, 1, 1, -7} {
		log = append(log, inventory.ApplyDelta(st, d, inventory.Movement{At: base.Add(time.Duration(i) * time.Minute)}))
	}
	// El orden de entrada no importa: Replay ordena por timestamp.
	log[0], log[3] = log[3], log[0]
	assert.Equal(t, st.Quantity, inventory.Replay(log))
	assert.Equal(t, -2, st.Quantity)
}
