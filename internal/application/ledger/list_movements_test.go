package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/ledger"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/testutil"
)

func seedHistorial(t *testing.T) (*testutil.Store, string, string) {
	t.Helper()
	store := testutil.NewStore()
	tel := store.SeedMaterial("TEL-001", "Tela", 150, 50)
	hil := store.SeedMaterial("HIL-001", "Hilo", 80, 20)
	rec := newUseCase(store, 0)
	ctx := context.Background()
	for _, in := range []dto.RecordMovementRequest{
		req(tel, entity.MovementEntrada, 50),
		req(hil, entity.MovementSalida, 10),
		req(tel, entity.MovementSalida, 20),
	} {
		_, err := rec.Record(ctx, almacenero, in)
		require.NoError(t, err)
	}
	return store, tel, hil
}

func TestList_MasRecientesPrimero(t *testing.T) {
	store, _, _ := seedHistorial(t)
	uc := ledger.NewListMovementsUseCase(store.Movements())

	out, err := uc.List(context.Background(), produccion, dto.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, out.Items, 3)
	assert.Greater(t, out.Items[0].Seq, out.Items[1].Seq)
	assert.Greater(t, out.Items[1].Seq, out.Items[2].Seq)
	assert.Equal(t, 20, out.Page.Limit)
}

func TestList_Filtros(t *testing.T) {
	store, tel, _ := seedHistorial(t)
	uc := ledger.NewListMovementsUseCase(store.Movements())
	ctx := context.Background()

	out, err := uc.List(ctx, almacenero, dto.MovementFilter{MaterialID: tel})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)

	out, err = uc.List(ctx, almacenero, dto.MovementFilter{MaterialID: tel, Kind: entity.MovementSalida})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.True(t, out.Items[0].Quantity.Equal(decimal.NewFromInt(20)))
	assert.True(t, out.Items[0].StockAfter.Equal(decimal.NewFromInt(180)))

	future := time.Now().Add(time.Hour)
	out, err = uc.List(ctx, almacenero, dto.MovementFilter{From: &future})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestList_FiltrosInvalidos(t *testing.T) {
	store, _, _ := seedHistorial(t)
	uc := ledger.NewListMovementsUseCase(store.Movements())
	now := time.Now()
	before := now.Add(-time.Hour)

	for name, f := range map[string]dto.MovementFilter{
		"tipo":  {Kind: "ajuste"},
		"rango": {From: &now, To: &before},
		"uuid":  {MaterialID: "x"},
	} {
		_, err := uc.List(context.Background(), admin, f)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
}

func TestList_SinRolesForbidden(t *testing.T) {
	store, _, _ := seedHistorial(t)
	uc := ledger.NewListMovementsUseCase(store.Movements())

	_, err := uc.List(context.Background(), entity.Principal{ID: "u", Roles: entity.NewRoleSet()}, dto.MovementFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGet(t *testing.T) {
	store, tel, _ := seedHistorial(t)
	uc := ledger.NewListMovementsUseCase(store.Movements())
	ctx := context.Background()

	movs := store.MovementsOf(tel)
	got, err := uc.Get(ctx, produccion, movs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, movs[0].Seq, got.Seq)

	_, err = uc.Get(ctx, produccion, "00000000-0000-0000-0000-0000000000ff")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Get(ctx, produccion, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
