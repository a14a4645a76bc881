package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/testutil"
)

var (
	admin      = entity.Principal{ID: "u-admin", Roles: entity.NewRoleSet(entity.RoleAdmin)}
	almacenero = entity.Principal{ID: "u-almacen", Roles: entity.NewRoleSet(entity.RoleAlmacenero)}
	produccion = entity.Principal{ID: "u-prod", Roles: entity.NewRoleSet(entity.RoleProduccion)}
)

func newCatalog(store *testutil.Store) *catalog.MaterialUseCase {
	return catalog.NewMaterialUseCase(store.Materials(), store.Movements())
}

func telaRequest() dto.CreateMaterialRequest {
	return dto.CreateMaterialRequest{
		Code:             " tel-001 ",
		Name:             "Tela Algodón",
		Unit:             "metros",
		Stock:            decimal.NewFromInt(150),
		ReorderThreshold: decimal.NewFromInt(50),
		UnitPrice:        decimal.RequireFromString("12.50"),
	}
}

func TestCreate_NormalizaCodigo(t *testing.T) {
	uc := newCatalog(testutil.NewStore())

	out, err := uc.Create(context.Background(), almacenero, telaRequest())
	require.NoError(t, err)
	assert.Equal(t, "TEL-001", out.Code)
	assert.True(t, out.Stock.Equal(decimal.NewFromInt(150)))
	assert.False(t, out.LowStock)
}

func TestCreate_CodigoDuplicado(t *testing.T) {
	uc := newCatalog(testutil.NewStore())
	ctx := context.Background()

	_, err := uc.Create(ctx, almacenero, telaRequest())
	require.NoError(t, err)

	dup := telaRequest()
	dup.Code = "TEL-001"
	_, err = uc.Create(ctx, admin, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestCreate_Validacion(t *testing.T) {
	uc := newCatalog(testutil.NewStore())

	cases := map[string]func(*dto.CreateMaterialRequest){
		"code vacío":       func(r *dto.CreateMaterialRequest) { r.Code = "  " },
		"name vacío":       func(r *dto.CreateMaterialRequest) { r.Name = "" },
		"unit vacía":       func(r *dto.CreateMaterialRequest) { r.Unit = " " },
		"stock negativo":   func(r *dto.CreateMaterialRequest) { r.Stock = decimal.NewFromInt(-1) },
		"umbral negativo":  func(r *dto.CreateMaterialRequest) { r.ReorderThreshold = decimal.NewFromInt(-1) },
		"precio negativo":  func(r *dto.CreateMaterialRequest) { r.UnitPrice = decimal.RequireFromString("-0.01") },
		"espacios en code": func(r *dto.CreateMaterialRequest) { r.Code = "TEL 001" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := telaRequest()
			mutate(&in)
			_, err := uc.Create(context.Background(), almacenero, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreate_ProduccionForbidden(t *testing.T) {
	store := testutil.NewStore()
	uc := newCatalog(store)

	_, err := uc.Create(context.Background(), produccion, telaRequest())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := uc.List(context.Background(), produccion, dto.MaterialFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestUpdate_NoTocaStock(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-001", "Tela", 150, 50)
	uc := newCatalog(store)

	name := "Tela Algodón Premium"
	threshold := decimal.NewFromInt(200)
	out, err := uc.Update(context.Background(), almacenero, id, dto.UpdateMaterialRequest{
		Name:             &name,
		ReorderThreshold: &threshold,
	})
	require.NoError(t, err)
	assert.Equal(t, name, out.Name)
	assert.True(t, out.LowStock)
	assert.True(t, store.Stock(id).Equal(decimal.NewFromInt(150)))
}

func TestUpdate_Errores(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-001", "Tela", 150, 50)
	uc := newCatalog(store)
	ctx := context.Background()

	empty := ""
	_, err := uc.Update(ctx, almacenero, id, dto.UpdateMaterialRequest{Unit: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	neg := decimal.NewFromInt(-5)
	_, err = uc.Update(ctx, almacenero, id, dto.UpdateMaterialRequest{UnitPrice: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Update(ctx, almacenero, "00000000-0000-0000-0000-0000000000ff", dto.UpdateMaterialRequest{})
	assert.ErrorIs(t, err, domain.ErrMaterialNotFound)

	_, err = uc.Update(ctx, produccion, id, dto.UpdateMaterialRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDelete(t *testing.T) {
	store := testutil.NewStore()
	libre := store.SeedMaterial("HIL-001", "Hilo", 80, 20)
	usado := store.SeedMaterial("TEL-001", "Tela", 150, 50)
	store.AddMovement(&entity.Movement{MaterialID: usado, Kind: entity.MovementEntrada, Quantity: decimal.NewFromInt(1)})
	uc := newCatalog(store)
	ctx := context.Background()

	assert.ErrorIs(t, uc.Delete(ctx, almacenero, libre), domain.ErrForbidden, "solo admin elimina")
	assert.ErrorIs(t, uc.Delete(ctx, admin, usado), domain.ErrMaterialInUse)
	require.NoError(t, uc.Delete(ctx, admin, libre))
	assert.ErrorIs(t, uc.Delete(ctx, admin, libre), domain.ErrMaterialNotFound)
}

func TestListYGet(t *testing.T) {
	store := testutil.NewStore()
	tel := store.SeedMaterial("TEL-001", "Tela Algodón", 150, 50)
	store.SeedMaterial("HIL-001", "Hilo", 10, 20)
	store.SeedMaterial("BOT-001", "Botones", 5000, 1000)
	uc := newCatalog(store)
	ctx := context.Background()

	all, err := uc.List(ctx, produccion, dto.MaterialFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Page.Total)
	assert.Equal(t, "Botones", all.Items[0].Name, "ordenado por nombre")

	low, err := uc.List(ctx, produccion, dto.MaterialFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "HIL-001", low.Items[0].Code)

	found, err := uc.List(ctx, produccion, dto.MaterialFilter{Search: "tel"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)

	paged, err := uc.List(ctx, produccion, dto.MaterialFilter{PageRequest: dto.PageRequest{Limit: 2, Offset: 2}})
	require.NoError(t, err)
	assert.Len(t, paged.Items, 1)
	assert.Equal(t, 3, paged.Page.Total)

	got, err := uc.Get(ctx, produccion, tel)
	require.NoError(t, err)
	assert.Equal(t, "TEL-001", got.Code)

	_, err = uc.Get(ctx, produccion, "no-existe")
	assert.ErrorIs(t, err, domain.ErrMaterialNotFound)
}
