package ledger_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/ledger"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/material"
	"github.com/jhoicas/materiales-api/internal/testutil"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	almacenero = entity.Principal{ID: "u-almacen", Roles: entity.NewRoleSet(entity.RoleAlmacenero)}
	admin      = entity.Principal{ID: "u-admin", Roles: entity.NewRoleSet(entity.RoleAdmin)}
	produccion = entity.Principal{ID: "u-prod", Roles: entity.NewRoleSet(entity.RoleProduccion)}
)

func newUseCase(store *testutil.Store, maxRetries int) *ledger.RecordMovementUseCase {
	return ledger.NewRecordMovementUseCase(store.TxRunner(), ledger.RetryConfig{
		MaxRetries: maxRetries,
		Backoff:    time.Millisecond,
	}, logger.Nop())
}

func req(materialID, kind string, qty int64) dto.RecordMovementRequest {
	return dto.RecordMovementRequest{MaterialID: materialID, Kind: kind, Quantity: decimal.NewFromInt(qty)}
}

func assertStock(t *testing.T, store *testutil.Store, id string, want int64) {
	t.Helper()
	got := store.Stock(id)
	assert.True(t, got.Equal(decimal.NewFromInt(want)), "stock esperado %d, obtenido %s", want, got)
}

// assertLedgerConsistente verifica stock = inicial + Σ entradas − Σ salidas y la
// cadena de StockAfter en orden del ledger.
func assertLedgerConsistente(t *testing.T, store *testutil.Store, id string, initial int64) {
	t.Helper()
	movs := store.MovementsOf(id)
	assert.True(t, material.ReplayStock(decimal.NewFromInt(initial), movs).Equal(store.Stock(id)))

	running := decimal.NewFromInt(initial)
	for _, m := range movs {
		running = m.Apply(running)
		assert.False(t, running.IsNegative(), "ningún prefijo del ledger puede dejar stock negativo")
		assert.True(t, running.Equal(m.StockAfter), "stock_after de seq %d", m.Seq)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo básico
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_EntradaLuegoSalidaRechazadaLuegoSalidaExacta(t *testing.T) {
	store := testutil.NewStore()
	tel := store.SeedMaterial("TEL-001", "Tela Algodón", 150, 50)
	uc := newUseCase(store, 3)
	ctx := context.Background()

	mov, err := uc.Record(ctx, almacenero, req(tel, entity.MovementEntrada, 50))
	require.NoError(t, err)
	assert.True(t, mov.StockAfter.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, almacenero.ID, mov.CreatedBy)
	assertStock(t, store, tel, 200)

	_, err = uc.Record(ctx, almacenero, req(tel, entity.MovementSalida, 220))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assertStock(t, store, tel, 200)
	assert.Len(t, store.MovementsOf(tel), 1, "el rechazo no agrega movimientos")

	_, err = uc.Record(ctx, admin, req(tel, entity.MovementSalida, 200))
	require.NoError(t, err)
	assertStock(t, store, tel, 0)

	assert.Len(t, store.MovementsOf(tel), 2)
	assertLedgerConsistente(t, store, tel, 150)
}

func TestRecord_NormalizaMotivo(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("HIL-001", "Hilo", 80, 20)
	uc := newUseCase(store, 0)

	in := req(id, entity.MovementSalida, 5)
	in.Reason = "  corte lote 7 \n"
	mov, err := uc.Record(context.Background(), almacenero, in)
	require.NoError(t, err)
	assert.Equal(t, "corte lote 7", mov.Reason)
}

func TestRecord_Decimales(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-002", "Tela Lino", 10, 2)
	uc := newUseCase(store, 0)

	in := dto.RecordMovementRequest{MaterialID: id, Kind: entity.MovementSalida, Quantity: decimal.RequireFromString("2.75")}
	mov, err := uc.Record(context.Background(), almacenero, in)
	require.NoError(t, err)
	assert.Equal(t, "7.25", mov.StockAfter.String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Autorización y validación: nada se persiste
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_ProduccionNoPuedeRegistrar(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("BOT-001", "Botones", 5000, 1000)
	uc := newUseCase(store, 3)

	_, err := uc.Record(context.Background(), produccion, req(id, entity.MovementSalida, 10))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assertStock(t, store, id, 5000)
	assert.Empty(t, store.MovementsOf(id))
	assert.Zero(t, store.CommitAttempts())
}

func TestRecord_PrincipalSinRolesOAnonimo(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("BOT-001", "Botones", 5000, 1000)
	uc := newUseCase(store, 3)

	for _, p := range []entity.Principal{
		{ID: "u-inactivo", Roles: entity.NewRoleSet()},
		{},
	} {
		_, err := uc.Record(context.Background(), p, req(id, entity.MovementEntrada, 1))
		assert.ErrorIs(t, err, domain.ErrForbidden)
	}
	assert.Empty(t, store.MovementsOf(id))
}

func TestRecord_EntradaInvalida(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-001", "Tela", 150, 50)
	uc := newUseCase(store, 3)

	long := req(id, entity.MovementEntrada, 1)
	long.Reason = strings.Repeat("x", entity.MaxReasonLength+1)

	cases := map[string]dto.RecordMovementRequest{
		"cantidad cero":     req(id, entity.MovementEntrada, 0),
		"cantidad negativa": req(id, entity.MovementSalida, -5),
		"tipo desconocido":  req(id, "ajuste", 5),
		"material_id vacío": req("", entity.MovementEntrada, 5),
		"material_id raro":  req("no-es-uuid", entity.MovementEntrada, 5),
		"motivo largo":      long,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Record(context.Background(), almacenero, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assertStock(t, store, id, 150)
	assert.Zero(t, store.CommitAttempts())
}

func TestRecord_MaterialInexistente(t *testing.T) {
	store := testutil.NewStore()
	uc := newUseCase(store, 3)

	_, err := uc.Record(context.Background(), almacenero,
		req("00000000-0000-0000-0000-0000000000ff", entity.MovementEntrada, 5))
	assert.ErrorIs(t, err, domain.ErrMaterialNotFound)
}

func TestRecord_RechazoEsIdempotente(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-001", "Tela", 10, 5)
	uc := newUseCase(store, 3)

	for i := 0; i < 3; i++ {
		_, err := uc.Record(context.Background(), almacenero, req(id, entity.MovementSalida, 11))
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assertStock(t, store, id, 10)
	}
	assert.Empty(t, store.MovementsOf(id))
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia y reintentos
// ──────────────────────────────────────────────────────────────────────────────

// N salidas concurrentes de Q contra stock k·Q: exactamente k éxitos.
func TestRecord_SalidasConcurrentesNoSobregiran(t *testing.T) {
	const (
		n = 40
		k = 7
		q = 10
	)
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-001", "Tela", k*q, 5)
	uc := newUseCase(store, 3)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rechazos int
		otros    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Record(context.Background(), almacenero, req(id, entity.MovementSalida, q))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rechazos++
			default:
				otros = append(otros, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, otros)
	assert.Equal(t, k, ok)
	assert.Equal(t, n-k, rechazos)
	assertStock(t, store, id, 0)
	assertLedgerConsistente(t, store, id, k*q)
}

// Entradas y salidas mezcladas sobre dos materiales: el ledger cuadra en ambos.
func TestRecord_MezclaConcurrenteMantieneConsistencia(t *testing.T) {
	store := testutil.NewStore()
	a := store.SeedMaterial("TEL-001", "Tela", 100, 10)
	b := store.SeedMaterial("HIL-001", "Hilo", 30, 10)
	uc := newUseCase(store, 3)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := a
			if i%2 == 1 {
				id = b
			}
			kind := entity.MovementSalida
			if i%3 == 0 {
				kind = entity.MovementEntrada
			}
			_, _ = uc.Record(context.Background(), almacenero, req(id, kind, int64(i%7+1)))
		}(i)
	}
	wg.Wait()

	assertLedgerConsistente(t, store, a, 100)
	assertLedgerConsistente(t, store, b, 30)
}

func TestRecord_ReintentaTrasConflicto(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-001", "Tela", 150, 50)
	store.InjectConflicts(2)
	uc := newUseCase(store, 3)

	_, err := uc.Record(context.Background(), almacenero, req(id, entity.MovementSalida, 50))
	require.NoError(t, err)
	assertStock(t, store, id, 100)
	assert.Len(t, store.MovementsOf(id), 1, "los intentos fallidos no dejan movimientos")
}

func TestRecord_ReintentosAgotados(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-001", "Tela", 150, 50)
	store.InjectConflicts(10)
	uc := newUseCase(store, 2)

	_, err := uc.Record(context.Background(), almacenero, req(id, entity.MovementSalida, 50))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, domain.IsRetryable(err))
	assertStock(t, store, id, 150)
	assert.Empty(t, store.MovementsOf(id))
}

func TestRecord_ContextoCanceladoDuranteEspera(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-001", "Tela", 150, 50)
	store.InjectConflicts(10)
	uc := ledger.NewRecordMovementUseCase(store.TxRunner(), ledger.RetryConfig{
		MaxRetries: 5,
		Backoff:    time.Hour,
	}, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := uc.Record(ctx, almacenero, req(id, entity.MovementSalida, 50))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assertStock(t, store, id, 150)
}

func TestRecord_FalloDePersistencia(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedMaterial("TEL-001", "Tela", 150, 50)
	store.FailCommit(domain.ErrPersistenceUnavailable)
	uc := newUseCase(store, 3)

	_, err := uc.Record(context.Background(), almacenero, req(id, entity.MovementEntrada, 50))
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	assert.Equal(t, 1, store.CommitAttempts(), "un fallo de persistencia no se reintenta")
	assertStock(t, store, id, 150)
	assert.Empty(t, store.MovementsOf(id))
}
