package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/ledger"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/internal/infrastructure/postgres"
	"github.com/jhoicas/materiales-api/pkg/config"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// setupTestDB conecta a TEST_DATABASE_URL, aplica migraciones y vacía las tablas.
// Sin la variable el test se omite para no tocar una base real.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL no definida: se omite el test de integración")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dbURL, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := postgres.NewMigrator(pool, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx))

	_, err = pool.Exec(ctx, `TRUNCATE TABLE movements, materials, users CASCADE`)
	require.NoError(t, err)
	return pool
}

func newMaterial(t *testing.T, repo *postgres.MaterialRepo, code string, stock int64) *entity.Material {
	t.Helper()
	m := &entity.Material{
		ID:               uuid.New().String(),
		Code:             code,
		Name:             "Material " + code,
		Unit:             "m",
		Stock:            decimal.NewFromInt(stock),
		ReorderThreshold: decimal.NewFromInt(50),
		UnitPrice:        decimal.RequireFromString("12.50"),
	}
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

var almacenero = entity.Principal{
	ID:    "00000000-0000-0000-0000-0000000000a1",
	Roles: entity.NewRoleSet(entity.RoleAlmacenero),
}

func TestMaterialRepo_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewMaterialRepository(pool)
	ctx := context.Background()

	m := newMaterial(t, repo, "TEL-001", 150)
	assert.False(t, m.CreatedAt.IsZero())

	dup := *m
	dup.ID = uuid.New().String()
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrDuplicateCode)

	got, err := repo.GetByCode(ctx, "TEL-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Stock.Equal(decimal.NewFromInt(150)))
	assert.True(t, got.UnitPrice.Equal(decimal.RequireFromString("12.5")))

	missing, err := repo.GetByID(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, missing)

	got.Name = "Tela de algodón"
	require.NoError(t, repo.Update(ctx, got))

	list, total, err := repo.List(ctx, repository.MaterialFilter{Search: "algod", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Tela de algodón", list[0].Name)

	_, total, err = repo.List(ctx, repository.MaterialFilter{Search: "%", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total, "los comodines de LIKE se buscan literalmente")

	require.NoError(t, repo.Delete(ctx, m.ID))
	assert.ErrorIs(t, repo.Delete(ctx, m.ID), domain.ErrMaterialNotFound)
}

func TestMaterialRepo_UpdateStockCondicional(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewMaterialRepository(pool)
	ctx := context.Background()
	m := newMaterial(t, repo, "HIL-001", 80)

	require.NoError(t, repo.UpdateStock(ctx, m.ID, decimal.NewFromInt(80), decimal.NewFromInt(70)))
	assert.ErrorIs(t, repo.UpdateStock(ctx, m.ID, decimal.NewFromInt(80), decimal.NewFromInt(60)), domain.ErrConflict,
		"un valor esperado desactualizado no debe escribir")
	assert.ErrorIs(t, repo.UpdateStock(ctx, m.ID, decimal.NewFromInt(70), decimal.NewFromInt(-1)), domain.ErrInsufficientStock)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(decimal.NewFromInt(70)))
}

func TestLedger_SalidasConcurrentes(t *testing.T) {
	pool := setupTestDB(t)
	m := newMaterial(t, postgres.NewMaterialRepository(pool), "BOT-001", 70)
	uc := ledger.NewRecordMovementUseCase(postgres.NewTxRunner(pool),
		ledger.RetryConfig{MaxRetries: 3, Backoff: 5 * time.Millisecond}, logger.Nop())

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, short int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Record(context.Background(), almacenero, dto.RecordMovementRequest{
				MaterialID: m.ID, Kind: entity.MovementSalida, Quantity: decimal.NewFromInt(10),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
				short++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 7, ok)
	assert.Equal(t, n-7, short)

	got, err := postgres.NewMaterialRepository(pool).GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.IsZero())

	movs, err := postgres.NewMovementRepository(pool).List(context.Background(),
		repository.MovementFilter{MaterialID: m.ID, Limit: 100})
	require.NoError(t, err)
	require.Len(t, movs, 7)
	// Más recientes primero: stock_after crece al recorrer hacia atrás.
	for i := 1; i < len(movs); i++ {
		assert.Greater(t, movs[i-1].Seq, movs[i].Seq)
		assert.True(t, movs[i].StockAfter.Sub(movs[i-1].StockAfter).Equal(decimal.NewFromInt(10)))
	}
}

func TestMovements_AppendOnly(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	m := newMaterial(t, postgres.NewMaterialRepository(pool), "TEL-002", 10)
	uc := ledger.NewRecordMovementUseCase(postgres.NewTxRunner(pool), ledger.RetryConfig{}, logger.Nop())

	mov, err := uc.Record(ctx, almacenero, dto.RecordMovementRequest{
		MaterialID: m.ID, Kind: entity.MovementEntrada, Quantity: decimal.RequireFromString("2.5"), Reason: "compra",
	})
	require.NoError(t, err)
	assert.Positive(t, mov.Seq)

	_, err = pool.Exec(ctx, `UPDATE movements SET quantity = 1 WHERE id = $1`, mov.ID)
	assert.Error(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM movements WHERE id = $1`, mov.ID)
	assert.Error(t, err)

	assert.ErrorIs(t, postgres.NewMaterialRepository(pool).Delete(ctx, m.ID), domain.ErrMaterialInUse)

	got, err := postgres.NewMovementRepository(pool).GetByID(ctx, mov.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "compra", got.Reason)
	assert.True(t, got.StockAfter.Equal(decimal.RequireFromString("12.5")))
}

func TestUserRepo_EmailSinDistinguirMayusculas(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewUserRepository(pool)
	ctx := context.Background()

	u := &entity.User{
		ID: uuid.New().String(), Email: "admin@josafat.com", PasswordHash: "x", Name: "Admin",
		Roles: []string{entity.RoleAdmin}, Status: entity.UserStatusActive,
	}
	require.NoError(t, repo.Create(ctx, u))

	dup := *u
	dup.ID = uuid.New().String()
	dup.Email = "ADMIN@josafat.com"
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrEmailAlreadyExists)

	got, err := repo.GetByEmail(ctx, "Admin@Josafat.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"admin"}, got.Roles)

	n, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSeedDemo_Idempotente(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, postgres.SeedDemo(ctx, pool, "hash", logger.Nop()))
	require.NoError(t, postgres.SeedDemo(ctx, pool, "hash", logger.Nop()))

	var users, materials int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users))
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM materials`).Scan(&materials))
	assert.Equal(t, 3, users)
	assert.Equal(t, 3, materials)
}
