package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

type seedUser struct {
	email string
	name  string
	role  string
}

type seedMaterial struct {
	code, name, unit        string
	stock, threshold, price string
}

var demoUsers = []seedUser{
	{"admin@josafat.com", "Administrador", entity.RoleAdmin},
	{"almacen@josafat.com", "Encargado de Almacén", entity.RoleAlmacenero},
	{"produccion@josafat.com", "Jefe de Producción", entity.RoleProduccion},
}

var demoMaterials = []seedMaterial{
	{"TEL-001", "Tela de algodón", "m", "150", "50", "12.50"},
	{"HIL-001", "Hilo de poliéster", "cono", "80", "20", "8.00"},
	{"BOT-001", "Botones de 4 agujeros", "unidad", "5000", "1000", "0.10"},
}

// SeedDemo inserta los usuarios y materiales de demostración. Es idempotente:
// lo que ya existe (por email o código) se deja como está.
func SeedDemo(ctx context.Context, pool *pgxpool.Pool, passwordHash string, log *logger.Logger) error {
	users := NewUserRepository(pool)
	for _, su := range demoUsers {
		existing, err := users.GetByEmail(ctx, su.email)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Info().Str("email", su.email).Msg("usuario ya existe, se omite")
			continue
		}
		u := &entity.User{
			ID:           uuid.New().String(),
			Email:        su.email,
			PasswordHash: passwordHash,
			Name:         su.name,
			Roles:        []string{su.role},
			Status:       entity.UserStatusActive,
		}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
		log.Info().Str("email", su.email).Str("role", su.role).Msg("usuario creado")
	}

	materials := NewMaterialRepository(pool)
	for _, sm := range demoMaterials {
		existing, err := materials.GetByCode(ctx, sm.code)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Info().Str("code", sm.code).Msg("material ya existe, se omite")
			continue
		}
		m := &entity.Material{
			ID:               uuid.New().String(),
			Code:             sm.code,
			Name:             sm.name,
			Unit:             sm.unit,
			Stock:            decimal.RequireFromString(sm.stock),
			ReorderThreshold: decimal.RequireFromString(sm.threshold),
			UnitPrice:        decimal.RequireFromString(sm.price),
		}
		if err := materials.Create(ctx, m); err != nil {
			return err
		}
		log.Info().Str("code", sm.code).Str("stock", sm.stock).Msg("material creado")
	}
	return nil
}
