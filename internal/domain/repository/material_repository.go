package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// MaterialFilter criterios de listado del catálogo.
type MaterialFilter struct {
	Search       string // coincide (sin distinguir mayúsculas) con código o nombre
	LowStockOnly bool   // solo materiales con stock <= umbral de reorden
	Limit        int
	Offset       int
}

// MaterialRepository define el puerto de persistencia para Material (DIP).
// Los métodos GetByID/GetByCode/GetForUpdate devuelven (nil, nil) si no existe.
type MaterialRepository interface {
	Create(ctx context.Context, m *entity.Material) error
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	GetByCode(ctx context.Context, code string) (*entity.Material, error)
	// GetForUpdate bloquea la fila del material hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Material, error)
	// Update modifica solo metadatos; nunca toca stock.
	Update(ctx context.Context, m *entity.Material) error
	// UpdateStock es un update condicional: solo aplica si el stock actual sigue siendo expected.
	// Devuelve domain.ErrConflict si otra transacción lo cambió entre la lectura y la escritura.
	UpdateStock(ctx context.Context, id string, expected, next decimal.Decimal) error
	List(ctx context.Context, filter MaterialFilter) ([]*entity.Material, int, error)
	Delete(ctx context.Context, id string) error
}
