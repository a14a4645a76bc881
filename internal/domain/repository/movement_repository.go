package repository

import (
	"context"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// MovementFilter criterios de consulta del historial de movimientos.
type MovementFilter struct {
	MaterialID string
	Kind       string
	From       *time.Time // inclusivo
	To         *time.Time // exclusivo
	Limit      int
	Offset     int
}

// MovementRepository define el puerto de persistencia del ledger (solo inserción y lectura).
type MovementRepository interface {
	// Create inserta el movimiento y completa Seq con el orden asignado por la base de datos.
	Create(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// List devuelve movimientos ordenados por fecha de creación descendente.
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
	ExistsForMaterial(ctx context.Context, materialID string) (bool, error)
}
