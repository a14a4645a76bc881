package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material representa una materia prima del inventario.
// Stock solo cambia vía movimientos del ledger; nunca se edita directamente.
type Material struct {
	ID               string
	Code             string // código único normalizado (ej. "TEL-001")
	Name             string
	Description      string
	Unit             string // unidad de medida: metros, kg, unidades...
	Stock            decimal.Decimal
	ReorderThreshold decimal.Decimal // stock mínimo antes de reabastecer
	UnitPrice        decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsLowStock indica si el material está en o por debajo de su umbral de reorden.
func (m *Material) IsLowStock() bool {
	return m.Stock.LessThanOrEqual(m.ReorderThreshold)
}
