package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementEntrada = "entrada" // aumenta stock
	MovementSalida  = "salida"  // disminuye stock
)

// MaxReasonLength longitud máxima (en caracteres) del motivo de un movimiento.
const MaxReasonLength = 500

// Movement es un registro inmutable del ledger. No existe actualización ni borrado:
// las correcciones se hacen con un movimiento compensatorio.
type Movement struct {
	ID         string
	Seq        int64 // orden monotónico asignado por la base de datos
	MaterialID string
	Kind       string
	Quantity   decimal.Decimal // siempre > 0; el signo lo da Kind
	Reason     string
	CreatedBy  string
	CreatedAt  time.Time
	StockAfter decimal.Decimal // stock del material inmediatamente después de aplicar el movimiento
}

// IsValidMovementKind valida el tipo de movimiento.
func IsValidMovementKind(kind string) bool {
	return kind == MovementEntrada || kind == MovementSalida
}

// Apply devuelve el stock resultante de aplicar el movimiento sobre current.
func (m *Movement) Apply(current decimal.Decimal) decimal.Decimal {
	if m.Kind == MovementSalida {
		return current.Sub(m.Quantity)
	}
	return current.Add(m.Quantity)
}

// SignedQuantity cantidad con signo (+entrada, -salida), útil para sumas del ledger.
func (m *Movement) SignedQuantity() decimal.Decimal {
	if m.Kind == MovementSalida {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
