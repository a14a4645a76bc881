package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest body para POST /api/movements.
type RecordMovementRequest struct {
	MaterialID string          `json:"material_id" validate:"required,uuid"`
	Kind       string          `json:"kind" validate:"required,oneof=entrada salida"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason,omitempty" validate:"max=500"`
}

// MovementFilter parámetros de consulta del historial.
type MovementFilter struct {
	MaterialID string     `query:"material_id"`
	Kind       string     `query:"kind"`
	From       *time.Time `query:"-"`
	To         *time.Time `query:"-"`
	PageRequest
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID         string          `json:"id"`
	Seq        int64           `json:"seq"`
	MaterialID string          `json:"material_id"`
	Kind       string          `json:"kind"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason,omitempty"`
	StockAfter decimal.Decimal `json:"stock_after"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos (más recientes primero).
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
