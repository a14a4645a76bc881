package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMaterialRequest entrada para crear un material. Stock es el stock inicial.
type CreateMaterialRequest struct {
	Code             string          `json:"code" validate:"required,max=50"`
	Name             string          `json:"name" validate:"required,min=1,max=200"`
	Description      string          `json:"description"`
	Unit             string          `json:"unit" validate:"required"`
	Stock            decimal.Decimal `json:"stock"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
}

// UpdateMaterialRequest entrada para actualizar metadatos (sin Stock: solo cambia vía movimientos).
type UpdateMaterialRequest struct {
	Name             *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description      *string          `json:"description"`
	Unit             *string          `json:"unit"`
	ReorderThreshold *decimal.Decimal `json:"reorder_threshold"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
}

// MaterialFilter parámetros de listado.
type MaterialFilter struct {
	Search   string `query:"search"`
	LowStock bool   `query:"low_stock"`
	PageRequest
}

// MaterialResponse salida de un material.
type MaterialResponse struct {
	ID               string          `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Unit             string          `json:"unit"`
	Stock            decimal.Decimal `json:"stock"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	LowStock         bool            `json:"low_stock"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// MaterialListResponse lista paginada de materiales.
type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
