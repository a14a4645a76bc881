package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LowStockResult material en o por debajo de su umbral de reorden.
type LowStockResult struct {
	MaterialID       string
	Code             string
	Name             string
	Unit             string
	Stock            decimal.Decimal
	ReorderThreshold decimal.Decimal
}

// ActivityResult movimiento reciente con datos del material y del autor.
type ActivityResult struct {
	MovementID   string
	Kind         string
	Quantity     decimal.Decimal
	Reason       string
	CreatedAt    time.Time
	MaterialID   string
	MaterialCode string
	MaterialName string
	Unit         string
	CreatedBy    string
	CreatedName  string
}

// ReportRepository consultas de solo lectura para el tablero. Todo se recalcula en cada
// llamada; no hay agregados mantenidos incrementalmente.
type ReportRepository interface {
	CountMaterials(ctx context.Context) (int, error)
	CountLowStock(ctx context.Context) (int, error)
	// CountMovementsBetween cuenta movimientos con created_at en [start, end).
	CountMovementsBetween(ctx context.Context, start, end time.Time) (int, error)
	ListLowStock(ctx context.Context, limit int) ([]LowStockResult, error)
	ListRecentActivity(ctx context.Context, limit int) ([]ActivityResult, error)
}
