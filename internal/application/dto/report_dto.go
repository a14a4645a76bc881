package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryResponse respuesta de GET /api/reports/summary. Todo se recalcula en cada petición.
type SummaryResponse struct {
	TotalMaterials   int    `json:"total_materials"`
	LowStock         int    `json:"low_stock"`
	ActivePrincipals int    `json:"active_principals"`
	MovementsToday   int    `json:"movements_today"`
	Date             string `json:"date"`      // día calendario usado para movements_today (YYYY-MM-DD)
	TimeZone         string `json:"time_zone"` // zona horaria de ese día
}

// Niveles de stock bajo.
const (
	StockLevelCritico = "critico" // stock <= mitad del umbral
	StockLevelBajo    = "bajo"
)

// LowStockItem material que requiere reabastecimiento.
type LowStockItem struct {
	MaterialID       string          `json:"material_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	Stock            decimal.Decimal `json:"stock"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold"`
	Deficit          decimal.Decimal `json:"deficit"`
	Level            string          `json:"level"`
}

// ActivityItem entrada de "Actividad Reciente".
type ActivityItem struct {
	MovementID   string          `json:"movement_id"`
	Kind         string          `json:"kind"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason,omitempty"`
	MaterialID   string          `json:"material_id"`
	MaterialCode string          `json:"material_code"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	CreatedBy    string          `json:"created_by"`
	CreatedName  string          `json:"created_by_name"`
	CreatedAt    time.Time       `json:"created_at"`
}
