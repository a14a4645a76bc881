package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas read-only del tablero sobre materials y movements.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

func (r *ReportRepo) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}

// CountMaterials total de materiales del catálogo.
func (r *ReportRepo) CountMaterials(ctx context.Context) (int, error) {
	return r.count(ctx, "count materials", `SELECT COUNT(*) FROM materials`)
}

// CountLowStock materiales con stock <= umbral de reorden.
func (r *ReportRepo) CountLowStock(ctx context.Context) (int, error) {
	return r.count(ctx, "count low stock", `SELECT COUNT(*) FROM materials WHERE stock <= reorder_threshold`)
}

// CountMovementsBetween movimientos con created_at en [start, end).
func (r *ReportRepo) CountMovementsBetween(ctx context.Context, start, end time.Time) (int, error) {
	return r.count(ctx, "count movements",
		`SELECT COUNT(*) FROM movements WHERE created_at >= $1 AND created_at < $2`, start, end)
}

// ListLowStock materiales bajo el umbral, mayor déficit primero. limit <= 0 no limita.
func (r *ReportRepo) ListLowStock(ctx context.Context, limit int) ([]repository.LowStockResult, error) {
	query := `
		SELECT id, code, name, unit, stock, reorder_threshold
		FROM materials
		WHERE stock <= reorder_threshold
		ORDER BY (reorder_threshold - stock) DESC, code
		LIMIT NULLIF($1, 0)`
	if limit < 0 {
		limit = 0
	}
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, wrap("list low stock", err)
	}
	defer rows.Close()

	var list []repository.LowStockResult
	for rows.Next() {
		var it repository.LowStockResult
		if err := rows.Scan(&it.MaterialID, &it.Code, &it.Name, &it.Unit, &it.Stock, &it.ReorderThreshold); err != nil {
			return nil, wrap("scan low stock", err)
		}
		list = append(list, it)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list low stock", err)
	}
	return list, nil
}

// ListRecentActivity últimos movimientos con material y autor.
func (r *ReportRepo) ListRecentActivity(ctx context.Context, limit int) ([]repository.ActivityResult, error) {
	query := `
		SELECT mv.id, mv.kind, mv.quantity, COALESCE(mv.reason, ''), mv.created_at,
		       m.id, m.code, m.name, m.unit,
		       mv.created_by, COALESCE(u.name, '')
		FROM movements mv
		JOIN materials m ON m.id = mv.material_id
		LEFT JOIN users u ON u.id = mv.created_by
		ORDER BY mv.created_at DESC, mv.seq DESC
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, wrap("list recent activity", err)
	}
	defer rows.Close()

	var list []repository.ActivityResult
	for rows.Next() {
		var a repository.ActivityResult
		if err := rows.Scan(
			&a.MovementID, &a.Kind, &a.Quantity, &a.Reason, &a.CreatedAt,
			&a.MaterialID, &a.MaterialCode, &a.MaterialName, &a.Unit,
			&a.CreatedBy, &a.CreatedName,
		); err != nil {
			return nil, wrap("scan recent activity", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list recent activity", err)
	}
	return list, nil
}
