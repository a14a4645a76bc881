package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo implementación de MaterialRepository sobre PostgreSQL (usable con pool o tx).
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

const materialColumns = `id, code, name, description, unit, stock, reorder_threshold, unit_price, created_at, updated_at`

func scanMaterial(row pgx.Row) (*entity.Material, error) {
	var m entity.Material
	err := row.Scan(
		&m.ID, &m.Code, &m.Name, &m.Description, &m.Unit,
		&m.Stock, &m.ReorderThreshold, &m.UnitPrice, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserta el material. Un código repetido devuelve domain.ErrDuplicateCode.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (id, code, name, description, unit, stock, reorder_threshold, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.Code, m.Name, m.Description, m.Unit, m.Stock, m.ReorderThreshold, m.UnitPrice,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCode
		}
		return wrap("create material", err)
	}
	return nil
}

// GetByID obtiene un material por ID.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`
	m, err := scanMaterial(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get material", err)
	}
	return m, nil
}

// GetByCode obtiene un material por código normalizado.
func (r *MaterialRepo) GetByCode(ctx context.Context, code string) (*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE code = $1`
	m, err := scanMaterial(r.q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get material by code", err)
	}
	return m, nil
}

// GetForUpdate obtiene el material y bloquea la fila para update (SELECT FOR UPDATE).
func (r *MaterialRepo) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1 FOR UPDATE`
	m, err := scanMaterial(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get material for update", err)
	}
	return m, nil
}

// Update modifica metadatos. No toca code ni stock.
func (r *MaterialRepo) Update(ctx context.Context, m *entity.Material) error {
	query := `
		UPDATE materials
		SET name = $2, description = $3, unit = $4, reorder_threshold = $5, unit_price = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.Name, m.Description, m.Unit, m.ReorderThreshold, m.UnitPrice,
	).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrMaterialNotFound
		}
		return wrap("update material", err)
	}
	return nil
}

// UpdateStock actualiza el stock solo si sigue valiendo expected.
func (r *MaterialRepo) UpdateStock(ctx context.Context, id string, expected, next decimal.Decimal) error {
	query := `UPDATE materials SET stock = $3, updated_at = now() WHERE id = $1 AND stock = $2`
	tag, err := r.q.Exec(ctx, query, id, expected, next)
	if err != nil {
		if pgCode(err) == codeCheckViolation {
			return domain.ErrInsufficientStock
		}
		return wrap("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// List lista materiales por nombre con búsqueda opcional sobre código y nombre.
func (r *MaterialRepo) List(ctx context.Context, f repository.MaterialFilter) ([]*entity.Material, int, error) {
	search := ""
	if f.Search != "" {
		search = likePattern(f.Search)
	}
	where := `
		WHERE ($1 = '' OR code ILIKE $1 OR name ILIKE $1)
		  AND (NOT $2 OR stock <= reorder_threshold)`

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM materials`+where, search, f.LowStockOnly).Scan(&total); err != nil {
		return nil, 0, wrap("count materials", err)
	}

	query := `SELECT ` + materialColumns + ` FROM materials` + where + `
		ORDER BY name, code
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, search, f.LowStockOnly, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, wrap("list materials", err)
	}
	defer rows.Close()

	var list []*entity.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, 0, wrap("scan material", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap("list materials", err)
	}
	return list, total, nil
}

// Delete elimina un material. Con movimientos la FK (ON DELETE RESTRICT) lo impide.
func (r *MaterialRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrMaterialInUse
		}
		return wrap("delete material", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMaterialNotFound
	}
	return nil
}
