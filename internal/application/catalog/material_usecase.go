package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/authz"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/material"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// MaterialUseCase aplica reglas de negocio del catálogo de materiales.
// El stock inicial se fija al crear; después solo cambia vía el ledger.
type MaterialUseCase struct {
	repo      repository.MaterialRepository
	movements repository.MovementRepository
}

// NewMaterialUseCase construye el caso de uso con los puertos de persistencia.
func NewMaterialUseCase(repo repository.MaterialRepository, movements repository.MovementRepository) *MaterialUseCase {
	return &MaterialUseCase{repo: repo, movements: movements}
}

// Create valida, normaliza el código y persiste un material nuevo.
func (uc *MaterialUseCase) Create(ctx context.Context, actor entity.Principal, in dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	if err := authz.Check(actor, authz.OpCreate, authz.EntityMaterial); err != nil {
		return nil, err
	}
	code, err := material.NormalizeCode(in.Code)
	if err != nil {
		return nil, err
	}
	m := &entity.Material{
		ID:               uuid.New().String(),
		Code:             code,
		Name:             strings.TrimSpace(in.Name),
		Description:      strings.TrimSpace(in.Description),
		Unit:             strings.TrimSpace(in.Unit),
		Stock:            in.Stock,
		ReorderThreshold: in.ReorderThreshold,
		UnitPrice:        in.UnitPrice,
	}
	if err := material.ValidateNew(m); err != nil {
		return nil, err
	}

	existing, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateCode
	}
	// El índice único cubre la carrera entre este chequeo y el INSERT.
	if err := uc.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return ToMaterialResponse(m), nil
}

// Update aplica un patch sobre los metadatos. Código y stock no se modifican aquí.
func (uc *MaterialUseCase) Update(ctx context.Context, actor entity.Principal, id string, in dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	if err := authz.Check(actor, authz.OpUpdate, authz.EntityMaterial); err != nil {
		return nil, err
	}
	m, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		m.Description = strings.TrimSpace(*in.Description)
	}
	if in.Unit != nil {
		m.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.ReorderThreshold != nil {
		m.ReorderThreshold = *in.ReorderThreshold
	}
	if in.UnitPrice != nil {
		m.UnitPrice = *in.UnitPrice
	}
	if err := material.ValidateMetadata(m); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return ToMaterialResponse(m), nil
}

// Delete elimina un material sin historial. Con movimientos devuelve domain.ErrMaterialInUse.
func (uc *MaterialUseCase) Delete(ctx context.Context, actor entity.Principal, id string) error {
	if err := authz.Check(actor, authz.OpDelete, authz.EntityMaterial); err != nil {
		return err
	}
	if _, err := uc.get(ctx, id); err != nil {
		return err
	}
	used, err := uc.movements.ExistsForMaterial(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return domain.ErrMaterialInUse
	}
	return uc.repo.Delete(ctx, id)
}

// Get obtiene un material por ID.
func (uc *MaterialUseCase) Get(ctx context.Context, actor entity.Principal, id string) (*dto.MaterialResponse, error) {
	if err := authz.Check(actor, authz.OpRead, authz.EntityMaterial); err != nil {
		return nil, err
	}
	m, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToMaterialResponse(m), nil
}

// List lista materiales con búsqueda, filtro de stock bajo y paginación.
func (uc *MaterialUseCase) List(ctx context.Context, actor entity.Principal, in dto.MaterialFilter) (*dto.MaterialListResponse, error) {
	if err := authz.Check(actor, authz.OpRead, authz.EntityMaterial); err != nil {
		return nil, err
	}
	in.DefaultPage()
	list, total, err := uc.repo.List(ctx, repository.MaterialFilter{
		Search:       strings.TrimSpace(in.Search),
		LowStockOnly: in.LowStock,
		Limit:        in.Limit,
		Offset:       in.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MaterialResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *ToMaterialResponse(m))
	}
	return &dto.MaterialListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

func (uc *MaterialUseCase) get(ctx context.Context, id string) (*entity.Material, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrMaterialNotFound
	}
	m, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrMaterialNotFound
	}
	return m, nil
}

// ToMaterialResponse convierte la entidad al DTO de salida.
func ToMaterialResponse(m *entity.Material) *dto.MaterialResponse {
	if m == nil {
		return nil
	}
	return &dto.MaterialResponse{
		ID:               m.ID,
		Code:             m.Code,
		Name:             m.Name,
		Description:      m.Description,
		Unit:             m.Unit,
		Stock:            m.Stock,
		ReorderThreshold: m.ReorderThreshold,
		UnitPrice:        m.UnitPrice,
		LowStock:         m.IsLowStock(),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
