package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/authz"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// ListMovementsUseCase consultas de solo lectura sobre el ledger.
type ListMovementsUseCase struct {
	repo repository.MovementRepository
}

// NewListMovementsUseCase construye el caso de uso.
func NewListMovementsUseCase(repo repository.MovementRepository) *ListMovementsUseCase {
	return &ListMovementsUseCase{repo: repo}
}

// List devuelve movimientos filtrados, más recientes primero.
func (uc *ListMovementsUseCase) List(ctx context.Context, actor entity.Principal, in dto.MovementFilter) (*dto.MovementListResponse, error) {
	if err := authz.Check(actor, authz.OpRead, authz.EntityMovement); err != nil {
		return nil, err
	}
	if in.Kind != "" && !entity.IsValidMovementKind(in.Kind) {
		return nil, fmt.Errorf("%w: kind desconocido", domain.ErrInvalidInput)
	}
	if in.MaterialID != "" && uuid.Validate(in.MaterialID) != nil {
		return nil, fmt.Errorf("%w: material_id inválido", domain.ErrInvalidInput)
	}
	if in.From != nil && in.To != nil && !in.From.Before(*in.To) {
		return nil, fmt.Errorf("%w: from debe ser anterior a to", domain.ErrInvalidInput)
	}
	in.DefaultPage()

	list, err := uc.repo.List(ctx, repository.MovementFilter{
		MaterialID: in.MaterialID,
		Kind:       in.Kind,
		From:       in.From,
		To:         in.To,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// Get obtiene un movimiento por ID.
func (uc *ListMovementsUseCase) Get(ctx context.Context, actor entity.Principal, id string) (*dto.MovementResponse, error) {
	if err := authz.Check(actor, authz.OpRead, authz.EntityMovement); err != nil {
		return nil, err
	}
	if uuid.Validate(id) != nil {
		return nil, domain.ErrNotFound
	}
	m, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return ToMovementResponse(m), nil
}

// ToMovementResponse convierte la entidad al DTO de salida.
func ToMovementResponse(m *entity.Movement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	return &dto.MovementResponse{
		ID:         m.ID,
		Seq:        m.Seq,
		MaterialID: m.MaterialID,
		Kind:       m.Kind,
		Quantity:   m.Quantity,
		Reason:     m.Reason,
		StockAfter: m.StockAfter,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
}
