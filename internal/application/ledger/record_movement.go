package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/authz"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/material"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// RetryConfig política de reintentos ante domain.ErrConflict.
type RetryConfig struct {
	MaxRetries int           // reintentos adicionales tras el primer intento
	Backoff    time.Duration // espera base; crece linealmente por intento
}

// RecordMovementUseCase registra entradas y salidas de forma transaccional:
// bloqueo de fila del material (SELECT FOR UPDATE), cálculo del nuevo stock,
// inserción del movimiento y update condicional del stock, todo en una sola tx.
type RecordMovementUseCase struct {
	txRunner TxRunner
	retry    RetryConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewRecordMovementUseCase construye el caso de uso.
func NewRecordMovementUseCase(txRunner TxRunner, retry RetryConfig, log *logger.Logger) *RecordMovementUseCase {
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	return &RecordMovementUseCase{
		txRunner: txRunner,
		retry:    retry,
		log:      log.Named("ledger"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record valida y aplica un movimiento. Orden de verificación:
// autorización → validación → (tx) material existe → stock no negativo → persistencia.
// Cualquier error deja stock y ledger exactamente como estaban.
func (uc *RecordMovementUseCase) Record(ctx context.Context, actor entity.Principal, in dto.RecordMovementRequest) (*entity.Movement, error) {
	if err := authz.Check(actor, authz.OpCreate, authz.EntityMovement); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(in.Reason)
	materialID := strings.TrimSpace(in.MaterialID)
	if err := uuid.Validate(materialID); err != nil {
		return nil, fmt.Errorf("%w: material_id inválido", domain.ErrInvalidInput)
	}
	if err := material.ValidateMovement(in.Kind, in.Quantity, reason); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		mov, err := uc.apply(ctx, actor.ID, materialID, in, reason)
		if err == nil {
			uc.log.Info().
				Str("movement_id", mov.ID).
				Str("material_id", mov.MaterialID).
				Str("kind", mov.Kind).
				Str("quantity", mov.Quantity.String()).
				Str("stock_after", mov.StockAfter.String()).
				Str("actor", actor.ID).
				Msg("movimiento registrado")
			return mov, nil
		}

		if !errors.Is(err, domain.ErrConflict) {
			if errors.Is(err, domain.ErrPersistenceUnavailable) {
				uc.log.Error().Err(err).Str("material_id", materialID).Msg("persistencia no disponible al registrar movimiento")
			}
			return nil, err
		}
		if attempt >= uc.retry.MaxRetries {
			uc.log.Warn().Str("material_id", materialID).Int("attempts", attempt+1).Msg("reintentos agotados por conflicto de stock")
			return nil, domain.ErrConflict
		}

		uc.log.Debug().Str("material_id", materialID).Int("attempt", attempt+1).Msg("conflicto de stock, reintentando")
		if err := sleep(ctx, uc.retry.Backoff*time.Duration(attempt+1)); err != nil {
			return nil, err
		}
	}
}

// apply ejecuta un intento completo dentro de una transacción. El stock se relee
// bajo bloqueo en cada intento, así que un reintento revalida contra el valor fresco.
func (uc *RecordMovementUseCase) apply(
	ctx context.Context,
	actorID, materialID string,
	in dto.RecordMovementRequest,
	reason string,
) (*entity.Movement, error) {
	var created *entity.Movement
	err := uc.txRunner.Run(ctx, func(materials repository.MaterialRepository, movements repository.MovementRepository) error {
		m, err := materials.GetForUpdate(ctx, materialID)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.ErrMaterialNotFound
		}

		mov := &entity.Movement{
			ID:         uuid.New().String(),
			MaterialID: m.ID,
			Kind:       in.Kind,
			Quantity:   in.Quantity,
			Reason:     reason,
			CreatedBy:  actorID,
			CreatedAt:  uc.now(),
		}
		next, err := material.NextStock(m.Stock, mov)
		if err != nil {
			return err
		}
		mov.StockAfter = next

		if err := materials.UpdateStock(ctx, m.ID, m.Stock, next); err != nil {
			return err
		}
		if err := movements.Create(ctx, mov); err != nil {
			return err
		}
		created = mov
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
