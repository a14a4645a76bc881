package material

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// RequireText valida un campo de texto obligatorio (tras recortar espacios).
func RequireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s requerido", field)
	}
	return nil
}

// RequireNonNegative valida un campo numérico >= 0.
func RequireNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%s no puede ser negativo", field)
	}
	return nil
}

// MaxScale decimales máximos que se persisten para cantidades y precios (NUMERIC(18,4)).
const MaxScale = 4

// RequireScale valida que v no tenga más de MaxScale decimales significativos.
func RequireScale(field string, v decimal.Decimal) error {
	if !v.Equal(v.Round(MaxScale)) {
		return fmt.Errorf("%s admite como máximo %d decimales", field, MaxScale)
	}
	return nil
}

// ValidateNew valida un material antes de crearlo. Agrupa todos los problemas
// encontrados; el error resultante envuelve domain.ErrInvalidInput.
func ValidateNew(m *entity.Material) error {
	var errs []error
	for _, e := range []error{
		RequireText("name", m.Name),
		RequireText("unit", m.Unit),
		RequireNonNegative("stock", m.Stock),
		RequireNonNegative("reorder_threshold", m.ReorderThreshold),
		RequireNonNegative("unit_price", m.UnitPrice),
		RequireScale("stock", m.Stock),
		RequireScale("reorder_threshold", m.ReorderThreshold),
		RequireScale("unit_price", m.UnitPrice),
	} {
		if e != nil {
			errs = append(errs, e)
		}
	}
	return invalid(errs)
}

// ValidateMetadata valida los campos editables de un material existente.
// Stock no se valida aquí porque nunca se modifica por esta vía.
func ValidateMetadata(m *entity.Material) error {
	var errs []error
	for _, e := range []error{
		RequireText("name", m.Name),
		RequireText("unit", m.Unit),
		RequireNonNegative("reorder_threshold", m.ReorderThreshold),
		RequireNonNegative("unit_price", m.UnitPrice),
		RequireScale("reorder_threshold", m.ReorderThreshold),
		RequireScale("unit_price", m.UnitPrice),
	} {
		if e != nil {
			errs = append(errs, e)
		}
	}
	return invalid(errs)
}

// ValidateMovement valida tipo, cantidad y motivo de un movimiento.
func ValidateMovement(kind string, quantity decimal.Decimal, reason string) error {
	var errs []error
	if !entity.IsValidMovementKind(kind) {
		errs = append(errs, fmt.Errorf("kind debe ser %q o %q", entity.MovementEntrada, entity.MovementSalida))
	}
	if !quantity.IsPositive() {
		errs = append(errs, errors.New("quantity debe ser mayor a 0"))
	}
	if err := RequireScale("quantity", quantity); err != nil {
		errs = append(errs, err)
	}
	if utf8.RuneCountInString(reason) > entity.MaxReasonLength {
		errs = append(errs, fmt.Errorf("reason excede %d caracteres", entity.MaxReasonLength))
	}
	return invalid(errs)
}

func invalid(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
}
