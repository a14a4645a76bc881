// Package reporting contiene las consultas del tablero: resumen del día, materiales
// con stock bajo, actividad reciente y el PDF de reabastecimiento. Todo se
// recalcula en cada petición a partir del catálogo y el ledger.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain/authz"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

const (
	defaultLowStockLimit = 50
	maxLowStockLimit     = 500
	defaultActivityLimit = 10
	maxActivityLimit     = 100
)

var two = decimal.NewFromInt(2)

// ReportUseCase fachada de consultas de solo lectura.
type ReportUseCase struct {
	reports repository.ReportRepository
	users   repository.UserRepository
	pdf     LowStockPDFGenerator
	loc     *time.Location
	now     func() time.Time
}

// Option personaliza el caso de uso.
type Option func(*ReportUseCase)

// WithClock fija el reloj usado para "hoy".
func WithClock(now func() time.Time) Option {
	return func(uc *ReportUseCase) { uc.now = now }
}

// NewReportUseCase construye el caso de uso. loc define el día calendario de "hoy".
func NewReportUseCase(
	reports repository.ReportRepository,
	users repository.UserRepository,
	pdf LowStockPDFGenerator,
	loc *time.Location,
	opts ...Option,
) *ReportUseCase {
	if loc == nil {
		loc = time.UTC
	}
	uc := &ReportUseCase{reports: reports, users: users, pdf: pdf, loc: loc, now: time.Now}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// DayRange devuelve [inicio, fin) en UTC del día calendario de t en loc.
// Usa AddDate para que los días con cambio de horario midan lo que corresponde.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// Summary construye el resumen del tablero.
//
// Cuatro consultas independientes en paralelo:
//  1. CountMaterials
//  2. CountLowStock
//  3. CountActive (usuarios)
//  4. CountMovementsBetween(hoy)
func (uc *ReportUseCase) Summary(ctx context.Context, actor entity.Principal) (*dto.SummaryResponse, error) {
	if err := authz.Check(actor, authz.OpRead, authz.EntityReport); err != nil {
		return nil, err
	}
	now := uc.now()
	start, end := DayRange(now, uc.loc)

	var out dto.SummaryResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := uc.reports.CountMaterials(gctx)
		if err != nil {
			return fmt.Errorf("summary: total materiales: %w", err)
		}
		out.TotalMaterials = n
		return nil
	})
	g.Go(func() error {
		n, err := uc.reports.CountLowStock(gctx)
		if err != nil {
			return fmt.Errorf("summary: stock bajo: %w", err)
		}
		out.LowStock = n
		return nil
	})
	g.Go(func() error {
		n, err := uc.users.CountActive(gctx)
		if err != nil {
			return fmt.Errorf("summary: usuarios activos: %w", err)
		}
		out.ActivePrincipals = n
		return nil
	})
	g.Go(func() error {
		n, err := uc.reports.CountMovementsBetween(gctx, start, end)
		if err != nil {
			return fmt.Errorf("summary: movimientos de hoy: %w", err)
		}
		out.MovementsToday = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Date = now.In(uc.loc).Format(time.DateOnly)
	out.TimeZone = uc.loc.String()
	return &out, nil
}

// LowStock lista materiales en o por debajo del umbral, mayor déficit primero.
func (uc *ReportUseCase) LowStock(ctx context.Context, actor entity.Principal, limit int) ([]dto.LowStockItem, error) {
	if err := authz.Check(actor, authz.OpRead, authz.EntityReport); err != nil {
		return nil, err
	}
	return uc.lowStock(ctx, clamp(limit, defaultLowStockLimit, maxLowStockLimit))
}

func (uc *ReportUseCase) lowStock(ctx context.Context, limit int) ([]dto.LowStockItem, error) {
	rows, err := uc.reports.ListLowStock(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LowStockItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, ToLowStockItem(r))
	}
	return items, nil
}

// ToLowStockItem calcula déficit y nivel. Crítico cuando stock <= umbral/2.
func ToLowStockItem(r repository.LowStockResult) dto.LowStockItem {
	level := dto.StockLevelBajo
	if r.Stock.LessThanOrEqual(r.ReorderThreshold.Div(two)) {
		level = dto.StockLevelCritico
	}
	return dto.LowStockItem{
		MaterialID:       r.MaterialID,
		Code:             r.Code,
		Name:             r.Name,
		Unit:             r.Unit,
		Stock:            r.Stock,
		ReorderThreshold: r.ReorderThreshold,
		Deficit:          r.ReorderThreshold.Sub(r.Stock),
		Level:            level,
	}
}

// RecentActivity últimos movimientos con datos del material y del autor.
func (uc *ReportUseCase) RecentActivity(ctx context.Context, actor entity.Principal, limit int) ([]dto.ActivityItem, error) {
	if err := authz.Check(actor, authz.OpRead, authz.EntityReport); err != nil {
		return nil, err
	}
	rows, err := uc.reports.ListRecentActivity(ctx, clamp(limit, defaultActivityLimit, maxActivityLimit))
	if err != nil {
		return nil, err
	}
	items := make([]dto.ActivityItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.ActivityItem{
			MovementID:   r.MovementID,
			Kind:         r.Kind,
			Quantity:     r.Quantity,
			Reason:       r.Reason,
			MaterialID:   r.MaterialID,
			MaterialCode: r.MaterialCode,
			MaterialName: r.MaterialName,
			Unit:         r.Unit,
			CreatedBy:    r.CreatedBy,
			CreatedName:  r.CreatedName,
			CreatedAt:    r.CreatedAt,
		})
	}
	return items, nil
}

// LowStockPDF genera el PDF de materiales a reabastecer.
func (uc *ReportUseCase) LowStockPDF(ctx context.Context, actor entity.Principal) ([]byte, error) {
	if err := authz.Check(actor, authz.OpRead, authz.EntityReport); err != nil {
		return nil, err
	}
	if uc.pdf == nil {
		return nil, fmt.Errorf("reporting: generador PDF no configurado")
	}
	items, err := uc.lowStock(ctx, maxLowStockLimit)
	if err != nil {
		return nil, err
	}
	return uc.pdf.GenerateLowStockPDF(ctx, LowStockReport{
		Title:       "Materiales con stock bajo",
		GeneratedAt: uc.now().In(uc.loc),
		TimeZone:    uc.loc.String(),
		GeneratedBy: actor.ID,
		Items:       items,
	})
}

func clamp(v, def, hi int) int {
	if v <= 0 {
		return def
	}
	if v > hi {
		return hi
	}
	return v
}
