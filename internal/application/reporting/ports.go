package reporting

import (
	"context"
	"time"

	"github.com/jhoicas/materiales-api/internal/application/dto"
)

// LowStockReport datos de entrada del PDF de materiales con stock bajo.
type LowStockReport struct {
	Title       string
	GeneratedAt time.Time // en la zona horaria del reporte
	TimeZone    string
	GeneratedBy string
	Items       []dto.LowStockItem
}

// LowStockPDFGenerator puerto de renderizado del reporte de stock bajo.
type LowStockPDFGenerator interface {
	GenerateLowStockPDF(ctx context.Context, report LowStockReport) ([]byte, error)
}
