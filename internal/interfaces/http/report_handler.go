package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/reporting"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// ReportHandler expone el panel de control y los reportes (protegido, lectura).
type ReportHandler struct {
	uc  *reporting.ReportUseCase
	log *logger.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *reporting.ReportUseCase, log *logger.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, log: log}
}

// Summary godoc
// @Summary      Resumen del panel de control
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SummaryResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.UserContext(), GetPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Materiales a reabastecer (mayor déficit primero)
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Límite"  default(50)
// @Success      200  {array}  dto.LowStockItem
// @Router       /api/reports/low-stock [get]
func (h *ReportHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.uc.LowStock(c.UserContext(), GetPrincipal(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// RecentActivity godoc
// @Summary      Actividad reciente
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Límite"  default(10)
// @Success      200  {array}  dto.ActivityItem
// @Router       /api/reports/recent-activity [get]
func (h *ReportHandler) RecentActivity(c *fiber.Ctx) error {
	out, err := h.uc.RecentActivity(c.UserContext(), GetPrincipal(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// LowStockPDF godoc
// @Summary      Lista de reabastecimiento en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/reports/low-stock.pdf [get]
func (h *ReportHandler) LowStockPDF(c *fiber.Ctx) error {
	pdf, err := h.uc.LowStockPDF(c.UserContext(), GetPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="stock-bajo-`+time.Now().Format("20060102")+`.pdf"`)
	return c.Send(pdf)
}
