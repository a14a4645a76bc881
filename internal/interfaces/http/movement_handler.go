package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/ledger"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// MovementHandler maneja el ledger de movimientos (protegido).
type MovementHandler struct {
	record *ledger.RecordMovementUseCase
	list   *ledger.ListMovementsUseCase
	log    *logger.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(record *ledger.RecordMovementUseCase, list *ledger.ListMovementsUseCase, log *logger.Logger) *MovementHandler {
	return &MovementHandler{record: record, list: list, log: log}
}

// Record godoc
// @Summary      Registrar entrada o salida de stock
// @Description  Aplica el movimiento y actualiza el stock de forma atómica. Una salida mayor al stock se rechaza.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "material_id, kind (entrada|salida), quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK o CONFLICT"
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *MovementHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	m, err := h.record.Record(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ledger.ToMovementResponse(m))
}

// List godoc
// @Summary      Historial de movimientos (más recientes primero)
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        material_id  query  string  false  "ID del material"
// @Param        kind         query  string  false  "entrada | salida"
// @Param        from         query  string  false  "RFC3339, inclusivo"
// @Param        to           query  string  false  "RFC3339, exclusivo"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	in, err := movementFilterFromQuery(c)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	in.MaterialID = c.Query("material_id")
	out, err := h.list.List(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener movimiento por ID
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.list.Get(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// movementFilterFromQuery lee kind, from, to y paginación (sin material_id).
func movementFilterFromQuery(c *fiber.Ctx) (dto.MovementFilter, error) {
	in := dto.MovementFilter{
		Kind: c.Query("kind"),
		PageRequest: dto.PageRequest{
			Limit:  c.QueryInt("limit", 20),
			Offset: c.QueryInt("offset", 0),
		},
	}
	var err error
	if in.From, err = queryTime(c, "from"); err != nil {
		return in, err
	}
	if in.To, err = queryTime(c, "to"); err != nil {
		return in, err
	}
	return in, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s debe tener formato RFC3339", key)
	}
	return &t, nil
}
