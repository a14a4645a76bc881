package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// retryAfterSeconds valor del header Retry-After en respuestas 503.
const retryAfterSeconds = "2"

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// El orden importa: los errores específicos van antes que los genéricos.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", ""},
	{domain.ErrMaterialNotFound, fiber.StatusNotFound, "MATERIAL_NOT_FOUND", "material no encontrado"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "USER_NOT_FOUND", "usuario no encontrado"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrDuplicateCode, fiber.StatusConflict, "DUPLICATE_CODE", "el código de material ya existe"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS", "el email ya está registrado"},
	{domain.ErrMaterialInUse, fiber.StatusConflict, "MATERIAL_IN_USE", "el material tiene movimientos registrados"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente para la salida"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT", "conflicto de concurrencia, reintente la operación"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "credenciales inválidas"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado"},
	{domain.ErrAuthUnavailable, fiber.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "no se pudieron resolver los roles, intente más tarde"},
	{domain.ErrPersistenceUnavailable, fiber.StatusServiceUnavailable, "PERSISTENCE_UNAVAILABLE", "base de datos no disponible, intente más tarde"},
}

// respondError traduce un error de dominio a su respuesta HTTP.
// Los 5xx se registran; los 4xx son resultado esperado del negocio y no.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		if m.status == fiber.StatusServiceUnavailable {
			if log != nil {
				log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("dependencia no disponible")
			}
			c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
		}
		return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
	}

	if log != nil {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message})
}

// ErrorHandler manejador global de Fiber: rutas inexistentes, panics recuperados
// y cualquier error que un handler devuelva sin responder.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := "HTTP_ERROR"
			switch fe.Code {
			case fiber.StatusNotFound:
				code = "NOT_FOUND"
			case fiber.StatusMethodNotAllowed:
				code = "METHOD_NOT_ALLOWED"
			}
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
		}
		return respondError(c, log, err)
	}
}
