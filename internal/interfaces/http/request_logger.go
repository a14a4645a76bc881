package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/pkg/logger"
)

// RequestLogger registra cada petición con zerolog: método, ruta, status, latencia y principal.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Aplicar el ErrorHandler aquí para loguear el status final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("principal", GetUserID(c)).
			Msg("http")
		return nil
	}
}
