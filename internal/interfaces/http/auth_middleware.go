package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain/authz"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/pkg/jwt"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// Locals keys en Fiber.
const (
	LocalUserID    = "user_id"
	LocalPrincipal = "principal"
)

// principalResolver contrato mínimo que necesita PrincipalMiddleware.
// Lo implementa *auth.RoleRegistry.
type principalResolver interface {
	ResolvePrincipal(ctx context.Context, principalID string) (entity.Principal, error)
}

// AuthMiddleware valida el Bearer Token JWT y deja el UserID en c.Locals.
// El token no lleva roles: de eso se encarga PrincipalMiddleware.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		userID, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

// PrincipalMiddleware resuelve los roles actuales del usuario en cada petición.
// Debe usarse DESPUÉS de AuthMiddleware.
//
//   - Usuario desconocido o inactivo → principal sin roles (la autorización lo rechaza).
//   - Registro de roles caído → 503 AUTH_UNAVAILABLE, nunca se asume un rol.
func PrincipalMiddleware(resolver principalResolver, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "user_id no encontrado en el token"})
		}
		p, err := resolver.ResolvePrincipal(c.UserContext(), userID)
		if err != nil {
			return respondError(c, log, err)
		}
		c.Locals(LocalPrincipal, p)
		return c.Next()
	}
}

// RequirePermission corta la petición con 403 si el principal no puede ejecutar op sobre kind.
// Los casos de uso vuelven a verificar; esto solo evita trabajo inútil.
func RequirePermission(op authz.Operation, kind authz.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authz.Check(GetPrincipal(c), op, kind); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetPrincipal devuelve el principal resuelto; vacío si PrincipalMiddleware no corrió.
func GetPrincipal(c *fiber.Ctx) entity.Principal {
	p, _ := c.Locals(LocalPrincipal).(entity.Principal)
	return p
}
