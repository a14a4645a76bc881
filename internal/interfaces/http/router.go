package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/auth"
	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/ledger"
	"github.com/jhoicas/materiales-api/internal/application/reporting"
	"github.com/jhoicas/materiales-api/internal/application/usecase"
	"github.com/jhoicas/materiales-api/internal/domain/authz"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	Roles          *auth.RoleRegistry
	MaterialUC     *catalog.MaterialUseCase
	RecordMovement *ledger.RecordMovementUseCase
	ListMovements  *ledger.ListMovementsUseCase
	ReportUC       *reporting.ReportUseCase
	UserUC         *usecase.UserUseCase
	JWTSecret      string
	Log            *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")
	authn := AuthMiddleware(deps.JWTSecret)

	// Auth
	authHandler := NewAuthHandler(deps.AuthUC, log)
	api.Post("/auth/login", authHandler.Login)
	api.Get("/auth/me", authn, authHandler.Me)

	// Rutas protegidas: JWT → roles vigentes → permiso por ruta.
	protected := api.Group("", authn, PrincipalMiddleware(deps.Roles, log))
	can := RequirePermission

	// Materials
	materialHandler := NewMaterialHandler(deps.MaterialUC, deps.ListMovements, log)
	materials := protected.Group("/materials")
	materials.Get("/", can(authz.OpRead, authz.EntityMaterial), materialHandler.List)
	materials.Post("/", can(authz.OpCreate, authz.EntityMaterial), materialHandler.Create)
	materials.Get("/:id", can(authz.OpRead, authz.EntityMaterial), materialHandler.GetByID)
	materials.Patch("/:id", can(authz.OpUpdate, authz.EntityMaterial), materialHandler.Update)
	materials.Delete("/:id", can(authz.OpDelete, authz.EntityMaterial), materialHandler.Delete)
	materials.Get("/:id/movements", can(authz.OpRead, authz.EntityMovement), materialHandler.Movements)

	// Movements (append-only: no hay PUT ni DELETE)
	movementHandler := NewMovementHandler(deps.RecordMovement, deps.ListMovements, log)
	movements := protected.Group("/movements")
	movements.Post("/", can(authz.OpCreate, authz.EntityMovement), movementHandler.Record)
	movements.Get("/", can(authz.OpRead, authz.EntityMovement), movementHandler.List)
	movements.Get("/:id", can(authz.OpRead, authz.EntityMovement), movementHandler.GetByID)

	// Reports
	reportHandler := NewReportHandler(deps.ReportUC, log)
	reports := protected.Group("/reports", can(authz.OpRead, authz.EntityReport))
	reports.Get("/summary", reportHandler.Summary)
	reports.Get("/low-stock", reportHandler.LowStock)
	reports.Get("/low-stock.pdf", reportHandler.LowStockPDF)
	reports.Get("/recent-activity", reportHandler.RecentActivity)

	// Users (solo admin)
	userHandler := NewUserHandler(deps.UserUC, log)
	users := protected.Group("/users")
	users.Get("/", can(authz.OpRead, authz.EntityPrincipal), userHandler.List)
	users.Post("/", can(authz.OpCreate, authz.EntityPrincipal), userHandler.Create)
	users.Patch("/:id", can(authz.OpUpdate, authz.EntityPrincipal), userHandler.Update)
	users.Delete("/:id", can(authz.OpDelete, authz.EntityPrincipal), userHandler.Delete)
}
