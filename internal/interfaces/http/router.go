package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/construmax/almacen-api/internal/application/auth"
	"github.com/construmax/almacen-api/internal/application/ledger"
	"github.com/construmax/almacen-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	Adjustments *ledger.AdjustmentService
	Allocations *ledger.AllocationService
	Receipts    *ledger.ReceiptService
	Issues      *ledger.IssueService
	Reversals   *ledger.ReversalEngine
	Queries     *ledger.QueryService
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	ledgerHandler := NewLedgerHandler(deps.Adjustments, deps.Allocations, deps.Receipts, deps.Issues, deps.Reversals, deps.Queries)
	lg := protected.Group("/ledger")

	// Consulta del Kardex: cualquier rol autenticado.
	lg.Get("/movements", ledgerHandler.QueryMovements)

	// Operaciones de almacén: almacenista o superusuario.
	warehouse := lg.Group("/", RequireRole(entity.RoleSuperuser, entity.RoleAlmacenista))
	warehouse.Post("/reservations", ledgerHandler.Reserve)
	warehouse.Post("/relocations", ledgerHandler.Relocate)
	warehouse.Post("/receipts", ledgerHandler.RegisterReceipt)
	warehouse.Post("/issues", ledgerHandler.RegisterIssue)

	// Ajustes y reversas: solo superusuario. Los servicios vuelven a
	// verificar el rol; el middleware corta antes de tocar el dominio.
	admin := lg.Group("/", RequireRole(entity.RoleSuperuser))
	admin.Post("/adjustments", ledgerHandler.ApplyAdjustments)
	admin.Post("/reversals", ledgerHandler.Reverse)
}
