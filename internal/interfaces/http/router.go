package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/contasol/sunat-registro/internal/application/auth"
	"github.com/contasol/sunat-registro/internal/application/facturas"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	FacturasUC *facturas.UseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.FacturasUC)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	facturaHandler := NewFacturaHandler(deps.FacturasUC)

	facturasGroup := protected.Group("/facturas")
	facturasGroup.Get("/", facturaHandler.Listar)
	facturasGroup.Get("/filtradas", facturaHandler.Filtradas)
	facturasGroup.Post("/", facturaHandler.Crear)
	facturasGroup.Post("/detalle-todas", facturaHandler.DetalleTodas)
	facturasGroup.Post("/registrar", facturaHandler.Registrar)
	facturasGroup.Post("/:id/detalle", facturaHandler.Detalle)
	facturasGroup.Patch("/:id/seleccion", facturaHandler.Seleccion)

	estado := protected.Group("/estado")
	estado.Get("/", facturaHandler.Estado)
	estado.Delete("/", facturaHandler.LimpiarEstado)
}
