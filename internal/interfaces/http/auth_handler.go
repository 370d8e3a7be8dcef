package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/contasol/sunat-registro/internal/application/auth"
	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/application/facturas"
	"github.com/contasol/sunat-registro/internal/domain"
)

// AuthHandler maneja login y logout de la sesión SOL.
type AuthHandler struct {
	uc       *auth.AuthUseCase
	facturas *facturas.UseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, facturasUC *facturas.UseCase) *AuthHandler {
	return &AuthHandler{uc: uc, facturas: facturasUC}
}

// Login godoc
// @Summary      Validar credenciales SOL e iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "ruc, usuario, claveSol"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Login(c.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCredencialesRequeridas):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "ruc, usuario y claveSol son requeridos"})
		case errors.Is(err, domain.ErrCredencialesInvalidas):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_CREDENTIALS", Message: "credenciales SOL inválidas"})
		case errors.Is(err, domain.ErrBackendNoDisponible):
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "BACKEND_UNAVAILABLE", Message: "no se pudo validar contra SUNAT"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// Logout godoc
// @Summary      Cerrar sesión
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.MensajeResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	// El cierre descarta credenciales, colecciones, caché y el último error.
	h.facturas.Cerrar()
	return c.JSON(dto.MensajeResponse{Success: true, Message: "sesión cerrada"})
}
