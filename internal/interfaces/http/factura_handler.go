package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/application/facturas"
	"github.com/contasol/sunat-registro/internal/domain"
	"github.com/contasol/sunat-registro/internal/domain/entity"
)

// FacturaHandler expone el ciclo de vida de facturas sobre HTTP.
type FacturaHandler struct {
	uc *facturas.UseCase
}

// NewFacturaHandler construye el handler de facturas.
func NewFacturaHandler(uc *facturas.UseCase) *FacturaHandler {
	return &FacturaHandler{uc: uc}
}

// direccionDesdeQuery interpreta ?tipo=compras|ventas (o COMPRAS/VENTAS).
func direccionDesdeQuery(c *fiber.Ctx) (entity.Direccion, bool) {
	switch c.Query("tipo") {
	case "compras", "COMPRAS":
		return entity.DireccionCompras, true
	case "ventas", "VENTAS":
		return entity.DireccionVentas, true
	}
	return "", false
}

// Listar godoc
// @Summary      Listar comprobantes de un rango de períodos
// @Description  Resuelve desde caché cuando el período ya fue consultado; si no, consulta SUNAT vía backend.
// @Tags         facturas
// @Produce      json
// @Param        tipo           query  string  true   "compras | ventas"
// @Param        periodoInicio  query  string  true   "período yyyyMM"
// @Param        periodoFin     query  string  false  "período yyyyMM (por defecto, el de inicio)"
// @Success      200  {object}  dto.FacturasResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Router       /api/facturas [get]
func (h *FacturaHandler) Listar(c *fiber.Ctx) error {
	dir, ok := direccionDesdeQuery(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo debe ser compras o ventas"})
	}
	periodoInicio := c.Query("periodoInicio")
	if periodoInicio == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "periodoInicio es requerido (yyyyMM)"})
	}
	periodoFin := c.Query("periodoFin", periodoInicio)

	lista, err := h.uc.CargarFacturas(c.Context(), dir, periodoInicio, periodoFin)
	if err != nil {
		if errors.Is(err, domain.ErrCredencialesRequeridas) {
			return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{Code: "CREDENTIALS_REQUIRED", Message: "complete sus credenciales SUNAT primero"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "BACKEND_ERROR", Message: err.Error()})
	}
	return c.JSON(dto.FacturasResponse{Count: len(lista), Facturas: lista})
}

// Filtradas godoc
// @Summary      Lista filtrada por rango de fechas de emisión
// @Tags         facturas
// @Produce      json
// @Param        tipo   query  string  true   "compras | ventas"
// @Param        desde  query  string  false  "dd/mm/yyyy"
// @Param        hasta  query  string  false  "dd/mm/yyyy"
// @Success      200  {object}  dto.FacturasResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/facturas/filtradas [get]
func (h *FacturaHandler) Filtradas(c *fiber.Ctx) error {
	dir, ok := direccionDesdeQuery(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo debe ser compras o ventas"})
	}
	lista, err := h.uc.FacturasFiltradas(dir, c.Query("desde"), c.Query("hasta"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fechas inválidas (dd/mm/yyyy)"})
	}
	return c.JSON(dto.FacturasResponse{Count: len(lista), Facturas: lista})
}

// Crear godoc
// @Summary      Crear factura de compra manual
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CrearFacturaRequest  true  "datos del comprobante"
// @Success      201  {object}  entity.Factura
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/facturas [post]
func (h *FacturaHandler) Crear(c *fiber.Ctx) error {
	var in dto.CrearFacturaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, err := h.uc.CrearFacturaCompra(in)
	if err != nil {
		if errors.Is(err, domain.ErrEstadoInvalido) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el comprobante ya existe"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "ruc, serie, numero y fechaEmision son requeridos"})
	}
	return c.Status(fiber.StatusCreated).JSON(factura)
}

// Detalle godoc
// @Summary      Extraer el detalle de productos de una factura
// @Description  CONSULTADO → EN PROCESO → CON DETALLE; en fallo revierte al estado previo.
// @Tags         facturas
// @Produce      json
// @Param        id    path   int     true  "ID local de la factura"
// @Param        tipo  query  string  true  "compras | ventas"
// @Success      200  {object}  dto.DetalleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/facturas/{id}/detalle [post]
func (h *FacturaHandler) Detalle(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	dir, ok := direccionDesdeQuery(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo debe ser compras o ventas"})
	}

	out, err := h.uc.ObtenerDetalle(c.Context(), dir, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCredencialesRequeridas):
			return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{Code: "CREDENTIALS_REQUIRED", Message: "complete sus credenciales SUNAT primero"})
		case errors.Is(err, domain.ErrFacturaNoEncontrada):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		case errors.Is(err, domain.ErrEnProceso):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IN_PROGRESS", Message: "la factura ya está en proceso"})
		case errors.Is(err, domain.ErrDetalleNoDisponible):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_DETAIL", Message: "la factura no tiene detalle disponible"})
		case errors.Is(err, domain.ErrSinDetalle):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "EMPTY_DETAIL", Message: "el XML no contiene detalles de productos"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "BACKEND_ERROR", Message: err.Error()})
	}
	return c.JSON(out)
}

// DetalleTodas godoc
// @Summary      Extraer el detalle de todas las facturas del rango
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DetalleTodasRequest  true  "tipo, desde, hasta"
// @Success      200  {object}  dto.DetalleTodasResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/facturas/detalle-todas [post]
func (h *FacturaHandler) DetalleTodas(c *fiber.Ctx) error {
	var in dto.DetalleTodasRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.ObtenerDetalleTodas(c.Context(), in)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo o fechas inválidos"})
	}
	return c.JSON(out)
}

// Registrar godoc
// @Summary      Registrar en la base de datos las facturas indicadas
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegistrarFacturasUIRequest  true  "tipo, ids"
// @Success      200  {object}  dto.RegistrarFacturasUIResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/facturas/registrar [post]
func (h *FacturaHandler) Registrar(c *fiber.Ctx) error {
	var in dto.RegistrarFacturasUIRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.RegistrarFacturas(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrEntradaInvalida) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo debe ser COMPRAS o VENTAS"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "BACKEND_ERROR", Message: err.Error()})
	}
	return c.JSON(out)
}

// Seleccion godoc
// @Summary      Cambiar el flag de selección de una factura
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Param        id    path  int                  true  "ID local de la factura"
// @Param        body  body  dto.SeleccionRequest true  "tipo, seleccionada"
// @Success      200  {object}  dto.MensajeResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/facturas/{id}/seleccion [patch]
func (h *FacturaHandler) Seleccion(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	var in dto.SeleccionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !in.Tipo.Valida() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo debe ser COMPRAS o VENTAS"})
	}
	if !h.uc.ActualizarSeleccion(in.Tipo, id, in.Seleccionada) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
	}
	return c.JSON(dto.MensajeResponse{Success: true, Message: "selección actualizada"})
}

// Estado godoc
// @Summary      Último error de la aplicación
// @Tags         estado
// @Produce      json
// @Success      200  {object}  dto.EstadoAppResponse
// @Router       /api/estado [get]
func (h *FacturaHandler) Estado(c *fiber.Ctx) error {
	return c.JSON(dto.EstadoAppResponse{Error: h.uc.UltimoError()})
}

// LimpiarEstado godoc
// @Summary      Limpiar el último error
// @Tags         estado
// @Produce      json
// @Success      200  {object}  dto.MensajeResponse
// @Router       /api/estado [delete]
func (h *FacturaHandler) LimpiarEstado(c *fiber.Ctx) error {
	h.uc.LimpiarError()
	return c.JSON(dto.MensajeResponse{Success: true, Message: "error limpiado"})
}
