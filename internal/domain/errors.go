package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrFacturaNoEncontrada    = errors.New("factura no encontrada")
	ErrCredencialesRequeridas = errors.New("complete sus credenciales SUNAT primero")
	ErrCredencialesInvalidas  = errors.New("credenciales SUNAT inválidas")
	ErrEnProceso              = errors.New("ya se está procesando esta factura")
	ErrSinDetalle             = errors.New("el comprobante no contiene detalle de productos")
	ErrDetalleNoDisponible    = errors.New("no hay detalles disponibles")
	ErrEstadoInvalido         = errors.New("transición de estado no permitida")
	ErrEntradaInvalida        = errors.New("entrada inválida")
	ErrNoAutorizado           = errors.New("no autorizado")
	ErrBackendNoDisponible    = errors.New("error al conectar con el servidor")
)
