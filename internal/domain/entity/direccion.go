package entity

// Direccion distingue las dos colecciones de comprobantes.
type Direccion string

const (
	DireccionCompras Direccion = "COMPRAS"
	DireccionVentas  Direccion = "VENTAS"
)

// Valida indica si la dirección es una de las dos conocidas.
func (d Direccion) Valida() bool {
	return d == DireccionCompras || d == DireccionVentas
}

// CacheKey arma la clave de caché dirección + período de inicio.
func (d Direccion) CacheKey(periodoInicio string) string {
	return string(d) + "-" + periodoInicio
}
