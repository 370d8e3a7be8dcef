package entity

// Estado es el estado del ciclo de vida de una factura en el cliente.
//
// El flujo normal es CONSULTADO -> EN PROCESO -> CON DETALLE -> REGISTRADO.
// CON DETALLE puede alcanzarse directamente si la factura nace con productos
// (factura manual). REGISTRADO es terminal.
type Estado string

const (
	EstadoConsultado Estado = "CONSULTADO"  // listada desde SUNAT, sin detalle
	EstadoEnProceso  Estado = "EN PROCESO"  // extracción de detalle en curso
	EstadoConDetalle Estado = "CON DETALLE" // detalle de productos disponible
	EstadoRegistrado Estado = "REGISTRADO"  // confirmada en la base de datos del backend
)

// Terminal indica si el estado ya no admite extracción de detalle.
func (e Estado) Terminal() bool {
	return e == EstadoRegistrado
}

// AdmiteDetalle indica si puede despacharse una extracción de detalle desde
// este estado. EN PROCESO se excluye por la guarda de duplicados; CON DETALLE
// y REGISTRADO porque el detalle ya existe.
func (e Estado) AdmiteDetalle() bool {
	return e == EstadoConsultado
}
