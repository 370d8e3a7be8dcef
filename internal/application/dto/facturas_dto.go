package dto

import "github.com/contasol/sunat-registro/internal/domain/entity"

// FacturasResponse listado de facturas para la UI.
type FacturasResponse struct {
	Count    int              `json:"count"`
	Facturas []entity.Factura `json:"facturas"`
}

// CrearFacturaRequest alta manual de una factura de compra.
type CrearFacturaRequest struct {
	RUC           string                `json:"ruc"`
	RazonSocial   string                `json:"razonSocial"`
	Serie         string                `json:"serie"`
	Numero        string                `json:"numero"`
	FechaEmision  string                `json:"fechaEmision"`
	TipoDocumento string                `json:"tipoDocumento"`
	Moneda        string                `json:"moneda,omitempty"`
	CostoTotal    string                `json:"costoTotal,omitempty"`
	IGV           string                `json:"igv,omitempty"`
	ImporteTotal  string                `json:"importeTotal,omitempty"`
	Anio          string                `json:"anio,omitempty"`
	TipoCambio    string                `json:"tipoCambio,omitempty"`
	Productos     []entity.ProductoItem `json:"productos,omitempty"`
}

// DetalleResponse resultado de la extracción de detalle de una factura.
type DetalleResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Estado  entity.Estado `json:"estado,omitempty"`
}

// DetalleTodasRequest extracción masiva sobre la lista filtrada.
type DetalleTodasRequest struct {
	Tipo  entity.Direccion `json:"tipo"`
	Desde string           `json:"desde,omitempty"` // dd/mm/yyyy; vacío = sin filtro inferior
	Hasta string           `json:"hasta,omitempty"` // dd/mm/yyyy; vacío = sin filtro superior
}

// DetalleTodasResponse conteos agregados de la extracción masiva.
type DetalleTodasResponse struct {
	Exitosas int      `json:"exitosas"`
	Fallidas int      `json:"fallidas"`
	Omitidas int      `json:"omitidas"`
	Mensajes []string `json:"mensajes,omitempty"`
}

// RegistrarFacturasUIRequest registro manual de las facturas indicadas.
type RegistrarFacturasUIRequest struct {
	Tipo entity.Direccion `json:"tipo"`
	IDs  []int            `json:"ids"`
}

// RegistrarFacturasUIResponse resultado del registro manual.
type RegistrarFacturasUIResponse struct {
	Success     bool   `json:"success"`
	Registradas int    `json:"registradas"`
	Message     string `json:"message,omitempty"`
}

// SeleccionRequest cambio del flag de selección de una factura.
type SeleccionRequest struct {
	Tipo         entity.Direccion `json:"tipo"`
	Seleccionada bool             `json:"seleccionada"`
}

// EstadoAppResponse el slot de último error, limpiable explícitamente.
type EstadoAppResponse struct {
	Error string `json:"error,omitempty"`
}
