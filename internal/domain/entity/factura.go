package entity

// Factura representa un comprobante de compra o venta tal como lo maneja el
// cliente: cabecera listada desde SUNAT más el detalle extraído del XML.
//
// Los importes se guardan como cadenas con 2 decimales (formato de la API);
// la aritmética se hace con shopspring/decimal en los puntos de parseo.
type Factura struct {
	// ID es un identificador local al proceso. Se reasigna entre sesiones:
	// la identidad durable es la terna (RUC, Serie, Numero) — ver Clave.
	ID            int            `json:"id"`
	RUC           string         `json:"ruc"`
	RazonSocial   string         `json:"razonSocial"`
	Serie         string         `json:"serie"`
	Numero        string         `json:"numero"`
	FechaEmision  string         `json:"fechaEmision"` // dd/mm/yyyy
	TipoDocumento string         `json:"tipoDocumento"`
	Anio          string         `json:"anio,omitempty"`
	Moneda        string         `json:"moneda,omitempty"`
	CostoTotal    string         `json:"costoTotal,omitempty"`
	IGV           string         `json:"igv,omitempty"`
	TipoCambio    string         `json:"tipoCambio,omitempty"`
	ImporteTotal  string         `json:"importeTotal,omitempty"`
	Estado        Estado         `json:"estado"`
	Seleccionada  bool           `json:"seleccionada"`
	Productos     []ProductoItem `json:"productos,omitempty"`
}

// ClaveFactura es la identidad durable de un comprobante, estable entre
// sesiones y refrescos de listado.
type ClaveFactura struct {
	RUC    string
	Serie  string
	Numero string
}

// Clave devuelve la identidad durable (RUC, Serie, Numero).
func (f Factura) Clave() ClaveFactura {
	return ClaveFactura{RUC: f.RUC, Serie: f.Serie, Numero: f.Numero}
}

// NumeroComprobante devuelve el identificador SERIE-NUMERO que usa el backend.
func (f Factura) NumeroComprobante() string {
	return f.Serie + "-" + f.Numero
}

// MismaIdentidad compara por la terna durable, no por el ID local.
func (f Factura) MismaIdentidad(otra Factura) bool {
	return f.Clave() == otra.Clave()
}
