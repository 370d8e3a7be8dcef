package dto

// Tipos del contrato REST con el backend contable. Los nombres JSON replican
// exactamente el API del backend (en español, camelCase, con las
// inconsistencias históricas de usuario_sol/clave_sol y tipodecambio).

// ── Listado de comprobantes (proxy SUNAT) ────────────────────────────────────

// ListadoResponse respuesta de GET /sunat/facturas.
type ListadoResponse struct {
	Success       bool               `json:"success"`
	PeriodoInicio string             `json:"periodoInicio"`
	PeriodoFin    string             `json:"periodoFin"`
	Resultados    []ListadoResultado `json:"resultados"`
}

// ListadoResultado agrupa los comprobantes de un período.
type ListadoResultado struct {
	Periodo   string            `json:"periodo"`
	Contenido []ComprobanteItem `json:"contenido"`
}

// ComprobanteItem una fila del registro de compras/ventas de SUNAT.
type ComprobanteItem struct {
	RucEmisor         string   `json:"rucEmisor"`
	RazonSocialEmisor string   `json:"razonSocialEmisor"`
	Periodo           string   `json:"periodo"`
	CarSunat          string   `json:"carSunat"`
	FechaEmision      string   `json:"fechaEmision"`
	TipoCP            string   `json:"tipoCP"`
	Serie             string   `json:"serie"`
	Numero            string   `json:"numero"`
	TipoDocReceptor   string   `json:"tipoDocReceptor"`
	NroDocReceptor    string   `json:"nroDocReceptor"`
	NombreReceptor    string   `json:"nombreReceptor"`
	BaseGravada       float64  `json:"baseGravada"`
	IGV               float64  `json:"igv"`
	MontoNoGravado    float64  `json:"montoNoGravado"`
	Total             float64  `json:"total"`
	Moneda            string   `json:"moneda"`
	TipoDeCambio      *float64 `json:"tipodecambio"`
	Estado            string   `json:"estado"`
}

// ── Consulta por comprobante ─────────────────────────────────────────────────

// FacturaUIResponse respuesta de GET /factura/ui/{numeroComprobante}.
type FacturaUIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Factura FacturaRegistrada `json:"factura"`
	Nota    string            `json:"nota,omitempty"`
}

// FacturaRegistrada la vista del backend de una factura ya registrada.
type FacturaRegistrada struct {
	IDFactura         int                 `json:"idFactura"`
	NumeroComprobante string              `json:"numeroComprobante"`
	FechaEmision      string              `json:"fechaEmision"`
	Estado            string              `json:"estado"`
	ProveedorRuc      string              `json:"proveedorRuc"`
	CostoTotal        string              `json:"costoTotal"`
	IGV               string              `json:"igv"`
	ImporteTotal      string              `json:"importeTotal"`
	Moneda            string              `json:"moneda"`
	Numero            string              `json:"numero"`
	Serie             string              `json:"serie"`
	Detalles          []DetalleRegistrado `json:"detalles"`
}

// DetalleRegistrado una línea de detalle tal como la devuelve el backend.
type DetalleRegistrado struct {
	Descripcion   string `json:"descripcion"`
	Cantidad      string `json:"cantidad"`
	CostoUnitario string `json:"costoUnitario"`
	UnidadMedida  string `json:"unidadMedida"`
}

// ── Extracción de detalle (scraping del XML) ─────────────────────────────────

// DetalleFacturaRequest petición de POST /sunat/descargar-xml. RequestID es un
// token de deduplicación generado por el cliente: el backend descarta
// reenvíos del mismo token si dos despachos llegan a cruzarse.
type DetalleFacturaRequest struct {
	RucEmisor  string `json:"rucEmisor"`
	Serie      string `json:"serie"`
	Numero     string `json:"numero"`
	RUC        string `json:"ruc"` // RUC del receptor
	UsuarioSol string `json:"usuario_sol"`
	ClaveSol   string `json:"clave_sol"`
	RequestID  string `json:"requestId,omitempty"`
}

// DetalleXMLResponse respuesta del scraping: cabecera parseada del XML UBL
// más las líneas. ArchivoXml trae el XML crudo cuando el backend lo conserva.
type DetalleXMLResponse struct {
	ID           string    `json:"id"`
	FechaEmision string    `json:"fechaEmision,omitempty"`
	HoraEmision  string    `json:"horaEmision,omitempty"`
	Moneda       string    `json:"moneda,omitempty"`
	Emisor       *ParteXML `json:"emisor,omitempty"`
	Receptor     *ParteXML `json:"receptor,omitempty"`
	Subtotal     *float64  `json:"subtotal,omitempty"`
	IGV          *float64  `json:"igv,omitempty"`
	Total        *float64  `json:"total,omitempty"`
	Items        []ItemXML `json:"items"`
	ArchivoXml   string    `json:"archivoXml,omitempty"`
}

// ParteXML emisor o receptor del comprobante.
type ParteXML struct {
	RUC    string `json:"ruc"`
	Nombre string `json:"nombre"`
}

// ItemXML una línea del XML UBL.
type ItemXML struct {
	Cantidad      float64 `json:"cantidad"`
	Unidad        string  `json:"unidad"`
	Codigo        string  `json:"codigo,omitempty"`
	Descripcion   string  `json:"descripcion"`
	ValorUnitario float64 `json:"valorUnitario"`
}

// EncoladoResponse respuesta del flujo encolado: el backend acepta el trabajo
// y devuelve el identificador para polling.
type EncoladoResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId"`
	Message string `json:"message"`
}

// EstadoJobResponse estado de un job de extracción encolado.
type EstadoJobResponse struct {
	ID       string              `json:"id"`
	State    string              `json:"state"` // waiting, active, completed, failed
	Progress int                 `json:"progress"`
	Result   *DetalleXMLResponse `json:"result,omitempty"`
	Reason   string              `json:"reason,omitempty"`
}

// ── Persistencia de detalle ──────────────────────────────────────────────────

// ProductoBackend línea de producto en formato del backend (importes numéricos).
type ProductoBackend struct {
	Descripcion   string  `json:"descripcion"`
	Cantidad      float64 `json:"cantidad"`
	CostoUnitario float64 `json:"costoUnitario"`
	UnidadMedida  string  `json:"unidadMedida"`
}

// GuardarProductosRequest cuerpo de POST /factura/guardar-productos/{nc}.
type GuardarProductosRequest struct {
	Productos []ProductoBackend `json:"productos"`
}

// GuardarProductosResponse confirmación del guardado de líneas.
type GuardarProductosResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	ProductosGuardados int    `json:"productosGuardados"`
}

// ScrapingCompletadoRequest cuerpo de PUT /factura/scraping-completado/{nc}.
type ScrapingCompletadoRequest struct {
	Productos []ProductoBackend `json:"productos,omitempty"`
}

// ScrapingCompletadoResponse confirmación del cambio de estado en el backend.
type ScrapingCompletadoResponse struct {
	Message string `json:"message"`
	Estado  string `json:"estado,omitempty"`
}

// ── Registro de facturas ─────────────────────────────────────────────────────

// RegistrarDesdeSunatRequest alta de una factura en el backend a partir de los
// campos conocidos del listado (sin detalle todavía).
type RegistrarDesdeSunatRequest struct {
	RucEmisor     string `json:"rucEmisor"`
	Serie         string `json:"serie"`
	Numero        string `json:"numero"`
	FechaEmision  string `json:"fechaEmision"`
	RazonSocial   string `json:"razonSocial"`
	TipoDocumento string `json:"tipoDocumento"`
	Moneda        string `json:"moneda"`
	CostoTotal    string `json:"costoTotal"`
	IGV           string `json:"igv"`
	ImporteTotal  string `json:"importeTotal"`
	UsuarioID     int    `json:"usuarioId"`
}

// RegistrarDesdeSunatResponse respuesta del alta.
type RegistrarDesdeSunatResponse struct {
	Success           bool   `json:"success"`
	IDFactura         *int   `json:"idFactura"`
	NumeroComprobante string `json:"numeroComprobante"`
	Message           string `json:"message"`
}

// FacturaParaRegistrar una factura completa (con productos) para el registro
// definitivo en la base de datos.
type FacturaParaRegistrar struct {
	ID            int                     `json:"id"`
	RucEmisor     string                  `json:"rucEmisor"`
	Serie         string                  `json:"serie"`
	Numero        string                  `json:"numero"`
	FechaEmision  string                  `json:"fechaEmision"`
	RazonSocial   string                  `json:"razonSocial"`
	TipoDocumento string                  `json:"tipoDocumento"`
	Moneda        string                  `json:"moneda"`
	CostoTotal    string                  `json:"costoTotal"`
	IGV           string                  `json:"igv"`
	ImporteTotal  string                  `json:"importeTotal"`
	Productos     []ProductoParaRegistrar `json:"productos"`
}

// ProductoParaRegistrar línea en formato texto (como la maneja el cliente).
type ProductoParaRegistrar struct {
	Descripcion   string `json:"descripcion"`
	Cantidad      string `json:"cantidad"`
	CostoUnitario string `json:"costoUnitario"`
	UnidadMedida  string `json:"unidadMedida"`
}

// RegistroFacturasRequest cuerpo de POST /factura/procesarFactura (bulk).
type RegistroFacturasRequest struct {
	Facturas []FacturaParaRegistrar `json:"facturas"`
}

// RegistroFacturasResponse resultados por factura del registro bulk.
type RegistroFacturasResponse struct {
	Message    string              `json:"message"`
	Resultados []ResultadoRegistro `json:"resultados"`
}

// ResultadoRegistro resultado individual dentro del registro bulk.
type ResultadoRegistro struct {
	Success           bool   `json:"success"`
	ID                int    `json:"id"`
	NumeroComprobante string `json:"numeroComprobante"`
}

// ── Credenciales ─────────────────────────────────────────────────────────────

// ValidarCredencialesRequest cuerpo de POST /sunat/validar-credenciales.
type ValidarCredencialesRequest struct {
	RUC      string `json:"ruc"`
	Usuario  string `json:"usuario"`
	ClaveSol string `json:"claveSol"`
}

// ValidarCredencialesResponse resultado de la validación contra SUNAT.
type ValidarCredencialesResponse struct {
	Valido  bool   `json:"valido"`
	Mensaje string `json:"mensaje,omitempty"`
	Token   string `json:"token,omitempty"`
}
