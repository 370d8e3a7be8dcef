package ports

import (
	"context"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/domain/entity"
)

// BackendService define el puerto de salida hacia el backend contable
// (proxy SUNAT + base de datos remota). Cualquier adaptador (HTTP real,
// mock de tests) debe implementar esta interfaz; la capa de aplicación solo
// conoce este contrato.
//
// Todas las operaciones son bloqueantes y respetan el contexto: el timeout
// por tipo de llamada lo impone el adaptador.
type BackendService interface {
	// ListarComprobantes consulta el registro de compras/ventas de SUNAT
	// para el rango de períodos (yyyyMM). Requiere credenciales SOL.
	ListarComprobantes(ctx context.Context, periodoInicio, periodoFin string, creds entity.Credenciales) (*dto.ListadoResponse, error)

	// ObtenerFacturaUI consulta estado y detalle de un comprobante en el
	// backend. Devuelve error si el comprobante no está registrado.
	ObtenerFacturaUI(ctx context.Context, numeroComprobante string) (*dto.FacturaUIResponse, error)

	// VerificarFacturaRegistrada comprueba que el comprobante exista en el
	// backend; error si no existe.
	VerificarFacturaRegistrada(ctx context.Context, numeroComprobante string) error

	// RegistrarDesdeSunat da de alta una factura con los campos del listado.
	RegistrarDesdeSunat(ctx context.Context, req dto.RegistrarDesdeSunatRequest) (*dto.RegistrarDesdeSunatResponse, error)

	// ObtenerDetalleXML dispara la extracción síncrona del detalle.
	ObtenerDetalleXML(ctx context.Context, req dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error)

	// EncolarDetalle y EstadoJob implementan el flujo encolado: el backend
	// acepta el trabajo y el cliente hace polling del estado por jobId.
	EncolarDetalle(ctx context.Context, req dto.DetalleFacturaRequest) (*dto.EncoladoResponse, error)
	EstadoJob(ctx context.Context, jobID string) (*dto.EstadoJobResponse, error)

	// GuardarProductos persiste las líneas extraídas.
	GuardarProductos(ctx context.Context, numeroComprobante string, req dto.GuardarProductosRequest) (*dto.GuardarProductosResponse, error)

	// MarcarScrapingCompletado marca el fin de la extracción en el backend.
	MarcarScrapingCompletado(ctx context.Context, numeroComprobante string, req dto.ScrapingCompletadoRequest) (*dto.ScrapingCompletadoResponse, error)

	// RegistrarFacturas registro definitivo (bulk) en la base de datos.
	RegistrarFacturas(ctx context.Context, req dto.RegistroFacturasRequest) (*dto.RegistroFacturasResponse, error)

	// ValidarCredenciales valida las credenciales SOL contra SUNAT.
	ValidarCredenciales(ctx context.Context, req dto.ValidarCredencialesRequest) (*dto.ValidarCredencialesResponse, error)
}
