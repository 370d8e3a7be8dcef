package facturas_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/application/facturas"
	"github.com/contasol/sunat-registro/internal/domain"
	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/internal/infrastructure/credenciales"
	"github.com/contasol/sunat-registro/internal/infrastructure/memoria"
	"github.com/contasol/sunat-registro/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Backend falso
// ──────────────────────────────────────────────────────────────────────────────

// backendFalso implementa ports.BackendService con funciones sustituibles por
// test y contador de llamadas por operación.
type backendFalso struct {
	mu       sync.Mutex
	llamadas map[string]int

	listarFn     func(periodoInicio, periodoFin string) (*dto.ListadoResponse, error)
	facturaUIFn  func(numeroComprobante string) (*dto.FacturaUIResponse, error)
	verificarFn  func(numeroComprobante string) error
	altaFn       func(req dto.RegistrarDesdeSunatRequest) (*dto.RegistrarDesdeSunatResponse, error)
	detalleFn    func(req dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error)
	encolarFn    func(req dto.DetalleFacturaRequest) (*dto.EncoladoResponse, error)
	estadoJobFn  func(jobID string) (*dto.EstadoJobResponse, error)
	guardarFn    func(nc string, req dto.GuardarProductosRequest) (*dto.GuardarProductosResponse, error)
	completadoFn func(nc string, req dto.ScrapingCompletadoRequest) (*dto.ScrapingCompletadoResponse, error)
	registrarFn  func(req dto.RegistroFacturasRequest) (*dto.RegistroFacturasResponse, error)
	validarFn    func(req dto.ValidarCredencialesRequest) (*dto.ValidarCredencialesResponse, error)
}

func nuevoBackendFalso() *backendFalso {
	return &backendFalso{llamadas: make(map[string]int)}
}

func (b *backendFalso) contar(op string) {
	b.mu.Lock()
	b.llamadas[op]++
	b.mu.Unlock()
}

func (b *backendFalso) conteo(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.llamadas[op]
}

func (b *backendFalso) ListarComprobantes(_ context.Context, periodoInicio, periodoFin string, _ entity.Credenciales) (*dto.ListadoResponse, error) {
	b.contar("listar")
	if b.listarFn != nil {
		return b.listarFn(periodoInicio, periodoFin)
	}
	return &dto.ListadoResponse{Success: true}, nil
}

func (b *backendFalso) ObtenerFacturaUI(_ context.Context, nc string) (*dto.FacturaUIResponse, error) {
	b.contar("facturaUI")
	if b.facturaUIFn != nil {
		return b.facturaUIFn(nc)
	}
	return nil, errors.New("factura no registrada")
}

func (b *backendFalso) VerificarFacturaRegistrada(_ context.Context, nc string) error {
	b.contar("verificar")
	if b.verificarFn != nil {
		return b.verificarFn(nc)
	}
	return nil
}

func (b *backendFalso) RegistrarDesdeSunat(_ context.Context, req dto.RegistrarDesdeSunatRequest) (*dto.RegistrarDesdeSunatResponse, error) {
	b.contar("alta")
	if b.altaFn != nil {
		return b.altaFn(req)
	}
	return &dto.RegistrarDesdeSunatResponse{Success: true}, nil
}

func (b *backendFalso) ObtenerDetalleXML(_ context.Context, req dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
	b.contar("detalle")
	if b.detalleFn != nil {
		return b.detalleFn(req)
	}
	return &dto.DetalleXMLResponse{}, nil
}

func (b *backendFalso) EncolarDetalle(_ context.Context, req dto.DetalleFacturaRequest) (*dto.EncoladoResponse, error) {
	b.contar("encolar")
	if b.encolarFn != nil {
		return b.encolarFn(req)
	}
	return &dto.EncoladoResponse{Success: true, JobID: "job-1"}, nil
}

func (b *backendFalso) EstadoJob(_ context.Context, jobID string) (*dto.EstadoJobResponse, error) {
	b.contar("estadoJob")
	if b.estadoJobFn != nil {
		return b.estadoJobFn(jobID)
	}
	return &dto.EstadoJobResponse{State: "completed", Result: &dto.DetalleXMLResponse{}}, nil
}

func (b *backendFalso) GuardarProductos(_ context.Context, nc string, req dto.GuardarProductosRequest) (*dto.GuardarProductosResponse, error) {
	b.contar("guardar")
	if b.guardarFn != nil {
		return b.guardarFn(nc, req)
	}
	return &dto.GuardarProductosResponse{Success: true}, nil
}

func (b *backendFalso) MarcarScrapingCompletado(_ context.Context, nc string, req dto.ScrapingCompletadoRequest) (*dto.ScrapingCompletadoResponse, error) {
	b.contar("completado")
	if b.completadoFn != nil {
		return b.completadoFn(nc, req)
	}
	return &dto.ScrapingCompletadoResponse{Message: "ok"}, nil
}

func (b *backendFalso) RegistrarFacturas(_ context.Context, req dto.RegistroFacturasRequest) (*dto.RegistroFacturasResponse, error) {
	b.contar("registrar")
	if b.registrarFn != nil {
		return b.registrarFn(req)
	}
	resultados := make([]dto.ResultadoRegistro, len(req.Facturas))
	for i, f := range req.Facturas {
		resultados[i] = dto.ResultadoRegistro{Success: true, ID: f.ID, NumeroComprobante: f.Serie + "-" + f.Numero}
	}
	return &dto.RegistroFacturasResponse{Resultados: resultados}, nil
}

func (b *backendFalso) ValidarCredenciales(_ context.Context, req dto.ValidarCredencialesRequest) (*dto.ValidarCredencialesResponse, error) {
	b.contar("validar")
	if b.validarFn != nil {
		return b.validarFn(req)
	}
	return &dto.ValidarCredencialesResponse{Valido: true}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var credsPrueba = entity.Credenciales{RUC: "20601030013", Usuario: "MODDATOS", ClaveSol: "moddatos"}

func nuevoEntorno(t *testing.T, backend *backendFalso, cfg facturas.Config) (*facturas.UseCase, *memoria.Store) {
	t.Helper()
	store := memoria.New()
	credStore := credenciales.New("")
	require.NoError(t, credStore.Guardar(credsPrueba))
	uc := facturas.New(store, credStore, backend, cfg, logger.Nop())
	return uc, store
}

func facturaConsultada(id int) entity.Factura {
	return entity.Factura{
		ID:           id,
		RUC:          "20512345678",
		RazonSocial:  "DISTRIBUIDORA ANDINA S.A.C.",
		Serie:        "F001",
		Numero:       "123",
		FechaEmision: "15/01/2025",
		Moneda:       "Soles (PEN)",
		ImporteTotal: "118.00",
		Estado:       entity.EstadoConsultado,
		Anio:         "2025",
	}
}

func itemListado(serie, numero, fecha string) dto.ComprobanteItem {
	return dto.ComprobanteItem{
		RucEmisor:         "20512345678",
		RazonSocialEmisor: "DISTRIBUIDORA ANDINA S.A.C.",
		Periodo:           "202501",
		FechaEmision:      fecha,
		TipoCP:            "01",
		Serie:             serie,
		Numero:            numero,
		NroDocReceptor:    "20601030013",
		NombreReceptor:    "MI EMPRESA S.A.C.",
		BaseGravada:       100,
		IGV:               18,
		Total:             118,
		Moneda:            "PEN",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Listado
// ──────────────────────────────────────────────────────────────────────────────

func TestCargarFacturas_SinCredenciales(t *testing.T) {
	backend := nuevoBackendFalso()
	store := memoria.New()
	uc := facturas.New(store, credenciales.New(""), backend, facturas.Config{}, logger.Nop())

	_, err := uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202501", "202501")
	require.ErrorIs(t, err, domain.ErrCredencialesRequeridas)
	assert.Zero(t, backend.conteo("listar"), "sin credenciales no debe tocarse el backend")
}

func TestCargarFacturas_ListadoCompras(t *testing.T) {
	backend := nuevoBackendFalso()
	tc := 3.85
	item := itemListado("E001", "501", "10/01/2025")
	item.Moneda = "USD"
	item.TipoDeCambio = &tc
	backend.listarFn = func(pi, pf string) (*dto.ListadoResponse, error) {
		assert.Equal(t, "202501", pi)
		return &dto.ListadoResponse{
			Success:    true,
			Resultados: []dto.ListadoResultado{{Periodo: "202501", Contenido: []dto.ComprobanteItem{item}}},
		}, nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	lista, err := uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202501", "202501")
	require.NoError(t, err)
	require.Len(t, lista, 1)

	f := lista[0]
	assert.Equal(t, 1, f.ID, "los IDs locales comienzan en 1")
	assert.Equal(t, entity.EstadoConsultado, f.Estado)
	assert.Equal(t, "20512345678", f.RUC, "en compras la contraparte es el emisor")
	assert.Equal(t, "FACTURA", f.TipoDocumento)
	assert.Equal(t, "Dólares (USD)", f.Moneda)
	assert.Equal(t, "3.85", f.TipoCambio)
	assert.Equal(t, "118.00", f.ImporteTotal)
	assert.Equal(t, "2025", f.Anio)

	// El comprobante desconocido para el backend se da de alta en segundo plano.
	assert.Eventually(t, func() bool { return backend.conteo("alta") == 1 }, time.Second, 10*time.Millisecond)

	// La lista queda en store y en caché.
	enStore := store.Listar(entity.DireccionCompras)
	require.Len(t, enStore, 1)
	_, ok := store.ObtenerCache("COMPRAS-202501")
	assert.True(t, ok)
}

func TestCargarFacturas_VentasUsaReceptor(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.listarFn = func(_, _ string) (*dto.ListadoResponse, error) {
		return &dto.ListadoResponse{
			Success:    true,
			Resultados: []dto.ListadoResultado{{Contenido: []dto.ComprobanteItem{itemListado("F001", "88", "05/01/2025")}}},
		}, nil
	}

	uc, _ := nuevoEntorno(t, backend, facturas.Config{})
	lista, err := uc.CargarFacturas(context.Background(), entity.DireccionVentas, "202501", "202501")
	require.NoError(t, err)
	require.Len(t, lista, 1)
	assert.Equal(t, "20601030013", lista[0].RUC, "en ventas la contraparte es el receptor")
	assert.Equal(t, "MI EMPRESA S.A.C.", lista[0].RazonSocial)
}

func TestCargarFacturas_CacheEvitaListadoMasivo(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.listarFn = func(_, _ string) (*dto.ListadoResponse, error) {
		return &dto.ListadoResponse{
			Success:    true,
			Resultados: []dto.ListadoResultado{{Contenido: []dto.ComprobanteItem{itemListado("F001", "1", "02/01/2025")}}},
		}, nil
	}

	uc, _ := nuevoEntorno(t, backend, facturas.Config{})
	_, err := uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202501", "202501")
	require.NoError(t, err)
	require.Equal(t, 1, backend.conteo("listar"))

	// Segunda carga del mismo período: resuelve desde caché, sin listado masivo.
	_, err = uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202501", "202501")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.conteo("listar"), "el período cacheado no debe relistar")
}

func TestCargarFacturas_CachePreservaEstadoRemoto(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.listarFn = func(_, _ string) (*dto.ListadoResponse, error) {
		return &dto.ListadoResponse{
			Success:    true,
			Resultados: []dto.ListadoResultado{{Contenido: []dto.ComprobanteItem{itemListado("F001", "9", "02/01/2025")}}},
		}, nil
	}

	uc, _ := nuevoEntorno(t, backend, facturas.Config{})
	_, err := uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202501", "202501")
	require.NoError(t, err)

	// En la recarga cacheada el backend ya conoce la factura con detalle.
	backend.facturaUIFn = func(nc string) (*dto.FacturaUIResponse, error) {
		return &dto.FacturaUIResponse{
			Success: true,
			Factura: dto.FacturaRegistrada{
				Estado: string(entity.EstadoConDetalle),
				Detalles: []dto.DetalleRegistrado{
					{Descripcion: "CEMENTO PORTLAND", Cantidad: "10", CostoUnitario: "25.00", UnidadMedida: "Und."},
				},
			},
		}, nil
	}

	lista, err := uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202501", "202501")
	require.NoError(t, err)
	require.Len(t, lista, 1)
	assert.Equal(t, entity.EstadoConDetalle, lista[0].Estado)
	require.Len(t, lista[0].Productos, 1)
	assert.Equal(t, "CEMENTO PORTLAND", lista[0].Productos[0].Descripcion)
}

func TestCargarFacturas_RelistadoPreservaIdentidadLocal(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.listarFn = func(_, _ string) (*dto.ListadoResponse, error) {
		return &dto.ListadoResponse{
			Success: true,
			Resultados: []dto.ListadoResultado{{Contenido: []dto.ComprobanteItem{
				itemListado("F001", "10", "03/01/2025"),
				itemListado("F001", "11", "04/01/2025"),
			}}},
		}, nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	lista, err := uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202501", "202501")
	require.NoError(t, err)
	require.Len(t, lista, 2)

	// El usuario selecciona la primera.
	require.True(t, uc.ActualizarSeleccion(entity.DireccionCompras, lista[0].ID, true))

	// Relistado de otro período con el mismo contenido: misma terna, mismo ID
	// local y selección conservada.
	lista2, err := uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202502", "202502")
	require.NoError(t, err)
	require.Len(t, lista2, 2)
	assert.Equal(t, lista[0].ID, lista2[0].ID)
	assert.True(t, lista2[0].Seleccionada, "la selección sobrevive al relistado")
	assert.Equal(t, 2, store.MaxID(), "no deben asignarse IDs nuevos para ternas conocidas")
}

// ──────────────────────────────────────────────────────────────────────────────
// Detalle
// ──────────────────────────────────────────────────────────────────────────────

func sembrarCompra(store *memoria.Store, f entity.Factura) {
	store.Reemplazar(entity.DireccionCompras, []entity.Factura{f})
	store.GuardarRucEmisor(f.ID, f.RUC)
}

func detalleConItems() *dto.DetalleXMLResponse {
	return &dto.DetalleXMLResponse{
		Items: []dto.ItemXML{
			{Cantidad: 2, Unidad: "NIU", Descripcion: "LADRILLO KK 18 HUECOS", ValorUnitario: 1.5},
			{Cantidad: 1, Unidad: "KGM", Descripcion: "CLAVOS 2\"", ValorUnitario: 8},
		},
	}
}

func TestObtenerDetalle_FlujoCompleto(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.detalleFn = func(req dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
		assert.Equal(t, "20512345678", req.RucEmisor, "en compras el emisor es la contraparte")
		assert.Equal(t, credsPrueba.RUC, req.RUC)
		assert.NotEmpty(t, req.RequestID, "cada despacho lleva token de deduplicación")
		return detalleConItems(), nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	sembrarCompra(store, facturaConsultada(1))

	out, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, entity.EstadoConDetalle, out.Estado)

	f, ok := store.BuscarPorID(entity.DireccionCompras, 1)
	require.True(t, ok)
	assert.Equal(t, entity.EstadoConDetalle, f.Estado)
	require.Len(t, f.Productos, 2)
	assert.Equal(t, "2", f.Productos[0].Cantidad)
	assert.Equal(t, "1.50", f.Productos[0].CostoUnitario)
	assert.Equal(t, "8.00", f.Productos[1].CostoUnitario)

	assert.Equal(t, 1, backend.conteo("guardar"))
	assert.Equal(t, 1, backend.conteo("completado"))
}

func TestObtenerDetalle_SinItemsRevierteEstado(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.detalleFn = func(_ dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
		return &dto.DetalleXMLResponse{}, nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	sembrarCompra(store, facturaConsultada(1))

	_, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.ErrorIs(t, err, domain.ErrSinDetalle)

	f, _ := store.BuscarPorID(entity.DireccionCompras, 1)
	assert.Equal(t, entity.EstadoConsultado, f.Estado, "sin items la factura vuelve al estado previo")
	assert.Empty(t, f.Productos)
	assert.Equal(t, "El XML no contiene detalles de productos", uc.UltimoError())
}

func TestObtenerDetalle_ErrorDeRedRevierteEstado(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.detalleFn = func(_ dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
		return nil, errors.New("connection refused")
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	sembrarCompra(store, facturaConsultada(1))

	_, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.Error(t, err)

	f, _ := store.BuscarPorID(entity.DireccionCompras, 1)
	assert.Equal(t, entity.EstadoConsultado, f.Estado)
}

func TestObtenerDetalle_EnProcesoNoRedespacha(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	f := facturaConsultada(1)
	f.Estado = entity.EstadoEnProceso
	sembrarCompra(store, f)

	_, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.ErrorIs(t, err, domain.ErrEnProceso)
	assert.Zero(t, backend.conteo("detalle"), "la guarda de duplicados no debe tocar el backend")

	actual, _ := store.BuscarPorID(entity.DireccionCompras, 1)
	assert.Equal(t, entity.EstadoEnProceso, actual.Estado)
}

func TestObtenerDetalle_ConDetalleEsIdempotente(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	f := facturaConsultada(1)
	f.Estado = entity.EstadoConDetalle
	f.Productos = []entity.ProductoItem{{Descripcion: "X", Cantidad: "1"}}
	sembrarCompra(store, f)

	out, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.NoError(t, err)
	assert.Equal(t, "Detalles ya cargados", out.Message)
	assert.Zero(t, backend.conteo("detalle"))
}

func TestObtenerDetalle_SinCredenciales(t *testing.T) {
	backend := nuevoBackendFalso()
	store := memoria.New()
	uc := facturas.New(store, credenciales.New(""), backend, facturas.Config{}, logger.Nop())
	sembrarCompra(store, facturaConsultada(1))

	_, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.ErrorIs(t, err, domain.ErrCredencialesRequeridas)
	assert.Equal(t, "Complete sus credenciales SUNAT primero", uc.UltimoError())
}

func TestObtenerDetalle_AltaPreviaSiBackendNoConoce(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.verificarFn = func(string) error { return errors.New("no existe") }
	backend.detalleFn = func(_ dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
		return detalleConItems(), nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	sembrarCompra(store, facturaConsultada(1))

	_, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.conteo("alta"), "el comprobante desconocido se da de alta antes de extraer")
}

func TestObtenerDetalle_FalloAlMarcarCompletadoNoRevierte(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.detalleFn = func(_ dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
		return detalleConItems(), nil
	}
	backend.completadoFn = func(string, dto.ScrapingCompletadoRequest) (*dto.ScrapingCompletadoResponse, error) {
		return nil, errors.New("timeout")
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	sembrarCompra(store, facturaConsultada(1))

	out, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.NoError(t, err, "el detalle ya obtenido no se pierde por el fallo de persistencia")
	assert.True(t, out.Success)
	assert.Equal(t, "Detalles obtenidos, pero error al guardar en servidor", uc.UltimoError())

	f, _ := store.BuscarPorID(entity.DireccionCompras, 1)
	assert.Equal(t, entity.EstadoConDetalle, f.Estado)
}

func TestObtenerDetalle_FlujoEncolado(t *testing.T) {
	backend := nuevoBackendFalso()
	consultas := 0
	backend.estadoJobFn = func(jobID string) (*dto.EstadoJobResponse, error) {
		require.Equal(t, "job-1", jobID)
		consultas++
		if consultas < 3 {
			return &dto.EstadoJobResponse{State: "active", Progress: consultas * 30}, nil
		}
		return &dto.EstadoJobResponse{State: "completed", Result: detalleConItems()}, nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{
		UsarCola:        true,
		PollIntervalo:   5 * time.Millisecond,
		PollMaxIntentos: 10,
	})
	sembrarCompra(store, facturaConsultada(1))

	out, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Zero(t, backend.conteo("detalle"), "en modo cola no se usa la vía síncrona")
	assert.Equal(t, 3, consultas)

	f, _ := store.BuscarPorID(entity.DireccionCompras, 1)
	assert.Equal(t, entity.EstadoConDetalle, f.Estado)
}

func TestObtenerDetalle_JobFallidoRevierte(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.estadoJobFn = func(string) (*dto.EstadoJobResponse, error) {
		return &dto.EstadoJobResponse{State: "failed", Reason: "clave SOL incorrecta"}, nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{
		UsarCola:        true,
		PollIntervalo:   time.Millisecond,
		PollMaxIntentos: 5,
	})
	sembrarCompra(store, facturaConsultada(1))

	_, err := uc.ObtenerDetalle(context.Background(), entity.DireccionCompras, 1)
	require.ErrorContains(t, err, "clave SOL incorrecta")

	f, _ := store.BuscarPorID(entity.DireccionCompras, 1)
	assert.Equal(t, entity.EstadoConsultado, f.Estado)
}

// ──────────────────────────────────────────────────────────────────────────────
// Detalle masivo
// ──────────────────────────────────────────────────────────────────────────────

func TestObtenerDetalleTodas_SoloConsultadas(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.detalleFn = func(_ dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
		return detalleConItems(), nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{DetalleTodasDelay: time.Millisecond})
	conDetalle := facturaConsultada(2)
	conDetalle.Numero = "124"
	conDetalle.Estado = entity.EstadoConDetalle
	registrada := facturaConsultada(3)
	registrada.Numero = "125"
	registrada.Estado = entity.EstadoRegistrado
	store.Reemplazar(entity.DireccionCompras, []entity.Factura{facturaConsultada(1), conDetalle, registrada})

	out, err := uc.ObtenerDetalleTodas(context.Background(), dto.DetalleTodasRequest{Tipo: entity.DireccionCompras})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Exitosas)
	assert.Equal(t, 0, out.Fallidas)
	assert.Equal(t, 2, out.Omitidas, "CON DETALLE y REGISTRADO se omiten")
	assert.Equal(t, 1, backend.conteo("detalle"))
}

func TestObtenerDetalleTodas_FalloParcialNoAborta(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.detalleFn = func(req dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
		if req.Numero == "123" {
			return nil, errors.New("boom")
		}
		return detalleConItems(), nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	segunda := facturaConsultada(2)
	segunda.Numero = "124"
	store.Reemplazar(entity.DireccionCompras, []entity.Factura{facturaConsultada(1), segunda})

	out, err := uc.ObtenerDetalleTodas(context.Background(), dto.DetalleTodasRequest{Tipo: entity.DireccionCompras})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Exitosas)
	assert.Equal(t, 1, out.Fallidas)
	require.Len(t, out.Mensajes, 1)
	assert.Contains(t, out.Mensajes[0], "F001-123")
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro manual y automático
// ──────────────────────────────────────────────────────────────────────────────

func TestRegistrarFacturas_TodasExitosas(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	f := facturaConsultada(1)
	f.Estado = entity.EstadoConDetalle
	f.Productos = []entity.ProductoItem{{Descripcion: "X", Cantidad: "1", CostoUnitario: "10.00"}}
	sembrarCompra(store, f)

	out, err := uc.RegistrarFacturas(context.Background(), dto.RegistrarFacturasUIRequest{
		Tipo: entity.DireccionCompras,
		IDs:  []int{1},
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 1, out.Registradas)

	actual, _ := store.BuscarPorID(entity.DireccionCompras, 1)
	assert.Equal(t, entity.EstadoRegistrado, actual.Estado)
}

func TestRegistrarFacturas_FalloParcialConservaEstado(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.registrarFn = func(req dto.RegistroFacturasRequest) (*dto.RegistroFacturasResponse, error) {
		resultados := make([]dto.ResultadoRegistro, len(req.Facturas))
		for i, f := range req.Facturas {
			nc := f.Serie + "-" + f.Numero
			resultados[i] = dto.ResultadoRegistro{Success: nc != "F001-124", ID: f.ID, NumeroComprobante: nc}
		}
		return &dto.RegistroFacturasResponse{Resultados: resultados}, nil
	}

	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	primera := facturaConsultada(1)
	primera.Estado = entity.EstadoConDetalle
	primera.Productos = []entity.ProductoItem{{Descripcion: "X"}}
	segunda := facturaConsultada(2)
	segunda.Numero = "124"
	segunda.Estado = entity.EstadoConDetalle
	segunda.Productos = []entity.ProductoItem{{Descripcion: "Y"}}
	store.Reemplazar(entity.DireccionCompras, []entity.Factura{primera, segunda})

	out, err := uc.RegistrarFacturas(context.Background(), dto.RegistrarFacturasUIRequest{
		Tipo: entity.DireccionCompras,
		IDs:  []int{1, 2},
	})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, 1, out.Registradas)
	assert.Contains(t, out.Message, "F001-124")

	f1, _ := store.BuscarPorID(entity.DireccionCompras, 1)
	f2, _ := store.BuscarPorID(entity.DireccionCompras, 2)
	assert.Equal(t, entity.EstadoRegistrado, f1.Estado)
	assert.Equal(t, entity.EstadoConDetalle, f2.Estado, "la factura fallida conserva su estado")
}

func TestRegistrarFacturas_SinElegibles(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	sembrarCompra(store, facturaConsultada(1)) // CONSULTADO, sin detalle

	out, err := uc.RegistrarFacturas(context.Background(), dto.RegistrarFacturasUIRequest{
		Tipo: entity.DireccionCompras,
		IDs:  []int{1},
	})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Zero(t, backend.conteo("registrar"))
}

func TestAutoRegistro_RegistraTrasElDelay(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{AutoRegistroDelay: 30 * time.Millisecond})
	f := facturaConsultada(4)
	f.Productos = []entity.ProductoItem{{Descripcion: "X", Cantidad: "1"}}
	sembrarCompra(store, f)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go uc.EjecutarAutoRegistro(ctx)

	// La transición a CON DETALLE dispara la programación del registro.
	uc.ActualizarEstado(entity.DireccionCompras, 4, entity.EstadoConDetalle)

	assert.Eventually(t, func() bool {
		actual, ok := store.BuscarPorID(entity.DireccionCompras, 4)
		return ok && actual.Estado == entity.EstadoRegistrado
	}, 2*time.Second, 10*time.Millisecond, "la factura debe registrarse sola tras el delay")
	assert.Equal(t, 1, backend.conteo("registrar"))
}

func TestAutoRegistro_SeCancelaSiElEstadoCambia(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{AutoRegistroDelay: 60 * time.Millisecond})
	f := facturaConsultada(5)
	f.Productos = []entity.ProductoItem{{Descripcion: "X"}}
	sembrarCompra(store, f)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go uc.EjecutarAutoRegistro(ctx)

	uc.ActualizarEstado(entity.DireccionCompras, 5, entity.EstadoConDetalle)
	time.Sleep(20 * time.Millisecond)
	// El usuario (u otra vía) saca la factura de CON DETALLE antes del disparo.
	uc.ActualizarEstado(entity.DireccionCompras, 5, entity.EstadoRegistrado)

	time.Sleep(120 * time.Millisecond)
	assert.Zero(t, backend.conteo("registrar"), "el temporizador no debe registrar una factura que salió de CON DETALLE")
}

// ──────────────────────────────────────────────────────────────────────────────
// Filtro, creación manual y estado
// ──────────────────────────────────────────────────────────────────────────────

func TestFacturasFiltradas_RangoYOrdenDescendente(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{})

	enero := facturaConsultada(1)
	enero.FechaEmision = "10/01/2025"
	febrero := facturaConsultada(2)
	febrero.Numero = "124"
	febrero.FechaEmision = "15/02/2025"
	marzo := facturaConsultada(3)
	marzo.Numero = "125"
	marzo.FechaEmision = "20/03/2025"
	store.Reemplazar(entity.DireccionCompras, []entity.Factura{enero, febrero, marzo})

	lista, err := uc.FacturasFiltradas(entity.DireccionCompras, "01/02/2025", "28/02/2025")
	require.NoError(t, err)
	require.Len(t, lista, 1)
	assert.Equal(t, "124", lista[0].Numero)

	// Sin filtro: todas, de la más reciente a la más antigua.
	todas, err := uc.FacturasFiltradas(entity.DireccionCompras, "", "")
	require.NoError(t, err)
	require.Len(t, todas, 3)
	assert.Equal(t, "125", todas[0].Numero)
	assert.Equal(t, "123", todas[2].Numero)
}

func TestFacturasFiltradas_FechaInvalida(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, _ := nuevoEntorno(t, backend, facturas.Config{})
	_, err := uc.FacturasFiltradas(entity.DireccionCompras, "2025-01-01", "")
	assert.ErrorIs(t, err, domain.ErrEntradaInvalida)
}

func TestCrearFacturaCompra_ConProductosNaceConDetalle(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{})

	f, err := uc.CrearFacturaCompra(dto.CrearFacturaRequest{
		RUC:          "20512345678",
		RazonSocial:  "PROVEEDOR MANUAL S.A.C.",
		Serie:        "F002",
		Numero:       "77",
		FechaEmision: "20/01/2025",
		Productos:    []entity.ProductoItem{{Descripcion: "SERVICIO", Cantidad: "1", CostoUnitario: "100.00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.ID)
	assert.Equal(t, entity.EstadoConDetalle, f.Estado)
	assert.Equal(t, "2025", f.Anio)

	// Sin productos nace en CONSULTADO.
	f2, err := uc.CrearFacturaCompra(dto.CrearFacturaRequest{
		RUC:          "20512345678",
		Serie:        "F002",
		Numero:       "78",
		FechaEmision: "21/01/2025",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f2.ID)
	assert.Equal(t, entity.EstadoConsultado, f2.Estado)

	// La terna duplicada se rechaza.
	_, err = uc.CrearFacturaCompra(dto.CrearFacturaRequest{
		RUC:          "20512345678",
		Serie:        "F002",
		Numero:       "77",
		FechaEmision: "20/01/2025",
	})
	require.Error(t, err)
	assert.Len(t, store.Listar(entity.DireccionCompras), 2)
}

func TestEstadoSePropagaALaCache(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	f := facturaConsultada(1)
	sembrarCompra(store, f)
	store.GuardarCache("COMPRAS-202501", []entity.Factura{f})
	store.GuardarCache("COMPRAS-202502", []entity.Factura{f})

	uc.ActualizarEstado(entity.DireccionCompras, 1, entity.EstadoRegistrado)

	for _, clave := range []string{"COMPRAS-202501", "COMPRAS-202502"} {
		cacheadas, ok := store.ObtenerCache(clave)
		require.True(t, ok)
		require.Len(t, cacheadas, 1)
		assert.Equal(t, entity.EstadoRegistrado, cacheadas[0].Estado, clave)
	}
}

func TestSlotDeError_RegistroYLimpieza(t *testing.T) {
	backend := nuevoBackendFalso()
	backend.listarFn = func(_, _ string) (*dto.ListadoResponse, error) {
		return nil, errors.New("connection refused")
	}
	uc, _ := nuevoEntorno(t, backend, facturas.Config{})

	_, err := uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202501", "202501")
	require.Error(t, err)
	assert.Contains(t, uc.UltimoError(), "Error al conectar con el servidor")

	uc.LimpiarError()
	assert.Empty(t, uc.UltimoError())
}

func TestCerrar_LimpiaSesion(t *testing.T) {
	backend := nuevoBackendFalso()
	uc, store := nuevoEntorno(t, backend, facturas.Config{})
	sembrarCompra(store, facturaConsultada(1))
	store.GuardarCache("COMPRAS-202501", []entity.Factura{facturaConsultada(1)})

	uc.Cerrar()

	assert.Empty(t, store.Listar(entity.DireccionCompras))
	_, ok := store.ObtenerCache("COMPRAS-202501")
	assert.False(t, ok)

	// Sin credenciales tras el cierre.
	_, err := uc.CargarFacturas(context.Background(), entity.DireccionCompras, "202503", "202503")
	assert.ErrorIs(t, err, domain.ErrCredencialesRequeridas)
}
