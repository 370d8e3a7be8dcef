// Package facturas implementa el ciclo de vida de comprobantes del lado
// cliente: listado con caché, máquina de estados de extracción de detalle,
// registro manual y registro automático diferido.
package facturas

import (
	"sync"
	"time"

	"github.com/contasol/sunat-registro/internal/application/ports"
	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/internal/domain/repository"
	"github.com/contasol/sunat-registro/pkg/logger"
)

// Config parámetros del ciclo de vida.
type Config struct {
	AutoRegistroDelay time.Duration // espera tras CON DETALLE antes del registro automático
	DetalleTodasDelay time.Duration // pausa entre despachos de "detalle todas"
	DetalleTodasMax   int           // despachos en paralelo de "detalle todas" (1 = secuencial)
	UsarCola          bool          // flujo encolado (jobId + polling) en vez del síncrono
	PollIntervalo     time.Duration
	PollMaxIntentos   int
}

func (c *Config) normalizar() {
	if c.AutoRegistroDelay <= 0 {
		c.AutoRegistroDelay = 10 * time.Second
	}
	if c.DetalleTodasDelay < 0 {
		c.DetalleTodasDelay = 0
	}
	if c.DetalleTodasMax <= 0 {
		c.DetalleTodasMax = 1
	}
	if c.PollIntervalo <= 0 {
		c.PollIntervalo = 3 * time.Second
	}
	if c.PollMaxIntentos <= 0 {
		c.PollMaxIntentos = 30
	}
}

// UseCase orquesta el ciclo de vida de facturas contra el store y el backend.
type UseCase struct {
	store   repository.FacturaStore
	creds   repository.CredencialStore
	backend ports.BackendService
	cfg     Config
	log     *logger.Logger

	// Slot de último error de la aplicación, limpiable explícitamente.
	errMu     sync.Mutex
	ultimoErr string
}

// New construye el caso de uso.
func New(store repository.FacturaStore, creds repository.CredencialStore, backend ports.BackendService, cfg Config, log *logger.Logger) *UseCase {
	cfg.normalizar()
	return &UseCase{
		store:   store,
		creds:   creds,
		backend: backend,
		cfg:     cfg,
		log:     log,
	}
}

// UltimoError devuelve el último mensaje de error registrado ("" si ninguno).
func (uc *UseCase) UltimoError() string {
	uc.errMu.Lock()
	defer uc.errMu.Unlock()
	return uc.ultimoErr
}

// LimpiarError vacía el slot de error.
func (uc *UseCase) LimpiarError() {
	uc.errMu.Lock()
	defer uc.errMu.Unlock()
	uc.ultimoErr = ""
}

func (uc *UseCase) registrarError(msg string) {
	uc.errMu.Lock()
	uc.ultimoErr = msg
	uc.errMu.Unlock()
	uc.log.Warn().Str("error_app", msg).Msg("error registrado en el slot")
}

// ActualizarEstado confirma una transición de estado en el store y la propaga
// a todas las entradas de caché (invariante de consistencia de la caché).
func (uc *UseCase) ActualizarEstado(dir entity.Direccion, facturaID int, estado entity.Estado) {
	original, ok := uc.store.BuscarPorID(dir, facturaID)
	if !ok {
		return
	}
	uc.store.Actualizar(dir, func(lista []entity.Factura) []entity.Factura {
		for i := range lista {
			if lista[i].ID == facturaID {
				lista[i].Estado = estado
			}
		}
		return lista
	})
	uc.store.PropagarEstado(original, estado)
}

// ActualizarSeleccion cambia el flag de selección (solo UI, no se propaga a caché).
func (uc *UseCase) ActualizarSeleccion(dir entity.Direccion, facturaID int, seleccionada bool) bool {
	if _, ok := uc.store.BuscarPorID(dir, facturaID); !ok {
		return false
	}
	uc.store.Actualizar(dir, func(lista []entity.Factura) []entity.Factura {
		for i := range lista {
			if lista[i].ID == facturaID {
				lista[i].Seleccionada = seleccionada
			}
		}
		return lista
	})
	return true
}

// actualizarProductos reemplaza en bloque las líneas de la factura.
func (uc *UseCase) actualizarProductos(dir entity.Direccion, facturaID int, productos []entity.ProductoItem) {
	uc.store.Actualizar(dir, func(lista []entity.Factura) []entity.Factura {
		for i := range lista {
			if lista[i].ID == facturaID {
				lista[i].Productos = productos
			}
		}
		return lista
	})
}

// Cerrar limpia el estado de la sesión (logout): credenciales y almacén.
func (uc *UseCase) Cerrar() {
	uc.creds.Limpiar()
	uc.store.Reset()
	uc.LimpiarError()
}
