// Package memoria implementa el almacén en memoria de comprobantes: las
// colecciones vivas de compras y ventas, la caché por período y el mapa de
// RUC emisores. Se construye una sola vez al arranque y se vacía en logout.
package memoria

import (
	"sync"

	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/internal/domain/repository"
)

// Verificar en tiempo de compilación que Store implementa FacturaStore.
var _ repository.FacturaStore = (*Store)(nil)

// Store almacén en memoria. Todas las mutaciones ocurren bajo el mutex y
// reemplazan el snapshot completo de la colección: dos Actualizar
// concurrentes se serializan, nunca se pisan campos entre sí.
type Store struct {
	mu       sync.RWMutex
	compras  []entity.Factura
	ventas   []entity.Factura
	cache    map[string][]entity.Factura
	emisores map[int]string
	version  uint64
	cambios  chan struct{}
}

// New construye el almacén vacío.
func New() *Store {
	return &Store{
		cache:    make(map[string][]entity.Factura),
		emisores: make(map[int]string),
		// Buffer de 1: la señal colapsa ráfagas de mutaciones; el consumidor
		// relee el estado completo en cada despertar.
		cambios: make(chan struct{}, 1),
	}
}

// Listar devuelve una copia instantánea de la colección.
func (s *Store) Listar(dir entity.Direccion) []entity.Factura {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copiar(s.coleccion(dir))
}

// Todas devuelve compras y ventas juntas (copia).
func (s *Store) Todas() []entity.Factura {
	s.mu.RLock()
	defer s.mu.RUnlock()
	todas := make([]entity.Factura, 0, len(s.compras)+len(s.ventas))
	todas = append(todas, s.compras...)
	todas = append(todas, s.ventas...)
	return todas
}

// Reemplazar sustituye la colección completa.
func (s *Store) Reemplazar(dir entity.Direccion, facturas []entity.Factura) {
	s.mu.Lock()
	s.setColeccion(dir, copiar(facturas))
	s.version++
	s.mu.Unlock()
	s.notificar()
}

// Actualizar aplica la transformación de forma atómica sobre el snapshot.
func (s *Store) Actualizar(dir entity.Direccion, transform func([]entity.Factura) []entity.Factura) {
	s.mu.Lock()
	s.setColeccion(dir, transform(copiar(s.coleccion(dir))))
	s.version++
	s.mu.Unlock()
	s.notificar()
}

// BuscarPorID busca por ID local en la colección indicada.
func (s *Store) BuscarPorID(dir entity.Direccion, id int) (entity.Factura, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.coleccion(dir) {
		if f.ID == id {
			return f, true
		}
	}
	return entity.Factura{}, false
}

// PropagarEstado reescribe el estado en todas las entradas de caché cuya
// factura coincida con la terna (RUC, Serie, Numero) de la original. O(entradas
// × facturas por entrada); aceptable porque las entradas están acotadas por
// los períodos visitados en la sesión.
func (s *Store) PropagarEstado(original entity.Factura, estado entity.Estado) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for clave, enCache := range s.cache {
		actualizadas := make([]entity.Factura, len(enCache))
		for i, f := range enCache {
			if f.MismaIdentidad(original) {
				f.Estado = estado
			}
			actualizadas[i] = f
		}
		s.cache[clave] = actualizadas
	}
}

// ObtenerCache devuelve la última lista materializada para la clave.
func (s *Store) ObtenerCache(clave string) ([]entity.Factura, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	facturas, ok := s.cache[clave]
	if !ok {
		return nil, false
	}
	return copiar(facturas), true
}

// GuardarCache crea o refresca en sitio la entrada.
func (s *Store) GuardarCache(clave string, facturas []entity.Factura) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[clave] = copiar(facturas)
}

// GuardarRucEmisor registra el RUC del emisor para la factura.
func (s *Store) GuardarRucEmisor(facturaID int, ruc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emisores[facturaID] = ruc
}

// RucEmisor devuelve el RUC del emisor registrado para la factura.
func (s *Store) RucEmisor(facturaID int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ruc, ok := s.emisores[facturaID]
	return ruc, ok
}

// MaxID devuelve el mayor ID local entre ambas colecciones.
func (s *Store) MaxID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, f := range s.compras {
		if f.ID > max {
			max = f.ID
		}
	}
	for _, f := range s.ventas {
		if f.ID > max {
			max = f.ID
		}
	}
	return max
}

// Version devuelve el contador de versión del snapshot.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Cambios devuelve el canal de señales de mutación.
func (s *Store) Cambios() <-chan struct{} {
	return s.cambios
}

// Reset vacía colecciones, caché y emisores (logout).
func (s *Store) Reset() {
	s.mu.Lock()
	s.compras = nil
	s.ventas = nil
	s.cache = make(map[string][]entity.Factura)
	s.emisores = make(map[int]string)
	s.version++
	s.mu.Unlock()
	s.notificar()
}

// ── internos ─────────────────────────────────────────────────────────────────

func (s *Store) coleccion(dir entity.Direccion) []entity.Factura {
	if dir == entity.DireccionCompras {
		return s.compras
	}
	return s.ventas
}

func (s *Store) setColeccion(dir entity.Direccion, facturas []entity.Factura) {
	if dir == entity.DireccionCompras {
		s.compras = facturas
	} else {
		s.ventas = facturas
	}
}

// notificar emite la señal sin bloquear: si ya hay una pendiente, alcanza.
func (s *Store) notificar() {
	select {
	case s.cambios <- struct{}{}:
	default:
	}
}

// copiar devuelve un snapshot independiente; los ProductoItem internos se
// comparten porque nunca se mutan en sitio (se reemplazan en bloque).
func copiar(facturas []entity.Factura) []entity.Factura {
	if facturas == nil {
		return nil
	}
	c := make([]entity.Factura, len(facturas))
	copy(c, facturas)
	return c
}
