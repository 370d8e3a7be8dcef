package repository

import "github.com/contasol/sunat-registro/internal/domain/entity"

// FacturaStore define el puerto del almacén en memoria de comprobantes:
// las dos colecciones vivas (compras y ventas), la caché por período y el
// mapa de RUC emisores.
//
// Ninguna operación falla: son mutaciones puras en memoria. La consistencia
// entre colecciones vivas y caché es responsabilidad del llamador vía
// PropagarEstado en cada transición que se confirma al store.
type FacturaStore interface {
	// Listar devuelve una copia instantánea de la colección.
	Listar(dir entity.Direccion) []entity.Factura
	// Todas devuelve una copia instantánea de compras y ventas juntas.
	Todas() []entity.Factura
	// Reemplazar sustituye la colección completa (tras un listado remoto o
	// una lectura de caché).
	Reemplazar(dir entity.Direccion, facturas []entity.Factura)
	// Actualizar aplica una transformación pura a la colección de forma
	// atómica: lectura, transformación y escritura ocurren bajo la misma
	// sección crítica, por lo que dos Actualizar concurrentes nunca se
	// pisan campos entre sí.
	Actualizar(dir entity.Direccion, transform func([]entity.Factura) []entity.Factura)
	// BuscarPorID busca en la colección indicada por ID local.
	BuscarPorID(dir entity.Direccion, id int) (entity.Factura, bool)

	// PropagarEstado reescribe el estado en toda entrada de caché cuya
	// factura coincida con la terna (RUC, Serie, Numero) de la original.
	// Debe invocarse en cada transición que se confirma al store.
	PropagarEstado(original entity.Factura, estado entity.Estado)

	// ObtenerCache devuelve la última lista materializada para la clave.
	ObtenerCache(clave string) ([]entity.Factura, bool)
	// GuardarCache crea o refresca en sitio la entrada de caché.
	GuardarCache(clave string, facturas []entity.Factura)

	// GuardarRucEmisor y RucEmisor mantienen el mapa id -> RUC del emisor,
	// necesario para armar la petición de detalle.
	GuardarRucEmisor(facturaID int, ruc string)
	RucEmisor(facturaID int) (string, bool)

	// MaxID devuelve el mayor ID local entre ambas colecciones (0 si vacías);
	// el parseo de listados continúa desde MaxID+1 para no colisionar.
	MaxID() int

	// Version devuelve el contador de versión del snapshot; crece en cada
	// mutación de las colecciones vivas.
	Version() uint64
	// Cambios devuelve un canal que recibe una señal tras cada mutación de
	// las colecciones vivas (consumido por el registro automático).
	Cambios() <-chan struct{}

	// Reset vacía colecciones, caché y mapa de emisores (logout).
	Reset()
}
