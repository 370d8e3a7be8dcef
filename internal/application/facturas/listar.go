package facturas

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/domain"
	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/pkg/sunat"
)

// CargarFacturas puebla el store para (dirección, período).
//
// Con caché: no se repite el listado masivo; se reconsulta el estado de cada
// factura cacheada contra el backend (la deriva puede venir de otras
// sesiones) y se mezcla el resultado en caché y store. Fallos por factura se
// toleran conservando la copia cacheada.
//
// Sin caché: listado masivo vía proxy SUNAT (requiere credenciales SOL),
// parseo a Facturas con reconciliación de identidad, y alta en el backend
// de los comprobantes que aún no conoce (efecto secundario no bloqueante).
func (uc *UseCase) CargarFacturas(ctx context.Context, dir entity.Direccion, periodoInicio, periodoFin string) ([]entity.Factura, error) {
	clave := dir.CacheKey(periodoInicio)

	if enCache, ok := uc.store.ObtenerCache(clave); ok {
		actualizadas := uc.reconciliarCacheadas(ctx, enCache)
		uc.store.GuardarCache(clave, actualizadas)
		uc.store.Reemplazar(dir, actualizadas)
		return actualizadas, nil
	}

	creds, ok := uc.creds.Obtener()
	if !ok {
		return nil, domain.ErrCredencialesRequeridas
	}

	resp, err := uc.backend.ListarComprobantes(ctx, periodoInicio, periodoFin, creds)
	if err != nil {
		uc.registrarError("Error al conectar con el servidor: " + err.Error())
		return nil, fmt.Errorf("listar comprobantes: %w", err)
	}
	if !resp.Success {
		uc.registrarError("Error en la respuesta del servidor")
		return nil, domain.ErrBackendNoDisponible
	}

	facturas := uc.parsearListado(ctx, resp.Resultados, dir)

	uc.store.GuardarCache(clave, facturas)
	uc.store.Reemplazar(dir, facturas)
	return facturas, nil
}

// reconciliarCacheadas refresca estado y productos de cada factura cacheada
// con una consulta ligera por comprobante. El fallo de una consulta conserva
// la copia original (sin fallo global).
func (uc *UseCase) reconciliarCacheadas(ctx context.Context, enCache []entity.Factura) []entity.Factura {
	actualizadas := make([]entity.Factura, 0, len(enCache))
	for _, f := range enCache {
		ui, err := uc.backend.ObtenerFacturaUI(ctx, f.NumeroComprobante())
		if err != nil {
			actualizadas = append(actualizadas, f)
			continue
		}
		f.Estado = entity.Estado(ui.Factura.Estado)
		if len(ui.Factura.Detalles) > 0 {
			f.Productos = productosDesdeDetalles(ui.Factura.Detalles)
		}
		actualizadas = append(actualizadas, f)
	}
	return actualizadas
}

// parsearListado convierte el resultado del proxy SUNAT en Facturas,
// preservando identidad local y encolando el alta de comprobantes que el
// backend no conoce.
func (uc *UseCase) parsearListado(ctx context.Context, resultados []dto.ListadoResultado, dir entity.Direccion) []entity.Factura {
	existentes := uc.store.Todas()
	idCounter := uc.store.MaxID() + 1

	var facturas []entity.Factura
	var paraRegistrar []dto.RegistrarDesdeSunatRequest

	for _, resultado := range resultados {
		for _, item := range resultado.Contenido {
			numeroComprobante := item.Serie + "-" + item.Numero
			estado := entity.EstadoConsultado
			var productos []entity.ProductoItem

			ui, err := uc.backend.ObtenerFacturaUI(ctx, numeroComprobante)
			if err == nil {
				estado = entity.Estado(ui.Factura.Estado)
				if len(ui.Factura.Detalles) > 0 {
					productos = productosDesdeDetalles(ui.Factura.Detalles)
				}
			} else {
				// Desconocida para el backend: alta diferida con los campos
				// del listado.
				paraRegistrar = append(paraRegistrar, registroDesdeItem(item, dir))
			}

			contraparte := rucContraparte(item, dir)
			existente, hayExistente := buscarPorIdentidad(existentes, contraparte, item.Serie, item.Numero)

			id := idCounter
			if hayExistente {
				id = existente.ID
			} else {
				idCounter++
			}

			tipoCambio := sunat.FormatearTipoCambio(item.Moneda, item.TipoDeCambio)
			if item.TipoDeCambio == nil && hayExistente {
				tipoCambio = existente.TipoCambio
			}

			uc.store.GuardarRucEmisor(id, item.RucEmisor)

			f := entity.Factura{
				ID:            id,
				RUC:           contraparte,
				RazonSocial:   razonSocialContraparte(item, dir),
				Serie:         item.Serie,
				Numero:        item.Numero,
				FechaEmision:  item.FechaEmision,
				TipoDocumento: sunat.TipoDocumento(item.TipoCP),
				Moneda:        sunat.FormatearMoneda(item.Moneda),
				CostoTotal:    sunat.FormatearImporte(item.BaseGravada),
				IGV:           sunat.FormatearImporte(item.IGV),
				ImporteTotal:  sunat.FormatearImporte(item.Total),
				TipoCambio:    tipoCambio,
				Estado:        estado,
				Productos:     productos,
				Anio:          sunat.AnioDePeriodo(item.Periodo),
			}
			if hayExistente {
				f.Seleccionada = existente.Seleccionada
				if existente.Anio != "" {
					f.Anio = existente.Anio
				}
			}
			facturas = append(facturas, f)
		}
	}

	if len(paraRegistrar) > 0 {
		// Alta en segundo plano: los errores se acumulan en el slot de
		// mensajes sin abortar el listado.
		go uc.registrarPendientes(paraRegistrar)
	}

	sort.SliceStable(facturas, func(i, j int) bool {
		return tiempoEmision(facturas[i]) < tiempoEmision(facturas[j])
	})
	return facturas
}

func (uc *UseCase) registrarPendientes(pendientes []dto.RegistrarDesdeSunatRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(pendientes))*30*time.Second)
	defer cancel()
	for _, req := range pendientes {
		if _, err := uc.backend.RegistrarDesdeSunat(ctx, req); err != nil {
			uc.registrarError("Error al registrar algunas facturas: " + err.Error())
		}
	}
}

// ── helpers de parseo ────────────────────────────────────────────────────────

// rucContraparte devuelve el RUC de la contraparte del comprobante: el emisor
// en compras (proveedor), el receptor en ventas (cliente).
func rucContraparte(item dto.ComprobanteItem, dir entity.Direccion) string {
	if dir == entity.DireccionCompras {
		return item.RucEmisor
	}
	return item.NroDocReceptor
}

// razonSocialContraparte nombre de la contraparte, análogo a rucContraparte.
func razonSocialContraparte(item dto.ComprobanteItem, dir entity.Direccion) string {
	if dir == entity.DireccionCompras {
		return item.RazonSocialEmisor
	}
	return item.NombreReceptor
}

func registroDesdeItem(item dto.ComprobanteItem, dir entity.Direccion) dto.RegistrarDesdeSunatRequest {
	return dto.RegistrarDesdeSunatRequest{
		RucEmisor:     item.RucEmisor,
		Serie:         item.Serie,
		Numero:        item.Numero,
		FechaEmision:  item.FechaEmision,
		RazonSocial:   razonSocialContraparte(item, dir),
		TipoDocumento: sunat.TipoDocumento(item.TipoCP),
		Moneda:        sunat.FormatearMoneda(item.Moneda),
		CostoTotal:    sunat.FormatearImporte(item.BaseGravada),
		IGV:           sunat.FormatearImporte(item.IGV),
		ImporteTotal:  sunat.FormatearImporte(item.Total),
		UsuarioID:     1,
	}
}

// buscarPorIdentidad busca por la terna durable (RUC, Serie, Numero).
func buscarPorIdentidad(facturas []entity.Factura, ruc, serie, numero string) (entity.Factura, bool) {
	for _, f := range facturas {
		if f.RUC == ruc && f.Serie == serie && f.Numero == numero {
			return f, true
		}
	}
	return entity.Factura{}, false
}

func productosDesdeDetalles(detalles []dto.DetalleRegistrado) []entity.ProductoItem {
	productos := make([]entity.ProductoItem, len(detalles))
	for i, d := range detalles {
		productos[i] = entity.ProductoItem{
			Descripcion:   d.Descripcion,
			Cantidad:      d.Cantidad,
			CostoUnitario: d.CostoUnitario,
			UnidadMedida:  d.UnidadMedida,
		}
	}
	return productos
}

// tiempoEmision fecha de emisión en epoch para ordenar; fechas ilegibles van
// al inicio (0).
func tiempoEmision(f entity.Factura) int64 {
	t, err := sunat.ParsearFecha(f.FechaEmision)
	if err != nil {
		return 0
	}
	return t.Unix()
}
