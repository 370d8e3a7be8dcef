package facturas

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/domain"
	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/pkg/sunat"
)

// ObtenerDetalle ejecuta la máquina de estados de extracción de detalle para
// una factura:
//
//	CONSULTADO -> EN PROCESO -> CON DETALLE
//
// La transición a EN PROCESO es optimista; cualquier fallo posterior revierte
// al estado previo a la llamada (nunca queda una factura atascada en
// EN PROCESO sin tarea que la complete). La guarda de duplicados se evalúa
// sobre el estado local antes del despacho.
func (uc *UseCase) ObtenerDetalle(ctx context.Context, dir entity.Direccion, facturaID int) (*dto.DetalleResponse, error) {
	creds, ok := uc.creds.Obtener()
	if !ok || !creds.Completas() {
		uc.registrarError("Complete sus credenciales SUNAT primero")
		return nil, domain.ErrCredencialesRequeridas
	}

	factura, ok := uc.store.BuscarPorID(dir, facturaID)
	if !ok {
		return nil, domain.ErrFacturaNoEncontrada
	}

	switch factura.Estado {
	case entity.EstadoConDetalle, entity.EstadoRegistrado:
		if len(factura.Productos) > 0 {
			return &dto.DetalleResponse{Success: true, Message: "Detalles ya cargados", Estado: factura.Estado}, nil
		}
		return nil, domain.ErrDetalleNoDisponible
	case entity.EstadoEnProceso:
		// Guarda de duplicados: no-op idempotente, sin efectos.
		return nil, domain.ErrEnProceso
	}

	estadoPrevio := factura.Estado
	uc.ActualizarEstado(dir, facturaID, entity.EstadoEnProceso)

	resp, err := uc.extraerYPersistir(ctx, dir, factura, creds)
	if err != nil {
		// Rollback explícito del estado optimista.
		uc.ActualizarEstado(dir, facturaID, estadoPrevio)
		return nil, err
	}
	return resp, nil
}

// extraerYPersistir corre los pasos secuenciales de la extracción: asegurar
// existencia en el backend, despachar la extracción, persistir las líneas y
// confirmar la transición local.
func (uc *UseCase) extraerYPersistir(ctx context.Context, dir entity.Direccion, factura entity.Factura, creds entity.Credenciales) (*dto.DetalleResponse, error) {
	numeroComprobante := factura.NumeroComprobante()

	// 1. Asegurar que el backend conoce el comprobante.
	if err := uc.backend.VerificarFacturaRegistrada(ctx, numeroComprobante); err != nil {
		alta := dto.RegistrarDesdeSunatRequest{
			RucEmisor:     uc.rucEmisorDe(factura, dir, creds),
			Serie:         factura.Serie,
			Numero:        factura.Numero,
			FechaEmision:  factura.FechaEmision,
			RazonSocial:   factura.RazonSocial,
			TipoDocumento: factura.TipoDocumento,
			Moneda:        factura.Moneda,
			CostoTotal:    factura.CostoTotal,
			IGV:           factura.IGV,
			ImporteTotal:  factura.ImporteTotal,
			UsuarioID:     1,
		}
		if _, err := uc.backend.RegistrarDesdeSunat(ctx, alta); err != nil {
			uc.registrarError("Error al obtener detalles: " + err.Error())
			return nil, fmt.Errorf("alta previa del comprobante: %w", err)
		}
	}

	// 2. Despachar la extracción. El emisor es la contraparte en compras y
	// uno mismo en ventas; el receptor, a la inversa.
	req := dto.DetalleFacturaRequest{
		Serie:     factura.Serie,
		Numero:    factura.Numero,
		RequestID: uuid.NewString(),
	}
	if dir == entity.DireccionCompras {
		req.RucEmisor = factura.RUC
		req.RUC = creds.RUC
	} else {
		req.RucEmisor = creds.RUC
		req.RUC = factura.RUC
	}
	req.UsuarioSol = creds.Usuario
	req.ClaveSol = creds.ClaveSol

	detalle, err := uc.despacharExtraccion(ctx, req)
	if err != nil {
		uc.registrarError("Error al obtener detalles: " + err.Error())
		return nil, err
	}
	if len(detalle.Items) == 0 {
		uc.registrarError("El XML no contiene detalles de productos")
		return nil, domain.ErrSinDetalle
	}

	// 3. Reemplazo en bloque de las líneas locales.
	productos := productosDesdeItems(detalle.Items)
	uc.actualizarProductos(dir, factura.ID, productos)

	// 4. Persistir en el backend. El guardado de líneas se tolera fallido
	// (el marcado de completado reenvía los productos); el marcado fallido
	// se reporta sin deshacer el detalle ya obtenido.
	backendProductos := productosBackend(detalle.Items)
	if _, err := uc.backend.GuardarProductos(ctx, numeroComprobante, dto.GuardarProductosRequest{Productos: backendProductos}); err != nil {
		uc.log.Warn().Err(err).Str("comprobante", numeroComprobante).Msg("guardar productos falló")
	}
	if _, err := uc.backend.MarcarScrapingCompletado(ctx, numeroComprobante, dto.ScrapingCompletadoRequest{Productos: backendProductos}); err != nil {
		uc.registrarError("Detalles obtenidos, pero error al guardar en servidor")
	}

	// 5. Confirmar CON DETALLE, salvo que otra vía ya la haya promovido a
	// REGISTRADO (no se regresa un estado terminal).
	if actual, ok := uc.store.BuscarPorID(dir, factura.ID); ok && actual.Estado != entity.EstadoRegistrado {
		uc.ActualizarEstado(dir, factura.ID, entity.EstadoConDetalle)
	}

	return &dto.DetalleResponse{
		Success: true,
		Message: "Detalles obtenidos y guardados exitosamente",
		Estado:  entity.EstadoConDetalle,
	}, nil
}

// despacharExtraccion elige el flujo síncrono o el encolado según config.
func (uc *UseCase) despacharExtraccion(ctx context.Context, req dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
	if !uc.cfg.UsarCola {
		return uc.backend.ObtenerDetalleXML(ctx, req)
	}

	encolado, err := uc.backend.EncolarDetalle(ctx, req)
	if err != nil {
		return nil, err
	}
	if !encolado.Success || encolado.JobID == "" {
		return nil, fmt.Errorf("encolar extracción: %s", encolado.Message)
	}
	uc.log.Debug().Str("job", encolado.JobID).Msg("extracción encolada")

	// Polling del job hasta completed/failed o agotamiento de intentos.
	for intento := 0; intento < uc.cfg.PollMaxIntentos; intento++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(uc.cfg.PollIntervalo):
		}

		estado, err := uc.backend.EstadoJob(ctx, encolado.JobID)
		if err != nil {
			// Fallo transitorio de la consulta; el job sigue corriendo.
			continue
		}
		switch estado.State {
		case "completed":
			if estado.Result == nil {
				return nil, domain.ErrSinDetalle
			}
			return estado.Result, nil
		case "failed":
			if estado.Reason != "" {
				return nil, fmt.Errorf("extracción fallida: %s", estado.Reason)
			}
			return nil, errors.New("extracción fallida")
		}
	}
	return nil, fmt.Errorf("extracción sin respuesta tras %d consultas del job %s", uc.cfg.PollMaxIntentos, encolado.JobID)
}

// rucEmisorDe resuelve el RUC emisor para el alta: primero el mapa de
// emisores del listado; si la factura es manual, la contraparte en compras o
// uno mismo en ventas.
func (uc *UseCase) rucEmisorDe(factura entity.Factura, dir entity.Direccion, creds entity.Credenciales) string {
	if ruc, ok := uc.store.RucEmisor(factura.ID); ok {
		return ruc
	}
	if dir == entity.DireccionCompras {
		return factura.RUC
	}
	return creds.RUC
}

// ── Detalle masivo ───────────────────────────────────────────────────────────

// ObtenerDetalleTodas recorre la lista filtrada y despacha el flujo de
// detalle por cada factura no terminal, con paralelismo acotado y pausa entre
// despachos para no saturar el backend. El fallo de una factura no aborta las
// demás; se devuelven conteos agregados.
func (uc *UseCase) ObtenerDetalleTodas(ctx context.Context, req dto.DetalleTodasRequest) (*dto.DetalleTodasResponse, error) {
	if !req.Tipo.Valida() {
		return nil, domain.ErrEntradaInvalida
	}
	filtradas, err := uc.FacturasFiltradas(req.Tipo, req.Desde, req.Hasta)
	if err != nil {
		return nil, err
	}

	resp := &dto.DetalleTodasResponse{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.DetalleTodasMax)

	for _, f := range filtradas {
		if !f.Estado.AdmiteDetalle() {
			resp.Omitidas++
			continue
		}
		facturaID := f.ID
		numero := f.NumeroComprobante()
		g.Go(func() error {
			if _, err := uc.ObtenerDetalle(gctx, req.Tipo, facturaID); err != nil {
				mu.Lock()
				resp.Fallidas++
				resp.Mensajes = append(resp.Mensajes, numero+": "+err.Error())
				mu.Unlock()
			} else {
				mu.Lock()
				resp.Exitosas++
				mu.Unlock()
			}
			// Pausa entre despachos del mismo worker.
			select {
			case <-gctx.Done():
			case <-time.After(uc.cfg.DetalleTodasDelay):
			}
			return nil
		})
	}
	_ = g.Wait()

	uc.log.Info().
		Int("exitosas", resp.Exitosas).
		Int("fallidas", resp.Fallidas).
		Int("omitidas", resp.Omitidas).
		Msg("detalle masivo finalizado")
	return resp, nil
}

// ── conversiones ─────────────────────────────────────────────────────────────

func productosDesdeItems(items []dto.ItemXML) []entity.ProductoItem {
	productos := make([]entity.ProductoItem, len(items))
	for i, it := range items {
		productos[i] = entity.ProductoItem{
			Descripcion:   it.Descripcion,
			Cantidad:      strconv.FormatFloat(it.Cantidad, 'f', -1, 64),
			CostoUnitario: sunat.FormatearImporte(it.ValorUnitario),
			UnidadMedida:  it.Unidad,
		}
	}
	return productos
}

func productosBackend(items []dto.ItemXML) []dto.ProductoBackend {
	productos := make([]dto.ProductoBackend, len(items))
	for i, it := range items {
		productos[i] = dto.ProductoBackend{
			Descripcion:   it.Descripcion,
			Cantidad:      it.Cantidad,
			CostoUnitario: it.ValorUnitario,
			UnidadMedida:  it.Unidad,
		}
	}
	return productos
}
