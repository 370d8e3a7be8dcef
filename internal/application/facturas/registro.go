package facturas

import (
	"context"
	"strings"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/domain"
	"github.com/contasol/sunat-registro/internal/domain/entity"
)

// RegistrarFacturas registra en la base de datos del backend las facturas
// indicadas. Solo son elegibles las que están en CON DETALLE con productos;
// las demás se ignoran con mensaje. El resultado del backend es por factura:
// las exitosas transicionan a REGISTRADO y las fallidas conservan su estado.
func (uc *UseCase) RegistrarFacturas(ctx context.Context, req dto.RegistrarFacturasUIRequest) (*dto.RegistrarFacturasUIResponse, error) {
	if !req.Tipo.Valida() {
		return nil, domain.ErrEntradaInvalida
	}

	var elegibles []entity.Factura
	var omitidas []string
	for _, id := range req.IDs {
		f, ok := uc.store.BuscarPorID(req.Tipo, id)
		if !ok {
			continue
		}
		if f.Estado != entity.EstadoConDetalle || len(f.Productos) == 0 {
			omitidas = append(omitidas, f.NumeroComprobante())
			continue
		}
		elegibles = append(elegibles, f)
	}
	if len(elegibles) == 0 {
		msg := "No hay facturas con detalle para registrar"
		if len(omitidas) > 0 {
			msg += ": " + strings.Join(omitidas, ", ")
		}
		return &dto.RegistrarFacturasUIResponse{Success: false, Message: msg}, nil
	}

	peticion := dto.RegistroFacturasRequest{Facturas: make([]dto.FacturaParaRegistrar, len(elegibles))}
	for i, f := range elegibles {
		peticion.Facturas[i] = uc.paraRegistro(f)
	}

	resp, err := uc.backend.RegistrarFacturas(ctx, peticion)
	if err != nil {
		uc.registrarError("Error al registrar facturas: " + err.Error())
		return nil, err
	}

	registradas := 0
	var fallidas []string
	for _, r := range resp.Resultados {
		if r.Success {
			uc.ActualizarEstado(req.Tipo, r.ID, entity.EstadoRegistrado)
			registradas++
		} else {
			fallidas = append(fallidas, r.NumeroComprobante)
		}
	}

	out := &dto.RegistrarFacturasUIResponse{Success: len(fallidas) == 0, Registradas: registradas}
	if len(fallidas) > 0 {
		out.Message = "No se pudieron registrar: " + strings.Join(fallidas, ", ")
		uc.registrarError(out.Message)
	} else {
		out.Message = "Facturas registradas exitosamente"
	}
	uc.log.Info().
		Str("tipo", string(req.Tipo)).
		Int("registradas", registradas).
		Int("fallidas", len(fallidas)).
		Msg("registro de facturas finalizado")
	return out, nil
}

// registrarUna registra una sola factura; la usa el registro automático. El
// fallo no revierte el estado CON DETALLE: la factura queda disponible para
// un registro manual posterior.
func (uc *UseCase) registrarUna(ctx context.Context, dir entity.Direccion, factura entity.Factura) error {
	peticion := dto.RegistroFacturasRequest{
		Facturas: []dto.FacturaParaRegistrar{uc.paraRegistro(factura)},
	}
	resp, err := uc.backend.RegistrarFacturas(ctx, peticion)
	if err != nil {
		return err
	}
	for _, r := range resp.Resultados {
		if r.ID == factura.ID && r.Success {
			uc.ActualizarEstado(dir, factura.ID, entity.EstadoRegistrado)
			return nil
		}
	}
	return domain.ErrBackendNoDisponible
}

// paraRegistro convierte una factura local al formato de registro del backend.
func (uc *UseCase) paraRegistro(f entity.Factura) dto.FacturaParaRegistrar {
	rucEmisor := f.RUC
	if ruc, ok := uc.store.RucEmisor(f.ID); ok {
		rucEmisor = ruc
	}
	productos := make([]dto.ProductoParaRegistrar, len(f.Productos))
	for i, p := range f.Productos {
		productos[i] = dto.ProductoParaRegistrar{
			Descripcion:   p.Descripcion,
			Cantidad:      p.Cantidad,
			CostoUnitario: p.CostoUnitario,
			UnidadMedida:  p.UnidadMedida,
		}
	}
	return dto.FacturaParaRegistrar{
		ID:            f.ID,
		RucEmisor:     rucEmisor,
		Serie:         f.Serie,
		Numero:        f.Numero,
		FechaEmision:  f.FechaEmision,
		RazonSocial:   f.RazonSocial,
		TipoDocumento: f.TipoDocumento,
		Moneda:        f.Moneda,
		CostoTotal:    f.CostoTotal,
		IGV:           f.IGV,
		ImporteTotal:  f.ImporteTotal,
		Productos:     productos,
	}
}
