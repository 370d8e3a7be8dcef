package facturas

import (
	"sort"
	"strings"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/domain"
	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/pkg/sunat"
)

// CrearFacturaCompra agrega una factura manual a la colección de compras.
// Si ya trae productos nace directamente en CON DETALLE; si no, en
// CONSULTADO para habilitar la extracción. La lista mantiene el orden
// ascendente por fecha de emisión.
func (uc *UseCase) CrearFacturaCompra(req dto.CrearFacturaRequest) (*entity.Factura, error) {
	ruc := strings.TrimSpace(req.RUC)
	serie := strings.TrimSpace(req.Serie)
	numero := strings.TrimSpace(req.Numero)
	if ruc == "" || serie == "" || numero == "" || strings.TrimSpace(req.FechaEmision) == "" {
		return nil, domain.ErrEntradaInvalida
	}
	if _, err := sunat.ParsearFecha(req.FechaEmision); err != nil {
		return nil, domain.ErrEntradaInvalida
	}

	// Si la terna ya existe no se duplica.
	for _, f := range uc.store.Listar(entity.DireccionCompras) {
		if f.RUC == ruc && f.Serie == serie && f.Numero == numero {
			return nil, domain.ErrEstadoInvalido
		}
	}

	estado := entity.EstadoConsultado
	if len(req.Productos) > 0 {
		estado = entity.EstadoConDetalle
	}

	anio := req.Anio
	if anio == "" {
		if t, err := sunat.ParsearFecha(req.FechaEmision); err == nil {
			anio = t.Format("2006")
		}
	}

	factura := entity.Factura{
		ID:            uc.store.MaxID() + 1,
		RUC:           ruc,
		RazonSocial:   req.RazonSocial,
		Serie:         serie,
		Numero:        numero,
		FechaEmision:  req.FechaEmision,
		TipoDocumento: req.TipoDocumento,
		Anio:          anio,
		Moneda:        req.Moneda,
		CostoTotal:    req.CostoTotal,
		IGV:           req.IGV,
		TipoCambio:    req.TipoCambio,
		ImporteTotal:  req.ImporteTotal,
		Estado:        estado,
		Productos:     req.Productos,
	}

	uc.store.Actualizar(entity.DireccionCompras, func(facturas []entity.Factura) []entity.Factura {
		facturas = append(facturas, factura)
		sort.SliceStable(facturas, func(i, j int) bool {
			return tiempoEmision(facturas[i]) < tiempoEmision(facturas[j])
		})
		return facturas
	})
	uc.log.Info().
		Str("comprobante", factura.NumeroComprobante()).
		Str("estado", string(factura.Estado)).
		Msg("factura manual creada")
	return &factura, nil
}
