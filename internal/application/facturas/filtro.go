package facturas

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/contasol/sunat-registro/internal/domain"
	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/pkg/sunat"
)

// FacturasFiltradas devuelve la colección filtrada por rango de fechas de
// emisión (ambos extremos inclusivos, formato dd/mm/yyyy, cadena vacía =
// extremo abierto), ordenada descendente: lo más reciente primero.
func (uc *UseCase) FacturasFiltradas(dir entity.Direccion, desde, hasta string) ([]entity.Factura, error) {
	if !dir.Valida() {
		return nil, domain.ErrEntradaInvalida
	}

	desdeU := int64(math.MinInt64)
	hastaU := int64(math.MaxInt64)
	if strings.TrimSpace(desde) != "" {
		t, err := sunat.ParsearFecha(desde)
		if err != nil {
			return nil, domain.ErrEntradaInvalida
		}
		desdeU = t.Unix()
	}
	if strings.TrimSpace(hasta) != "" {
		t, err := sunat.ParsearFecha(hasta)
		if err != nil {
			return nil, domain.ErrEntradaInvalida
		}
		// Extremo superior inclusivo: se corre al final del día.
		hastaU = t.Add(24*time.Hour - time.Second).Unix()
	}

	var filtradas []entity.Factura
	for _, f := range uc.store.Listar(dir) {
		u := tiempoEmision(f)
		if u < desdeU || u > hastaU {
			continue
		}
		filtradas = append(filtradas, f)
	}
	sort.SliceStable(filtradas, func(i, j int) bool {
		return tiempoEmision(filtradas[i]) > tiempoEmision(filtradas[j])
	})
	return filtradas, nil
}
