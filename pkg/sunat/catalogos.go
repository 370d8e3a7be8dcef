// Package sunat contiene catálogos y helpers de normalización alineados a los
// comprobantes electrónicos de SUNAT (Perú): tipos de comprobante, monedas,
// unidades de medida e importes.
package sunat

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Tipos de Comprobante de Pago (Catálogo 01 SUNAT) - códigos de uso frecuente
// =============================================================================

const (
	TipoCPFactura = "01" // Factura
	TipoCPBoleta  = "03" // Boleta de venta
)

// Etiquetas de tipo de documento que maneja la aplicación.
const (
	DocFactura   = "FACTURA"
	DocBoleta    = "BOLETA"
	DocGenerico  = "DOCUMENTO"
)

// TipoDocumento traduce el código de tipo de comprobante (Catálogo 01) a la
// etiqueta usada en la aplicación. Códigos desconocidos se reportan como
// DOCUMENTO genérico.
func TipoDocumento(tipoCP string) string {
	switch tipoCP {
	case TipoCPFactura:
		return DocFactura
	case TipoCPBoleta:
		return DocBoleta
	default:
		return DocGenerico
	}
}

// =============================================================================
// Monedas (ISO 4217 restringido a las que opera SUNAT en el registro de compras)
// =============================================================================

const (
	MonedaPEN = "PEN"
	MonedaUSD = "USD"

	EtiquetaSoles   = "Soles (PEN)"
	EtiquetaDolares = "Dólares (USD)"
)

// EsMonedaDolares detecta variantes libres de "dólares" en textos de origen
// (USD, Dólar, Dolar, US$, U$).
func EsMonedaDolares(moneda string) bool {
	upper := strings.ToUpper(moneda)
	return strings.Contains(upper, "USD") ||
		strings.Contains(upper, "DÓLAR") ||
		strings.Contains(upper, "DOLAR") ||
		strings.Contains(moneda, "US$") ||
		strings.Contains(moneda, "U$")
}

// EsMonedaSoles detecta variantes libres de "soles" (SOL, PEN, S/).
func EsMonedaSoles(moneda string) bool {
	upper := strings.ToUpper(moneda)
	return strings.Contains(upper, "SOLES") ||
		strings.Contains(upper, "SOL") ||
		strings.Contains(upper, "PEN") ||
		strings.Contains(moneda, "S/")
}

// FormatearMoneda normaliza cualquier variante a la etiqueta canónica de la
// aplicación. Monedas no reconocidas se devuelven sin cambios.
func FormatearMoneda(moneda string) string {
	switch {
	case EsMonedaSoles(moneda):
		return EtiquetaSoles
	case EsMonedaDolares(moneda):
		return EtiquetaDolares
	default:
		return moneda
	}
}

// =============================================================================
// Unidades de Medida - normalización de los textos libres que devuelve el
// scraping del XML (el emisor escribe "KILOS", "Kgs", "UND", etc.)
// =============================================================================

var unidades = map[string]string{
	"KILO": "Kg", "KILOS": "Kg", "KILOGRAMO": "Kg", "KILOGRAMOS": "Kg", "KG": "Kg", "KGS": "Kg",
	"GRAMO": "Gr", "GRAMOS": "Gr", "GR": "Gr", "GRS": "Gr", "G": "Gr",
	"LITRO": "Lt", "LITROS": "Lt", "L": "Lt", "LT": "Lt", "LTS": "Lt",
	"UNIDAD": "UN", "UNIDADES": "UN", "UN": "UN", "UND": "UN", "UNDS": "UN", "NIU": "UN",
	"METRO": "M", "METROS": "M", "M": "M", "MT": "M", "MTS": "M",
	"CENTIMETRO": "Cm", "CENTIMETROS": "Cm", "CM": "Cm", "CMS": "Cm",
	"MILIMETRO": "Mm", "MILIMETROS": "Mm", "MM": "Mm", "MMS": "Mm",
	"PAQUETE": "Pq", "PAQUETES": "Pq", "PQ": "Pq", "PQT": "Pq", "PQTS": "Pq",
	"CAJA": "Bx", "CAJAS": "Bx", "CJ": "Bx", "CJA": "Bx", "CJAS": "Bx",
	"GALON": "Gal", "US GALON": "Gal", "GALONES": "Gal", "GAL": "Gal", "GALS": "Gal",
	"CASE": "Cs", "CS": "Cs",
}

// FormatearUnidadMedida normaliza la unidad y la concatena a la cantidad
// ("2.5", "KILOS" -> "2.5 Kg"). Si la unidad está en blanco devuelve solo la
// cantidad.
func FormatearUnidadMedida(cantidad, unidad string) string {
	normalizada, ok := unidades[strings.ToUpper(strings.TrimSpace(unidad))]
	if !ok {
		normalizada = strings.TrimSpace(unidad)
	}
	if normalizada == "" {
		return cantidad
	}
	return cantidad + " " + normalizada
}

// =============================================================================
// Importes
// =============================================================================

var montoRe = regexp.MustCompile(`[^0-9.]`)

// LimpiarMonto elimina símbolos de moneda, separadores de miles y cualquier
// carácter no numérico de un importe en texto libre.
func LimpiarMonto(texto string) string {
	return montoRe.ReplaceAllString(texto, "")
}

// FormatearImporte redondea a 2 decimales con formato fijo ("118", -> "118.00").
func FormatearImporte(valor float64) string {
	return decimal.NewFromFloat(valor).StringFixed(2)
}

// ParsearImporte convierte un importe-texto (posiblemente sucio) a decimal.
// Textos vacíos o ilegibles devuelven cero.
func ParsearImporte(texto string) decimal.Decimal {
	d, err := decimal.NewFromString(LimpiarMonto(texto))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatearTipoCambio devuelve el tipo de cambio con 2 decimales, o cadena
// vacía cuando la moneda es PEN con tipo de cambio 1.0 (no aplica conversión).
func FormatearTipoCambio(moneda string, tipoCambio *float64) string {
	if tipoCambio == nil {
		return ""
	}
	if moneda == MonedaPEN && *tipoCambio == 1.0 {
		return ""
	}
	return decimal.NewFromFloat(*tipoCambio).StringFixed(2)
}
