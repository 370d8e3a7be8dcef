package backend

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/pkg/logger"
)

// completarItemsDesdeXML recupera las líneas de detalle parseando el XML UBL
// crudo cuando el backend devolvió cero items pero sí conserva el archivo.
// Algunos emisores producen XML que el parser del backend no entiende; el
// comprobante UBL en sí casi siempre es legible.
func completarItemsDesdeXML(out *dto.DetalleXMLResponse, log *logger.Logger) {
	if out == nil || len(out.Items) > 0 || strings.TrimSpace(out.ArchivoXml) == "" {
		return
	}
	items, err := parsearLineasUBL(out.ArchivoXml)
	if err != nil {
		log.Warn().Err(err).Str("comprobante", out.ID).Msg("fallback UBL: no se pudo parsear el XML")
		return
	}
	if len(items) > 0 {
		log.Info().Str("comprobante", out.ID).Int("items", len(items)).Msg("detalle recuperado desde el XML UBL")
		out.Items = items
	}
}

// parsearLineasUBL extrae las cac:InvoiceLine de un comprobante UBL:
// cantidad y unidad de cbc:InvoicedQuantity, descripción de
// cac:Item/cbc:Description y valor unitario de cac:Price/cbc:PriceAmount.
func parsearLineasUBL(archivoXml string) ([]dto.ItemXML, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(archivoXml); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, nil
	}

	var items []dto.ItemXML
	for _, line := range root.FindElements("//InvoiceLine") {
		var it dto.ItemXML

		if qty := line.FindElement("InvoicedQuantity"); qty != nil {
			it.Cantidad, _ = strconv.ParseFloat(strings.TrimSpace(qty.Text()), 64)
			it.Unidad = qty.SelectAttrValue("unitCode", "")
		}
		if desc := line.FindElement("Item/Description"); desc != nil {
			it.Descripcion = strings.TrimSpace(desc.Text())
		}
		if precio := line.FindElement("Price/PriceAmount"); precio != nil {
			it.ValorUnitario, _ = strconv.ParseFloat(strings.TrimSpace(precio.Text()), 64)
		}
		if codigo := line.FindElement("Item/SellersItemIdentification/ID"); codigo != nil {
			it.Codigo = strings.TrimSpace(codigo.Text())
		}

		// Líneas sin descripción ni cantidad no aportan nada a la UI.
		if it.Descripcion == "" && it.Cantidad == 0 {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
