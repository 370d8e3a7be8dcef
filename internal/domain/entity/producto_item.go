package entity

// ProductoItem es una línea de detalle de una factura. No tiene identidad
// propia: pertenece por completo a su Factura y se reemplaza en bloque cuando
// se vuelve a extraer el detalle.
type ProductoItem struct {
	Descripcion   string `json:"descripcion"`
	Cantidad      string `json:"cantidad"`
	CostoUnitario string `json:"costoUnitario"`
	UnidadMedida  string `json:"unidadMedida"`
}
