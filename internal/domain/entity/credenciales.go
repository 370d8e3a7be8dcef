package entity

// Credenciales son las credenciales SOL del contribuyente, requeridas por el
// backend para el listado y la extracción de detalle.
type Credenciales struct {
	RUC      string
	Usuario  string
	ClaveSol string
}

// Completas indica si los tres campos están presentes.
func (c Credenciales) Completas() bool {
	return c.RUC != "" && c.Usuario != "" && c.ClaveSol != ""
}
