package sunat

import (
	"fmt"
	"time"
)

// FormatoFecha es el formato de fecha de emisión que maneja toda la aplicación.
const FormatoFecha = "02/01/2006"

// zonaLima zona horaria de referencia para períodos tributarios.
var zonaLima = mustLoadLima()

func mustLoadLima() *time.Location {
	loc, err := time.LoadLocation("America/Lima")
	if err != nil {
		// Lima no tiene horario de verano; UTC-5 fijo como respaldo.
		return time.FixedZone("America/Lima", -5*60*60)
	}
	return loc
}

// ZonaLima devuelve la zona horaria tributaria (America/Lima).
func ZonaLima() *time.Location {
	return zonaLima
}

// Periodo convierte una fecha al período tributario yyyyMM en hora de Lima.
func Periodo(t time.Time) string {
	t = t.In(zonaLima)
	return fmt.Sprintf("%04d%02d", t.Year(), int(t.Month()))
}

// AnioDePeriodo extrae el año de un período yyyyMM ("202501" -> "2025").
func AnioDePeriodo(periodo string) string {
	if len(periodo) < 4 {
		return periodo
	}
	return periodo[:4]
}

// ParsearFecha interpreta una fecha dd/mm/yyyy en hora de Lima.
func ParsearFecha(s string) (time.Time, error) {
	return time.ParseInLocation(FormatoFecha, s, zonaLima)
}

// FormatearFecha devuelve la fecha en dd/mm/yyyy (hora de Lima).
func FormatearFecha(t time.Time) string {
	return t.In(zonaLima).Format(FormatoFecha)
}
