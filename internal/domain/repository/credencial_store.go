package repository

import "github.com/contasol/sunat-registro/internal/domain/entity"

// CredencialStore define el puerto del almacén de credenciales SOL.
// La clave SOL debe guardarse ofuscada en reposo.
type CredencialStore interface {
	Guardar(creds entity.Credenciales) error
	// Obtener devuelve las credenciales guardadas; ok=false si no hay sesión.
	Obtener() (creds entity.Credenciales, ok bool)
	Limpiar()
}
