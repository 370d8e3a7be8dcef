// Package credenciales implementa el almacén de credenciales SOL. La clave
// SOL se guarda ofuscada en reposo con NaCl secretbox; RUC y usuario se
// guardan en claro (no son secretos).
package credenciales

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/internal/domain/repository"
)

// Verificar en tiempo de compilación que Store implementa CredencialStore.
var _ repository.CredencialStore = (*Store)(nil)

// Store almacén en memoria de las credenciales de la sesión.
type Store struct {
	mu      sync.RWMutex
	clave   [32]byte
	ruc     string
	usuario string
	sellada []byte // clave SOL cifrada; nonce antepuesto
	activa  bool
}

// New construye el almacén. claveOfuscacion alimenta la derivación de la
// clave simétrica; si está vacía se usa una clave aleatoria por proceso
// (suficiente: el secreto nunca sale del proceso).
func New(claveOfuscacion string) *Store {
	s := &Store{}
	if claveOfuscacion != "" {
		s.clave = sha256.Sum256([]byte(claveOfuscacion))
	} else {
		if _, err := rand.Read(s.clave[:]); err != nil {
			// Sin entropía el proceso no puede operar con secretos.
			panic("credenciales: sin entropía del sistema: " + err.Error())
		}
	}
	return s
}

// Guardar sella la clave SOL y retiene RUC y usuario.
func (s *Store) Guardar(creds entity.Credenciales) error {
	if !creds.Completas() {
		return fmt.Errorf("credenciales incompletas")
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("credenciales: generar nonce: %w", err)
	}
	sellada := secretbox.Seal(nonce[:], []byte(creds.ClaveSol), &nonce, &s.clave)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruc = creds.RUC
	s.usuario = creds.Usuario
	s.sellada = sellada
	s.activa = true
	return nil
}

// Obtener devuelve las credenciales; ok=false si no hay sesión o la clave
// sellada no se puede abrir (clave de ofuscación cambiada).
func (s *Store) Obtener() (entity.Credenciales, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.activa || len(s.sellada) < 24 {
		return entity.Credenciales{}, false
	}
	var nonce [24]byte
	copy(nonce[:], s.sellada[:24])
	abierta, ok := secretbox.Open(nil, s.sellada[24:], &nonce, &s.clave)
	if !ok {
		return entity.Credenciales{}, false
	}
	return entity.Credenciales{
		RUC:      s.ruc,
		Usuario:  s.usuario,
		ClaveSol: string(abierta),
	}, true
}

// Limpiar borra las credenciales (logout).
func (s *Store) Limpiar() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruc = ""
	s.usuario = ""
	for i := range s.sellada {
		s.sellada[i] = 0
	}
	s.sellada = nil
	s.activa = false
}
