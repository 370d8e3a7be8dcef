package auth

import (
	"context"
	"strings"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/application/ports"
	"github.com/contasol/sunat-registro/internal/domain"
	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/internal/domain/repository"
	"github.com/contasol/sunat-registro/pkg/config"
	"github.com/contasol/sunat-registro/pkg/jwt"
	"github.com/contasol/sunat-registro/pkg/logger"
)

// AuthUseCase valida las credenciales SOL contra el backend y mantiene la
// sesión: credenciales en el almacén (clave ofuscada en reposo) y token JWT
// para el resto de endpoints.
type AuthUseCase struct {
	creds   repository.CredencialStore
	backend ports.BackendService
	jwtCfg  config.JWTConfig
	log     *logger.Logger
}

// New construye el caso de uso de autenticación.
func New(creds repository.CredencialStore, backend ports.BackendService, jwtCfg config.JWTConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{creds: creds, backend: backend, jwtCfg: jwtCfg, log: log}
}

// Login valida el RUC, usuario y clave SOL contra SUNAT (vía backend), guarda
// las credenciales y emite el token de sesión. Credenciales rechazadas no se
// guardan.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	credenciales := entity.Credenciales{
		RUC:      strings.TrimSpace(in.RUC),
		Usuario:  strings.TrimSpace(in.Usuario),
		ClaveSol: in.ClaveSol,
	}
	if !credenciales.Completas() {
		return nil, domain.ErrCredencialesRequeridas
	}

	resp, err := uc.backend.ValidarCredenciales(ctx, dto.ValidarCredencialesRequest{
		RUC:      credenciales.RUC,
		Usuario:  credenciales.Usuario,
		ClaveSol: credenciales.ClaveSol,
	})
	if err != nil {
		uc.log.Error().Err(err).Str("ruc", credenciales.RUC).Msg("validación de credenciales falló")
		return nil, domain.ErrBackendNoDisponible
	}
	if !resp.Valido {
		uc.log.Warn().Str("ruc", credenciales.RUC).Msg("credenciales SOL rechazadas")
		return nil, domain.ErrCredencialesInvalidas
	}

	if err := uc.creds.Guardar(credenciales); err != nil {
		return nil, err
	}

	token, err := jwt.Generate(uc.jwtCfg.Secret, credenciales.Usuario, credenciales.RUC, uc.jwtCfg.Issuer, uc.jwtCfg.Expiration)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("ruc", credenciales.RUC).Msg("sesión iniciada")
	return &dto.LoginResponse{
		Token:   token,
		RUC:     credenciales.RUC,
		Usuario: credenciales.Usuario,
		Mensaje: "Credenciales validadas correctamente",
	}, nil
}
