package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/contasol/sunat-registro/pkg/jwt"
)

const (
	secret  = "test-secret-key-for-unit-tests"
	usuario = "MODDATOS"
	ruc     = "20601030013"
	issuer  = "sunat-registro-test"
)

func TestGenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, usuario, ruc, issuer, 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, rucParseado, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, usuario, userID)
	assert.Equal(t, ruc, rucParseado)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, usuario, ruc, issuer, -1)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse(secret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, usuario, ruc, issuer, 60)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err, "secret incorrecto debe invalidar el token")
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", usuario, ruc, issuer, 60)
	assert.Error(t, err)
}
