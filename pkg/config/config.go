package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	JWT     JWTConfig
	Backend BackendConfig
	Sunat   SunatConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// HTTPConfig configuración del servidor HTTP propio.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig configuración de los tokens de sesión.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// BackendConfig configuración del backend contable (proxy SUNAT + base de datos remota).
// Los timeouts difieren por tipo de llamada: el listado y la extracción de
// detalle pasan por el scraping de SUNAT y pueden tardar más de un minuto;
// el resto son operaciones directas sobre la base de datos del backend.
type BackendConfig struct {
	BaseURL          string
	TimeoutListado   time.Duration // listado de comprobantes vía proxy SUNAT
	TimeoutDetalle   time.Duration // extracción de detalle (scraping del XML)
	TimeoutOperacion time.Duration // lecturas/escrituras directas en el backend
}

// SunatConfig parámetros del ciclo de vida de facturas.
type SunatConfig struct {
	AutoRegistroDelay time.Duration // espera tras CON DETALLE antes del registro automático
	DetalleTodasDelay time.Duration // pausa entre despachos de la operación "detalle todas"
	DetalleTodasMax   int           // despachos en paralelo de "detalle todas" (1 = secuencial)
	UsarCola          bool          // usar el flujo encolado (jobId + polling) en vez del síncrono
	PollIntervalo     time.Duration // intervalo de consulta del estado del job
	PollMaxIntentos   int           // intentos de polling antes de declarar timeout
	ClaveOfuscacion   string        // clave de 32 bytes (hex o texto) para ofuscar la clave SOL en reposo
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, HTTP_PORT, BACKEND_BASE_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	// También intenta config.env
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	// Bind de variables de entorno (Viper las lee automáticamente si AutomaticEnv está activo)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "sunat-registro"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 480),
			Issuer:     getString(v, "JWT_ISSUER", "sunat-registro"),
		},
		Backend: BackendConfig{
			BaseURL:          getString(v, "BACKEND_BASE_URL", "http://localhost:3000"),
			TimeoutListado:   getDuration(v, "BACKEND_TIMEOUT_LISTADO", 90*time.Second),
			TimeoutDetalle:   getDuration(v, "BACKEND_TIMEOUT_DETALLE", 90*time.Second),
			TimeoutOperacion: getDuration(v, "BACKEND_TIMEOUT_OPERACION", 15*time.Second),
		},
		Sunat: SunatConfig{
			AutoRegistroDelay: getDuration(v, "SUNAT_AUTOREGISTRO_DELAY", 10*time.Second),
			DetalleTodasDelay: getDuration(v, "SUNAT_DETALLE_TODAS_DELAY", 500*time.Millisecond),
			DetalleTodasMax:   getInt(v, "SUNAT_DETALLE_TODAS_MAX", 1),
			UsarCola:          v.GetBool("SUNAT_USAR_COLA"),
			PollIntervalo:     getDuration(v, "SUNAT_POLL_INTERVALO", 3*time.Second),
			PollMaxIntentos:   getInt(v, "SUNAT_POLL_MAX_INTENTOS", 30),
			ClaveOfuscacion:   getString(v, "SUNAT_CLAVE_OFUSCACION", ""),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		if d := v.GetDuration(key); d > 0 {
			return d
		}
	}
	return def
}
