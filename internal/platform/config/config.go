package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AuthMode string

const (
	// AuthModeDev: sin verificador; el usuario llega por X-Debug-User-ID.
	AuthModeDev AuthMode = "dev"
	// AuthModeJWT: tokens HS256 firmados por el proveedor de identidad.
	AuthModeJWT AuthMode = "jwt"
	// AuthModeRemote: introspección del token contra el proveedor (HTTP).
	AuthModeRemote AuthMode = "remote"
)

type Config struct {
	Port string

	DBDSN string

	LogLevel  string
	LogFormat string
	AppName   string

	AuthMode  AuthMode
	JWTSecret string
	JWTIssuer string

	IdentityBaseURL string
	IdentityAPIKey  string
	IdentityTimeout time.Duration

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	MinioPublicBase string

	// BootstrapAdmins: user ids que reciben rol admin al crearse su perfil (coma separados).
	BootstrapAdmins []string
}

// Load lee .env si existe y después las variables de entorno.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),

		DBDSN: getEnv("DB_DSN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		AppName:   getEnv("APP_NAME", "apa-backoffice"),

		AuthMode:  AuthMode(strings.ToLower(getEnv("AUTH_MODE", string(AuthModeDev)))),
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		IdentityBaseURL: getEnv("IDENTITY_BASE_URL", ""),
		IdentityAPIKey:  getEnv("IDENTITY_API_KEY", ""),
		IdentityTimeout: getDuration("IDENTITY_TIMEOUT", 5*time.Second),

		MinioEndpoint:   getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getEnv("MINIO_BUCKET", "apa-images"),
		MinioUseSSL:     getBool("MINIO_USE_SSL", true),
		MinioPublicBase: getEnv("MINIO_PUBLIC_BASE_URL", ""),

		BootstrapAdmins: splitList(getEnv("BOOTSTRAP_ADMINS", "")),
	}
}

// ErrInvalid envuelve los errores de Validate.
var ErrInvalid = errors.New("invalid configuration")

// Validate rechaza valores que dejarían el servicio en un modo no pedido
// (p.ej. un AUTH_MODE mal escrito no cae en dev).
func (c Config) Validate() error {
	switch c.AuthMode {
	case AuthModeDev, AuthModeJWT, AuthModeRemote:
	default:
		return fmt.Errorf("%w: AUTH_MODE %q (want dev, jwt or remote)", ErrInvalid, c.AuthMode)
	}
	return nil
}

func (c Config) MinioConfigured() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
