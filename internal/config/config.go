package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppPort        = "8080"
	defaultAppEnv         = "development"
	defaultGatewayTimeout = 10 * time.Second
	defaultCORSOrigin     = "http://localhost:3000"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	MidtransServerKey       string
	MidtransIsProduction    bool
	MidtransVerifySignature bool
	GatewayTimeout          time.Duration

	// LenientPaymentVerification lets an order be confirmed when the gateway
	// cannot be reached. Off unless PAYMENT_VERIFICATION_LENIENT is set.
	LenientPaymentVerification bool

	InternalSecretKey string
	CORSAllowedOrigin string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	appEnv := getenv("APP_ENV", defaultAppEnv)

	cfg := &Config{
		DBHost:            os.Getenv("DB_HOST"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            os.Getenv("DB_PORT"),
		AppPort:           getenv("APP_PORT", defaultAppPort),
		AppEnv:            appEnv,
		JWTSecret:         os.Getenv("JWT_SECRET"),
		MidtransServerKey: os.Getenv("MIDTRANS_SERVER_KEY"),
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
		CORSAllowedOrigin: getenv("CORS_ALLOWED_ORIGIN", defaultCORSOrigin),

		MidtransIsProduction:       getbool("MIDTRANS_IS_PRODUCTION", appEnv == "production"),
		MidtransVerifySignature:    getbool("MIDTRANS_VERIFY_SIGNATURE", false),
		LenientPaymentVerification: getbool("PAYMENT_VERIFICATION_LENIENT", false),
		GatewayTimeout:             getduration("GATEWAY_TIMEOUT", defaultGatewayTimeout),
	}

	if cfg.DBHost == "" {
		return nil, errors.New("environment variables not loaded properly: DB_HOST is empty")
	}

	return cfg, nil
}

// MustLoadConfig terminates the process when the configuration is incomplete.
func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
