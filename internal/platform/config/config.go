package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config junta todo lo configurable por env en un solo lugar.
type Config struct {
	Port      string
	AppName   string
	LogLevel  string
	LogFormat string

	// DB_DSN vacío => repos in-memory (modo dev)
	DBDSN string

	// Capacidad
	DefaultMaxCapacity int
	LowWaterRatio      float64 // fracción de cupo restante bajo la cual el día pasa a "limited"

	// Política de cancelación
	CancelCutoffDays        int
	LateCancelRefundPercent int

	// Umbral para la alerta de créditos bajos
	LowCreditThreshold int
}

// Load lee .env (si existe) y después el environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:      getEnv("PORT", "8080"),
		AppName:   getEnv("APP_NAME", "pet-daycare-portal"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DBDSN: getEnv("DB_DSN", ""),

		DefaultMaxCapacity: getEnvAsInt("DEFAULT_MAX_CAPACITY", 20),
		LowWaterRatio:      getEnvAsFloat("LOW_WATER_RATIO", 0.2),

		CancelCutoffDays:        getEnvAsInt("CANCEL_CUTOFF_DAYS", 2),
		LateCancelRefundPercent: getEnvAsInt("LATE_CANCEL_REFUND_PERCENT", 50),

		LowCreditThreshold: getEnvAsInt("LOW_CREDIT_THRESHOLD", 3),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getEnvAsFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return def
}
