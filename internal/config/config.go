package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DBDSN          string
	LogFile        string
	VariantCacheMS int
}

func Load() Config {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "vendora.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./vendora.log"
	}
	cacheMS := 30_000
	if v := os.Getenv("VARIANT_CACHE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cacheMS = n
		}
	}

	cfg := Config{Port: port, DBDSN: dsn, LogFile: logFile, VariantCacheMS: cacheMS}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s VARIANT_CACHE_MS=%d", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.VariantCacheMS)
	return cfg
}
