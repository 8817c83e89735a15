package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort         string
	DatabaseDSN      string
	JWTSecret        string
	CORSOrigins      string
	Timezone         string // Instance tarihlerinin gün sınırı bu bölgeye göre hesaplanır
	LogLevel         string
	LogFormat        string
	RedisAddress     string // Boşsa generator kilidi devre dışı
	StaleDaysDefault int
}

const defaultDSN = "host=localhost user=postgres password=postgres dbname=checklist port=5432 sslmode=disable"

func Load() *Config {
	// .env dosyası opsiyonel
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:      getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		Timezone:         getEnv("TIMEZONE", "Europe/Istanbul"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		RedisAddress:     getEnv("REDIS_ADDRESS", ""),
		StaleDaysDefault: getEnvInt("STALE_DAYS_DEFAULT", 7),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}

	return cfg
}

// Validate production için zorunlu alanları kontrol eder.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errString("JWT_SECRET environment değişkeni tanımlanmamış")
	}
	if len(c.JWTSecret) < 32 {
		return errString("JWT_SECRET en az 32 karakter olmalıdır")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errString("TIMEZONE geçersiz: " + c.Timezone)
	}
	if c.StaleDaysDefault <= 0 {
		return errString("STALE_DAYS_DEFAULT pozitif olmalıdır")
	}
	return nil
}

// Location gün sınırı hesaplarında kullanılan saat dilimi.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type errString string

func (e errString) Error() string { return string(e) }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s sayı değil (%q), varsayılan %d kullanılıyor", key, v, def)
		return def
	}
	return n
}
