package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const defaultDatabaseURL = "postgresql://postgres:password@db:5432/in_commodities"

// InitDB opens the postgres connection used by the server. Fatal on failure:
// there is nothing useful the service can do without its store.
func InitDB() *gorm.DB {
	dsn := GetEnv("DATABASE_URL", defaultDatabaseURL)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	return db
}

func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("invalid value for %s: expected an integer, got %q, using default %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("invalid value for %s: expected a number, got %q, using default %v", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// ReportingZone resolves the time zone that assigns exchange UTC timestamps
// to a business day. Defaults to the bank's reporting zone.
func ReportingZone() *time.Location {
	name := GetEnv("RECON_TIMEZONE", "Australia/Sydney")
	zone, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid RECON_TIMEZONE %q, falling back to UTC: %v", name, err)
		return time.UTC
	}
	return zone
}
