package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and identifiers are strings, token
// lifetimes and hashing costs are ints.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	LogLevel     string // logrus level name (debug, info, warn, error)
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	MigrateOnRun bool   // apply embedded migrations at startup
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time‑to‑live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	// StoreReservationStatus is the status given to pay-at-counter
	// reservations at creation time (CONFIRMED or PENDING).
	StoreReservationStatus string
}

// Load reads configuration values from the environment, after merging a
// local .env file when one exists.  Required variables are enforced by
// must() and missing values cause the program to exit.
func Load() Config {
	_ = godotenv.Load() // .env is optional; real environment wins

	return Config{
		Env:                    must("APP_ENV"),
		Port:                   must("APP_PORT"),
		LogLevel:               envStr("LOG_LEVEL", "info"),
		DBUser:                 must("DB_USER"),
		DBPass:                 os.Getenv("DB_PASS"), // empty allowed
		DBHost:                 must("DB_HOST"),
		DBPort:                 must("DB_PORT"),
		DBName:                 must("DB_NAME"),
		MigrateOnRun:           envBool("DB_MIGRATE", true),
		JWTSecret:              must("JWT_SECRET"),
		AccessTTLMin:           mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:             envInt("BCRYPT_COST", 10),
		StoreReservationStatus: strings.ToUpper(envStr("RESERVATION_STORE_STATUS", "CONFIRMED")),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// LogLevel returns LOG_LEVEL for binaries that do not need the full Config.
func LogLevel() string { return envStr("LOG_LEVEL", "info") }

// AppEnv returns APP_ENV, defaulting to "dev".
func AppEnv() string { return envStr("APP_ENV", "dev") }
