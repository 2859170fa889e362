package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultPort        = "3000"
	DefaultStoreDriver = "mongo"
	DefaultMongoURI    = "mongodb://localhost:27017/NotesApp"
	DefaultLogLevel    = "info"
)

type Config struct {
	Port        string
	StoreDriver string
	MongoURI    string
	MySQLDSN    string
	JWTSecret   string
	BcryptCost  int
	LogLevel    zerolog.Level
}

// Load reads the given .env files, missing ones are skipped, and then the
// process environment. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", DefaultPort),
		StoreDriver: getEnv("STORE_DRIVER", DefaultStoreDriver),
		MongoURI:    getEnv("MONGODB_URI", DefaultMongoURI),
		MySQLDSN:    os.Getenv("DSN"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		BcryptCost:  bcrypt.DefaultCost,
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("invalid BCRYPT_COST %q", v)
		}
		cfg.BcryptCost = cost
	}

	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", DefaultLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	switch cfg.StoreDriver {
	case "mongo", "memory":
	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, errors.New("DSN is required when STORE_DRIVER is mysql")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
