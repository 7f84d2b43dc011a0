package config

import (
	"errors"
	"io/fs"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/money"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/units"
)

const (
	envDevelopment = "development"

	defaultDBPath    = "./printquote.db"
	defaultHost      = "127.0.0.1"
	defaultPort      = "8080"
	defaultExportDir = "./exports"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	DBPath         string
	Host           string
	Port           string
	CMThreshold    decimal.Decimal
	AddonPolicy    pricing.AddonPolicy
	CurrencySymbol string
	ExportDir      string
	TemplatePath   string
	SeedCatalog    bool
}

// Load reads .env from the working directory, then the environment.
func Load() Config {
	return LoadFrom(".env")
}

// LoadFrom reads the dotenv file at path and returns a populated Config.
// Variables already set in the environment win over the file.
func LoadFrom(path string) Config {
	// Best-effort: a missing file is normal outside local development.
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: read %s: %v", path, err)
	}

	cfg := Config{
		Env:            os.Getenv("APP_ENV"),
		DBPath:         os.Getenv("DB_PATH"),
		Host:           os.Getenv("HOST"),
		Port:           os.Getenv("PORT"),
		CMThreshold:    units.DefaultThreshold,
		AddonPolicy:    pricing.AddonPerArea,
		CurrencySymbol: os.Getenv("CURRENCY_SYMBOL"),
		ExportDir:      os.Getenv("EXPORT_DIR"),
		TemplatePath:   os.Getenv("TEMPLATE_PATH"),
	}

	if cfg.Env == "" {
		cfg.Env = envDevelopment
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = money.DefaultSymbol
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = defaultExportDir
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		log.Printf("warning: PORT %q is invalid, using %s", cfg.Port, defaultPort)
		cfg.Port = defaultPort
	}

	if raw := os.Getenv("CM_THRESHOLD"); raw != "" {
		threshold, ok := units.ParseDecimal(raw)
		if ok && threshold.IsPositive() {
			cfg.CMThreshold = threshold
		} else {
			log.Printf("warning: CM_THRESHOLD %q is invalid, using %s", raw, units.DefaultThreshold)
		}
	}

	if raw := os.Getenv("ADDON_POLICY"); raw != "" {
		policy, err := pricing.ParseAddonPolicy(raw)
		if err != nil {
			log.Printf("warning: ADDON_POLICY: %v, using %s", err, pricing.AddonPerArea)
		}
		cfg.AddonPolicy = policy
	}

	cfg.SeedCatalog = cfg.IsDev()
	if raw := os.Getenv("SEED_CATALOG"); raw != "" {
		seed, err := strconv.ParseBool(raw)
		if err != nil {
			log.Printf("warning: SEED_CATALOG %q is not a boolean, using %t", raw, cfg.SeedCatalog)
		} else {
			cfg.SeedCatalog = seed
		}
	}

	if cfg.Host != defaultHost && cfg.Host != "localhost" && cfg.Host != "::1" {
		log.Printf("warning: HOST %q is not a loopback address", cfg.Host)
	}

	return cfg
}

// IsDev reports whether the application runs in development mode.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, envDevelopment) || strings.EqualFold(c.Env, "dev")
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
