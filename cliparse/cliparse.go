// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort      = 3318
	defaultSQLiteURL = "file:quickly-elect.db"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKeySalt string
	TallyWorkers int // concurrent winner computations
	ConfigFile   string
}

// fileConfig is the optional YAML file. It supplies values that neither a
// flag nor an environment variable set.
type fileConfig struct {
	Port         int    `yaml:"port"`
	DatabaseURL  string `yaml:"database_url"`
	DatabaseType string `yaml:"database_type"`
	AdminKeySalt string `yaml:"admin_key_salt"`
	TallyWorkers int    `yaml:"tally_workers"`
}

// ParseFlags validates flags and fills the rest from the environment, the
// config file and defaults, in that order.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("quickly-elect", flag.ContinueOnError)

	fs.StringVar(&cfg.ConfigFile, "c", "", "YAML config file")

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.IntVar(&cfg.TallyWorkers, "w", 0, "Concurrent winner computations")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.ConfigFile == "" {
		cfg.ConfigFile = os.Getenv("CONFIG_FILE")
	}
	var file fileConfig
	if cfg.ConfigFile != "" {
		var err error
		if file, err = loadFile(cfg.ConfigFile); err != nil {
			return Config{}, err
		}
	}

	// Fall back to environment variables, then the config file
	if cfg.Port == 0 {
		port, err := intEnv("PORT")
		if err != nil {
			return Config{}, err
		}
		cfg.Port = firstInt(port, file.Port, defaultPort)
	}
	if cfg.TallyWorkers == 0 {
		workers, err := intEnv("TALLY_WORKERS")
		if err != nil {
			return Config{}, err
		}
		cfg.TallyWorkers = firstInt(workers, file.TallyWorkers, runtime.NumCPU())
	}
	if cfg.TallyWorkers < 1 {
		return Config{}, errors.New("tally workers must be positive")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = firstString(os.Getenv("DATABASE_TYPE"), file.DatabaseType, "sqlite")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = firstString(os.Getenv("DATABASE_URL"), file.DatabaseURL)
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = defaultSQLiteURL
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = firstString(os.Getenv("ADMIN_KEY_SALT"), file.AdminKeySalt)
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	return cfg, nil
}

func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return file, nil
}

func intEnv(name string) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", name)
	}
	return v, nil
}

func firstInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
