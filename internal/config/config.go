// Package config loads dccm settings from the environment and optional .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultListenAddr   = "127.0.0.1:7878"
	defaultProbeTimeout = 3 * time.Second
	aliasFileName       = "tnsnames.ora"
)

// Config is passed explicitly into every constructor that needs paths or limits.
type Config struct {
	Home         string
	DBPath       string
	ScratchDir   string
	AliasDir     string // directory holding tnsnames.ora; empty when unconfigured
	ProbeTimeout time.Duration

	LogFile string

	APIToken    string
	ListenAddr  string
	CORSOrigins []string
}

// Load reads .env files (cwd, then $DCCM_HOME) and the process environment.
// Values already in the environment win over .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	home := os.Getenv("DCCM_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		home = filepath.Join(userHome, ".dccm")
	}
	if err := godotenv.Load(filepath.Join(home, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", filepath.Join(home, ".env"), err)
	}

	cfg := &Config{
		Home:       home,
		DBPath:     getEnv("DCCM_DB_PATH", filepath.Join(home, "dccm.db")),
		ScratchDir: getEnv("DCCM_SCRATCH_DIR", filepath.Join(home, "tmp")),
		AliasDir:   aliasDirFromEnv(),
		LogFile:    os.Getenv("DCCM_LOG_FILE"),
		APIToken:   os.Getenv("DCCM_API_TOKEN"),
		ListenAddr: getEnv("DCCM_LISTEN_ADDR", defaultListenAddr),
	}

	if v := os.Getenv("DCCM_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	cfg.ProbeTimeout = defaultProbeTimeout
	if v := strings.TrimSpace(os.Getenv("DCCM_PROBE_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("DCCM_PROBE_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.ProbeTimeout = d
	}

	return cfg, nil
}

// RequireAPIToken validates the settings the loopback API needs.
func (c *Config) RequireAPIToken() error {
	if c.APIToken == "" {
		return fmt.Errorf("DCCM_API_TOKEN is required")
	}
	if len(c.APIToken) < 16 {
		return fmt.Errorf("DCCM_API_TOKEN must be at least 16 characters")
	}
	return nil
}

// AliasFile returns the path of tnsnames.ora, or "" when no alias directory is known.
func (c *Config) AliasFile() string {
	if c.AliasDir == "" {
		return ""
	}
	return filepath.Join(c.AliasDir, aliasFileName)
}

// EnsureHome creates the home directory and the database's parent directory.
func (c *Config) EnsureHome() error {
	if err := os.MkdirAll(c.Home, 0o700); err != nil {
		return fmt.Errorf("create home %s: %w", c.Home, err)
	}
	if dir := filepath.Dir(c.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}
	return nil
}

// PrepareScratch recreates an empty scratch directory.
func (c *Config) PrepareScratch() error {
	if err := c.PurgeScratch(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.ScratchDir, 0o700); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	return nil
}

// PurgeScratch removes the scratch directory and everything in it.
func (c *Config) PurgeScratch() error {
	if c.ScratchDir == "" || c.ScratchDir == "/" || c.ScratchDir == c.Home {
		return fmt.Errorf("refusing to purge scratch dir %q", c.ScratchDir)
	}
	if err := os.RemoveAll(c.ScratchDir); err != nil {
		return fmt.Errorf("purge scratch dir: %w", err)
	}
	return nil
}

func aliasDirFromEnv() string {
	if v := os.Getenv("TNS_ADMIN"); v != "" {
		return v
	}
	if v := os.Getenv("ORACLE_HOME"); v != "" {
		return filepath.Join(v, "network", "admin")
	}
	return ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
