package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AuthConfig struct {
	JWTSecret    string
	JWTIssuer    string
	JWTDuration  time.Duration
	AdminEmails  []string // allow-list; empty means any seeded admin may log in
	SeedEmail    string
	SeedPassword string
}

type IngestConfig struct {
	FetchTimeout time.Duration
	MaxBytes     int64
	MaxImages    int
}

// LoadEnvFile loads a local .env when present. Missing files are fine;
// real deployments configure the environment directly.
func LoadEnvFile() {
	_ = godotenv.Load()
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("WATCHVAULT_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("WATCHVAULT_JWT_ISSUER")
	if issuer == "" {
		issuer = "watchvault"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("WATCHVAULT_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			duration = time.Duration(h) * time.Hour
		}
	}

	var admins []string
	for _, e := range strings.Split(os.Getenv("WATCHVAULT_ADMIN_EMAILS"), ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins = append(admins, e)
		}
	}

	return AuthConfig{
		JWTSecret:    secret,
		JWTIssuer:    issuer,
		JWTDuration:  duration,
		AdminEmails:  admins,
		SeedEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("WATCHVAULT_ADMIN_SEED_EMAIL"))),
		SeedPassword: os.Getenv("WATCHVAULT_ADMIN_SEED_PASSWORD"),
	}
}

func LoadIngestConfig() IngestConfig {
	cfg := IngestConfig{
		FetchTimeout: 15 * time.Second,
		MaxBytes:     10 << 20,
		MaxImages:    12,
	}

	if v := os.Getenv("WATCHVAULT_IMAGE_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("WATCHVAULT_IMAGE_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBytes = n
		}
	}
	if v := os.Getenv("WATCHVAULT_IMAGE_MAX_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxImages = n
		}
	}

	return cfg
}
