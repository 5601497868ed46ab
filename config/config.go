package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// JwtKey signs and verifies the session tokens issued at login.
var JwtKey []byte

// MaxFeeMinor is the ceiling for any monthly fee, in minor units (bani).
// Defaults to 10,000 RON.
var MaxFeeMinor int64 = 10_000 * 100

// LockTTL is how long a lesson progress card lock is binding before other
// teachers may take it over.
var LockTTL = 5 * time.Minute

// LoginRateLimit is the number of login attempts allowed per client IP
// within one minute.
var LoginRateLimit = 10

// Load reads the .env file (if present) and resolves all application settings
// from the environment. It must run before ConnectDB/ConnectRedis.
func Load() {
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded settings from .env file")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("JWT_SECRET environment variable is not set")
		os.Exit(1)
	}
	JwtKey = []byte(secret)

	if v := os.Getenv("MAX_FEE_MAJOR"); v != "" {
		major, err := strconv.ParseInt(v, 10, 64)
		if err != nil || major <= 0 {
			slog.Error("Invalid MAX_FEE_MAJOR value", "value", v)
			os.Exit(1)
		}
		MaxFeeMinor = major * 100
	}

	if v := os.Getenv("LOCK_TTL_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			slog.Error("Invalid LOCK_TTL_MINUTES value", "value", v)
			os.Exit(1)
		}
		LockTTL = time.Duration(minutes) * time.Minute
	}

	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			LoginRateLimit = limit
		}
	}
}
