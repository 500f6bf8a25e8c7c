// Package config loads the engine's environment contract: the handful of
// ambient inputs the air-gapped core accepts (output root, optional offline
// queue path, optional external-bus endpoint, the encryption-at-rest
// passphrase) and nothing else. Plain GetEnv-with-default style, no registry
// or struct-tag-driven library.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config is the complete set of ambient inputs accepted by the core. No
// other process-wide state is read; everything else arrives via explicit
// command parameters.
type Config struct {
	// OutputRoot is the path to the mounted output volume the projection
	// writer materializes its tree beneath. Required.
	OutputRoot string

	// QueuePath, if set, enables the offline durable queue at this path.
	QueuePath string

	// BusEndpoint and BusCredentials configure the optional external-bus
	// delivery target; both empty means the offline queue (if any) never drains.
	BusEndpoint    string
	BusCredentials string

	// Passphrase seals non-hardware private key material at rest. Required
	// whenever the command set includes software (non-PIV) key generation.
	Passphrase string

	LogLevel  string
	LogFormat string
}

// Load reads the environment contract from process environment variables.
// GENESIS_OUTPUT_ROOT is the only strictly required value; callers that
// never touch software key material may leave GENESIS_PASSPHRASE unset and
// will fail later, at first use, with a CryptoFailure rather than here.
func Load() (*Config, error) {
	cfg := &Config{
		OutputRoot:     getEnv("GENESIS_OUTPUT_ROOT", ""),
		QueuePath:      getEnv("GENESIS_QUEUE_PATH", ""),
		BusEndpoint:    getEnv("GENESIS_BUS_ENDPOINT", ""),
		BusCredentials: getEnv("GENESIS_BUS_CREDENTIALS", ""),
		Passphrase:     getEnv("GENESIS_PASSPHRASE", ""),
		LogLevel:       getEnv("GENESIS_LOG_LEVEL", "info"),
		LogFormat:      getEnv("GENESIS_LOG_FORMAT", "text"),
	}

	if cfg.OutputRoot == "" {
		return nil, fmt.Errorf("config: GENESIS_OUTPUT_ROOT is required")
	}
	if cfg.BusCredentials != "" {
		if _, err := ParseBusCredentials(cfg.BusCredentials); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// BusCredentialsClaims is the expected shape of GENESIS_BUS_CREDENTIALS: a
// service-boundary token identifying the principal this deployment
// authenticates to the external bus as.
type BusCredentialsClaims struct {
	ServiceID string `json:"service_id"`
	jwt.RegisteredClaims
}

// ParseBusCredentials extracts and sanity-checks the claims carried by the
// configured bus credentials token. It does not verify the token's
// signature: the core has no standing connection to the bus's issuer at
// load time, so only shape and expiry are checked here. The transport that
// actually dials the bus verifies the signature against the bus's known
// public key at connection time.
func ParseBusCredentials(token string) (*BusCredentialsClaims, error) {
	var claims BusCredentialsClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("config: parse bus credentials: %w", err)
	}
	if claims.ServiceID == "" {
		return nil, fmt.Errorf("config: bus credentials token carries no service_id claim")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("config: bus credentials token expired at %s", claims.ExpiresAt)
	}
	return &claims, nil
}
