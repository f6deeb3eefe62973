// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const defaultJWTSecret = "default-secret-key-change-in-production"

// Config holds every setting of the API server.
type Config struct {
	Port        string
	FixturePath string // empty means the built-in fixture
	LogLevel    log.Level
	LogFormat   string // "text" or "json"

	MongoURI string // empty disables accounts and authentication
	MongoDB  string

	JWTSecret string
	JWTExpiry time.Duration

	MQTTBroker      string // empty disables event publishing
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Forwarded client addresses are only believed from these networks.
	TrustedProxies []*net.IPNet
}

// AuthEnabled reports whether operator accounts are configured.
func (c Config) AuthEnabled() bool {
	return c.MongoURI != ""
}

// EventsEnabled reports whether an MQTT broker is configured.
func (c Config) EventsEnabled() bool {
	return c.MQTTBroker != ""
}

// Load reads .env files (when present) and then the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Port:            get("PORT", "8080"),
		FixturePath:     get("FIXTURE_PATH", ""),
		LogFormat:       strings.ToLower(get("LOG_FORMAT", "text")),
		MongoURI:        get("MONGO_URI", ""),
		MongoDB:         get("MONGO_DB", "fleet"),
		JWTSecret:       get("JWT_SECRET", defaultJWTSecret),
		MQTTBroker:      get("MQTT_BROKER", ""),
		MQTTClientID:    get("MQTT_CLIENT_ID", "logiroute"),
		MQTTUsername:    get("MQTT_USERNAME", ""),
		MQTTPassword:    get("MQTT_PASSWORD", ""),
		MQTTTopicPrefix: strings.TrimSuffix(get("MQTT_TOPIC_PREFIX", "logiroute"), "/"),
	}

	var err error
	if cfg.LogLevel, err = log.ParseLevel(get("LOG_LEVEL", "info")); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}
	if cfg.JWTExpiry, err = time.ParseDuration(get("JWT_EXPIRY", "24h")); err != nil {
		return Config{}, fmt.Errorf("JWT_EXPIRY: %w", err)
	}
	if cfg.RateLimitRequests, err = strconv.Atoi(get("RATE_LIMIT_REQUESTS", "120")); err != nil || cfg.RateLimitRequests < 1 {
		return Config{}, fmt.Errorf("RATE_LIMIT_REQUESTS: must be a positive integer")
	}
	if cfg.RateLimitWindow, err = time.ParseDuration(get("RATE_LIMIT_WINDOW", "1m")); err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.TrustedProxies, err = parseNetworks(get("TRUSTED_PROXIES", "")); err != nil {
		return Config{}, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	return cfg, nil
}

// parseNetworks reads a comma separated list of CIDRs or bare addresses.
func parseNetworks(list string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, "/") {
			ip := net.ParseIP(item)
			if ip == nil {
				return nil, fmt.Errorf("invalid address %q", item)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(item)
		if err != nil {
			return nil, err
		}
		out = append(out, network)
	}
	return out, nil
}

// NewLogger builds the process logger.
func (c Config) NewLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}
