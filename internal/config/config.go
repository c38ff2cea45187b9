// Package config carries the constructor-time constants the engine is
// built with. Values come from FLEETDECK_* environment variables with
// flag overrides applied in cmd.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	// NATSURL is the transport boundary the chat layer delivers events on.
	NATSURL string

	// DefaultRegion is substituted when a legacy instance-ref token has no
	// region component.
	DefaultRegion string

	// WellKnownRegions is the fallback fan-out set used when region
	// enumeration fails.
	WellKnownRegions []string

	// AuthorizedCallers is the static allow-list for mutating commands.
	AuthorizedCallers []string

	// Workers is the session job pool size.
	Workers int

	// FanOut caps simultaneous per-region discovery queries.
	FanOut int

	// RegionTimeout bounds a single per-region provider call.
	RegionTimeout time.Duration

	// CacheTTL is how long a shared fleet snapshot stays fresh.
	CacheTTL time.Duration

	// PageSize is the number of instances per rendered page.
	PageSize int

	// MetricsAddr serves the Prometheus endpoint.
	MetricsAddr string

	// DBPath is the simulated provider's Badger directory. Ignored when
	// InMemory is set.
	DBPath   string
	InMemory bool
}

var defaultWellKnownRegions = []string{
	"us-east-1", "us-east-2", "us-west-1", "us-west-2",
	"eu-west-1", "eu-west-2", "eu-central-1",
	"ap-northeast-1", "ap-southeast-1", "ap-southeast-2", "ap-south-1",
	"ca-central-1", "sa-east-1",
}

// FromEnv builds a Config from the environment, applying defaults for
// anything unset.
func FromEnv() Config {
	return Config{
		NATSURL:           envStr("FLEETDECK_NATS_URL", "nats://localhost:4222"),
		DefaultRegion:     envStr("FLEETDECK_DEFAULT_REGION", "us-east-2"),
		WellKnownRegions:  envList("FLEETDECK_WELL_KNOWN_REGIONS", defaultWellKnownRegions),
		AuthorizedCallers: envList("FLEETDECK_AUTHORIZED_CALLERS", nil),
		Workers:           envInt("FLEETDECK_WORKERS", 3),
		FanOut:            envInt("FLEETDECK_FANOUT", 10),
		RegionTimeout:     envDur("FLEETDECK_REGION_TIMEOUT", 8*time.Second),
		CacheTTL:          envDur("FLEETDECK_CACHE_TTL", 60*time.Second),
		PageSize:          envInt("FLEETDECK_PAGE_SIZE", 50),
		MetricsAddr:       envStr("FLEETDECK_METRICS_ADDR", ":9090"),
		DBPath:            envStr("FLEETDECK_DB", "./data/badger"),
		InMemory:          envBool("FLEETDECK_INMEM", true),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// envList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
