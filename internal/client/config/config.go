package config

import (
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/query"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

// Config holds runtime settings for the profilekeeper client.
//
// Fields:
//   - DatabaseDSN: SQLite DSN of the local key/value store.
//   - RemoteEndpointAddr: host:port of the gRPC document store; empty keeps
//     documents in memory.
//   - StaleTime / CacheTime / CacheGCInterval: profile cache tuning.
//   - QueryAttempts / MutationAttempts / RetryBaseDelay: retry policy.
//   - DebounceInterval: how long an edited field must be stable before it
//     is committed.
//   - PacingDuration: how long the post-signup and post-onboarding screens
//     stay up.
//   - CredentialSecret: HMAC secret of external credentials. It also keys
//     the encryption of the local database values.
//   - LogBackend / LogLevel: logging setup.
type Config struct {
	DatabaseDSN        string
	RemoteEndpointAddr string
	StaleTime          time.Duration
	CacheTime          time.Duration
	CacheGCInterval    time.Duration
	QueryAttempts      int
	MutationAttempts   int
	RetryBaseDelay     time.Duration
	DebounceInterval   time.Duration
	PacingDuration     time.Duration
	CredentialSecret   string
	LogBackend         string
	LogLevel           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	q := query.DefaultOptions()
	c.DatabaseDSN = "profilekeeper.db"
	c.RemoteEndpointAddr = ""
	c.StaleTime = q.StaleTime
	c.CacheTime = q.CacheTime
	c.CacheGCInterval = q.GCInterval
	c.QueryAttempts = q.QueryAttempts
	c.MutationAttempts = q.MutationAttempts
	c.RetryBaseDelay = q.RetryBaseDelay
	c.DebounceInterval = time.Second
	c.PacingDuration = q.PacingDuration
	c.CredentialSecret = "secretKey"
	c.LogBackend = logging.BackendSlog
	c.LogLevel = "info"
}

// QueryOptions returns the query layer settings held by c.
func (c *Config) QueryOptions() query.Options {
	return query.Options{
		StaleTime:        c.StaleTime,
		CacheTime:        c.CacheTime,
		GCInterval:       c.CacheGCInterval,
		QueryAttempts:    c.QueryAttempts,
		MutationAttempts: c.MutationAttempts,
		RetryBaseDelay:   c.RetryBaseDelay,
		PacingDuration:   c.PacingDuration,
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
