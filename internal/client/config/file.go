package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/flagx"
	"github.com/dmitrijs2005/profilekeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for config file unmarshalling.
// Pointer fields tell a missing key from a zero value.
type FileConfig struct {
	DatabaseDSN        *string         `json:"database_dsn" yaml:"database_dsn"`
	RemoteEndpointAddr *string         `json:"remote_endpoint_addr" yaml:"remote_endpoint_addr"`
	StaleTime          *timex.Duration `json:"stale_time" yaml:"stale_time"`
	CacheTime          *timex.Duration `json:"cache_time" yaml:"cache_time"`
	CacheGCInterval    *timex.Duration `json:"cache_gc_interval" yaml:"cache_gc_interval"`
	QueryAttempts      *int            `json:"query_attempts" yaml:"query_attempts"`
	MutationAttempts   *int            `json:"mutation_attempts" yaml:"mutation_attempts"`
	RetryBaseDelay     *timex.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
	DebounceInterval   *timex.Duration `json:"debounce_interval" yaml:"debounce_interval"`
	PacingDuration     *timex.Duration `json:"pacing_duration" yaml:"pacing_duration"`
	CredentialSecret   *string         `json:"credential_secret" yaml:"credential_secret"`
	LogBackend         *string         `json:"log_backend" yaml:"log_backend"`
	LogLevel           *string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays Config with values loaded from the file named by -c
// or -config. Without either flag it does nothing. Panics on read or
// unmarshal errors (caller should recover if desired).
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.RemoteEndpointAddr, fc.RemoteEndpointAddr)
	setDuration(&cfg.StaleTime, fc.StaleTime)
	setDuration(&cfg.CacheTime, fc.CacheTime)
	setDuration(&cfg.CacheGCInterval, fc.CacheGCInterval)
	if fc.QueryAttempts != nil {
		cfg.QueryAttempts = *fc.QueryAttempts
	}
	if fc.MutationAttempts != nil {
		cfg.MutationAttempts = *fc.MutationAttempts
	}
	setDuration(&cfg.RetryBaseDelay, fc.RetryBaseDelay)
	setDuration(&cfg.DebounceInterval, fc.DebounceInterval)
	setDuration(&cfg.PacingDuration, fc.PacingDuration)
	setString(&cfg.CredentialSecret, fc.CredentialSecret)
	setString(&cfg.LogBackend, fc.LogBackend)
	setString(&cfg.LogLevel, fc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
