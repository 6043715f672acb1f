package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/profilekeeper/internal/flagx"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used only for config file unmarshalling. Pointer
// fields tell a missing key from a zero value.
type FileConfig struct {
	EndpointAddrGRPC *string `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	Backend          *string `json:"backend" yaml:"backend"`
	DatabaseDSN      *string `json:"database_dsn" yaml:"database_dsn"`
	S3RootUser       *string `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword   *string `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket         *string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region         *string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint   *string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	LogBackend       *string `json:"log_backend" yaml:"log_backend"`
	LogLevel         *string `json:"log_level" yaml:"log_level"`
}

// parseFile overlays config with the file named by -c or -config. Files
// ending in .yaml or .yml are YAML, anything else is JSON. Panics if the
// file cannot be read or parsed.
func parseFile(config *Config) {
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

	for dst, v := range map[*string]*string{
		&config.EndpointAddrGRPC: fc.EndpointAddrGRPC,
		&config.Backend:          fc.Backend,
		&config.DatabaseDSN:      fc.DatabaseDSN,
		&config.S3RootUser:       fc.S3RootUser,
		&config.S3RootPassword:   fc.S3RootPassword,
		&config.S3Bucket:         fc.S3Bucket,
		&config.S3Region:         fc.S3Region,
		&config.S3BaseEndpoint:   fc.S3BaseEndpoint,
		&config.LogBackend:       fc.LogBackend,
		&config.LogLevel:         fc.LogLevel,
	} {
		if v != nil {
			*dst = *v
		}
	}
}
