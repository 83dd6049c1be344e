package config

import (
	"github.com/dmitrijs2005/simpleshare/internal/configx"
	"github.com/dmitrijs2005/simpleshare/internal/timex"
)

// fileConfig mirrors Config for file decoding. Durations go through
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type fileConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	MetricsAddr                  string         `json:"metrics_addr" yaml:"metrics_addr"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	PresignExpiry                timex.Duration `json:"presign_expiry" yaml:"presign_expiry"`
	ListenerBuffer               int            `json:"listener_buffer" yaml:"listener_buffer"`
	LogFormat                    string         `json:"log_format" yaml:"log_format"`
	LogLevel                     string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays the file at path onto config. Keys missing from the
// file keep their current values.
func parseFile(config *Config, path string) error {
	c := &fileConfig{
		EndpointAddrGRPC:             config.EndpointAddrGRPC,
		MetricsAddr:                  config.MetricsAddr,
		DatabaseDSN:                  config.DatabaseDSN,
		SecretKey:                    config.SecretKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: config.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: config.RefreshTokenValidityDuration},
		S3RootUser:                   config.S3RootUser,
		S3RootPassword:               config.S3RootPassword,
		S3Bucket:                     config.S3Bucket,
		S3Region:                     config.S3Region,
		S3BaseEndpoint:               config.S3BaseEndpoint,
		PresignExpiry:                timex.Duration{Duration: config.PresignExpiry},
		ListenerBuffer:               config.ListenerBuffer,
		LogFormat:                    config.LogFormat,
		LogLevel:                     config.LogLevel,
	}

	if err := configx.Decode(path, c); err != nil {
		return err
	}

	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.MetricsAddr = c.MetricsAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.PresignExpiry = c.PresignExpiry.Duration
	config.ListenerBuffer = c.ListenerBuffer
	config.LogFormat = c.LogFormat
	config.LogLevel = c.LogLevel
	return nil
}
