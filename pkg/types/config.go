package types

import (
	"time"
)

// Source backends for output listings
const (
	SourceLocal = "local" // a directory on disk
	SourceS3    = "s3"    // a bucket prefix
)

// AppConfig is the root configuration for hazardkit
type AppConfig struct {
	DebugMode  bool `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool `key:"prettyLogs" json:"pretty_logs"`

	Source SourceConfig `key:"source" json:"source"`
	Plots  PlotsConfig  `key:"plots" json:"plots"`
	Server ServerConfig `key:"server" json:"server"`
}

// ----------------------------------------------------------------------------
// Source Configuration
// ----------------------------------------------------------------------------

// SourceConfig says where engine output files are listed and read from
type SourceConfig struct {
	Kind string   `key:"kind" json:"kind"` // "local" or "s3"
	Dir  string   `key:"dir" json:"dir"`
	S3   S3Config `key:"s3" json:"s3"`
}

type S3Config struct {
	Bucket         string        `key:"bucket" json:"bucket"`
	Prefix         string        `key:"prefix" json:"prefix"`
	Region         string        `key:"region" json:"region"`
	Endpoint       string        `key:"endpoint" json:"endpoint"`
	AccessKey      string        `key:"accessKey" json:"access_key"`
	SecretKey      string        `key:"secretKey" json:"secret_key"`
	ForcePathStyle bool          `key:"forcePathStyle" json:"force_path_style"`
	CacheEntries   int           `key:"cacheEntries" json:"cache_entries"`
	CacheTTL       time.Duration `key:"cacheTTL" json:"cache_ttl"`
}

// IsLocal returns true if outputs are read from a local directory
func (c SourceConfig) IsLocal() bool {
	return c.Kind == "" || c.Kind == SourceLocal
}

// ----------------------------------------------------------------------------
// Plots Configuration
// ----------------------------------------------------------------------------

type PlotsConfig struct {
	OutputDir    string  `key:"outputDir" json:"output_dir"`
	JobFile      string  `key:"jobFile" json:"job_file"`
	WidthInches  float64 `key:"widthInches" json:"width_inches"`
	HeightInches float64 `key:"heightInches" json:"height_inches"`
	Concurrency  int     `key:"concurrency" json:"concurrency"`
}

// ----------------------------------------------------------------------------
// Server Configuration
// ----------------------------------------------------------------------------

type ServerConfig struct {
	Host             string        `key:"host" json:"host"`
	Port             int           `key:"port" json:"port"`
	EnablePrettyLogs bool          `key:"enablePrettyLogs" json:"enable_pretty_logs"`
	ShutdownTimeout  time.Duration `key:"shutdownTimeout" json:"shutdown_timeout"`
	AuthToken        string        `key:"authToken" json:"auth_token"` // optional bearer token for /api/v1/outputs
	CORS             CORSConfig    `key:"cors" json:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `key:"allowOrigins" json:"allow_origins"`
	AllowedMethods []string `key:"allowMethods" json:"allow_methods"`
	AllowedHeaders []string `key:"allowHeaders" json:"allow_headers"`
}
