// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// DefaultBodySizeLimit caps request bodies. Requests carry question text and
// media URLs, never media payloads, so 2MB is generous.
const DefaultBodySizeLimit int64 = 2 << 20

// Config holds the application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Media  MediaConfig  `mapstructure:"media"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	MetricsEnabled  bool   `mapstructure:"metrics_enabled"`
	MetricsEndpoint string `mapstructure:"metrics_endpoint"`
	BodySizeLimit   int64  `mapstructure:"body_size_limit"`
}

// GeminiConfig holds model provider configuration
type GeminiConfig struct {
	APIKey            string `mapstructure:"api_key"`
	Model             string `mapstructure:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// CacheConfig holds configuration for both cache tiers. Zero values defer
// to the owning package's defaults.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	S3Endpoint    string        `mapstructure:"s3_endpoint"`
	S3AccessKey   string        `mapstructure:"s3_access_key"`
	S3SecretKey   string        `mapstructure:"s3_secret_key"`
	S3Bucket      string        `mapstructure:"s3_bucket"`
	S3UseSSL      bool          `mapstructure:"s3_use_ssl"`
	RedisURL      string        `mapstructure:"redis_url"`
	LocalCapacity int           `mapstructure:"local_capacity"`
	LocalTTL      time.Duration `mapstructure:"local_ttl"`
}

// MediaConfig holds download and transcode configuration
type MediaConfig struct {
	MaxAudioBytes      int64         `mapstructure:"max_audio_bytes"`
	MaxImageBytes      int64         `mapstructure:"max_image_bytes"`
	TranscodeThreshold int64         `mapstructure:"transcode_threshold"`
	FFmpegPath         string        `mapstructure:"ffmpeg_path"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	// Load .env file using Viper (optional, won't fail if not found)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if .env file doesn't exist

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("METRICS_ENDPOINT", "/metrics")
	viper.SetDefault("BODY_SIZE_LIMIT", DefaultBodySizeLimit)
	viper.SetDefault("CACHE_BACKEND", "s3")
	viper.SetDefault("S3_BUCKET", "topikai")

	// Enable automatic environment variable reading
	viper.AutomaticEnv()

	// Read configuration from environment variables using Viper
	cfg := &Config{
		Server: ServerConfig{
			Port:            viper.GetString("PORT"),
			MetricsEnabled:  viper.GetBool("METRICS_ENABLED"),
			MetricsEndpoint: viper.GetString("METRICS_ENDPOINT"),
			BodySizeLimit:   viper.GetInt64("BODY_SIZE_LIMIT"),
		},
		Gemini: GeminiConfig{
			APIKey:            viper.GetString("GEMINI_API_KEY"),
			Model:             viper.GetString("GEMINI_MODEL"),
			RequestsPerMinute: viper.GetInt("GEMINI_REQUESTS_PER_MINUTE"),
		},
		Cache: CacheConfig{
			Backend:       viper.GetString("CACHE_BACKEND"),
			S3Endpoint:    viper.GetString("S3_ENDPOINT"),
			S3AccessKey:   viper.GetString("S3_ACCESS_KEY"),
			S3SecretKey:   viper.GetString("S3_SECRET_KEY"),
			S3Bucket:      viper.GetString("S3_BUCKET"),
			S3UseSSL:      viper.GetBool("S3_USE_SSL"),
			RedisURL:      viper.GetString("REDIS_URL"),
			LocalCapacity: viper.GetInt("LOCAL_CACHE_CAPACITY"),
			LocalTTL:      viper.GetDuration("LOCAL_CACHE_TTL"),
		},
		Media: MediaConfig{
			MaxAudioBytes:      viper.GetInt64("MAX_AUDIO_BYTES"),
			MaxImageBytes:      viper.GetInt64("MAX_IMAGE_BYTES"),
			TranscodeThreshold: viper.GetInt64("TRANSCODE_THRESHOLD"),
			FFmpegPath:         viper.GetString("FFMPEG_PATH"),
			FetchTimeout:       viper.GetDuration("MEDIA_FETCH_TIMEOUT"),
		},
	}

	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return cfg, nil
}
