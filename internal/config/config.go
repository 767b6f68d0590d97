package config

import "time"

// Config is the root application configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Stream   StreamConfig   `yaml:"stream"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// PipelineConfig holds the submission endpoint settings.
type PipelineConfig struct {
	BaseURL    string        `yaml:"base_url"    env:"PIPELINE_BASE_URL"    env-required:"true"`
	Timeout    time.Duration `yaml:"timeout"     env:"PIPELINE_TIMEOUT"     env-default:"15s"`
	MaxRetries int           `yaml:"max_retries" env:"PIPELINE_MAX_RETRIES" env-default:"3"`
}

// StreamConfig holds the push-channel settings.
type StreamConfig struct {
	URL        string        `yaml:"url"         env:"STREAM_URL"         env-required:"true"`
	CloseGrace time.Duration `yaml:"close_grace" env:"STREAM_CLOSE_GRACE" env-default:"500ms"`
}

// StoreConfig holds local persistence settings.
type StoreConfig struct {
	Path     string        `yaml:"path"     env:"STORE_PATH"     env-default:"wordgen.db"`
	Capacity int           `yaml:"capacity" env:"STORE_CAPACITY" env-default:"5"`
	TTL      time.Duration `yaml:"ttl"      env:"STORE_TTL"      env-default:"168h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
