package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Timing      TimingConfig
	Placeholder PlaceholderConfig
	Upload      UploadConfig
	History     HistoryConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TimingConfig holds the simulated latencies. Text replies draw uniformly
// from [TextMinDelay, TextMaxDelay]; the other two are fixed.
type TimingConfig struct {
	TextMinDelay  time.Duration `mapstructure:"text_min_delay"`
	TextMaxDelay  time.Duration `mapstructure:"text_max_delay"`
	UploadDelay   time.Duration `mapstructure:"upload_delay"`
	GenerateDelay time.Duration `mapstructure:"generate_delay"`
}

// PlaceholderConfig describes the external placeholder-image source.
type PlaceholderConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	FallbackURL string `mapstructure:"fallback_url"`
}

// UploadConfig holds upload settings. MaxBytes is shown to users but never enforced.
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// HistoryConfig selects the transcript sink.
type HistoryConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

const (
	HistoryDriverSQLite = "sqlite"
	HistoryDriverMemory = "memory"
)

// Default timing values, matching the reference behavior.
const (
	DefaultTextMinDelay  = 1500 * time.Millisecond
	DefaultTextMaxDelay  = 2500 * time.Millisecond
	DefaultUploadDelay   = 2000 * time.Millisecond
	DefaultGenerateDelay = 3000 * time.Millisecond
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("timing.text_min_delay", DefaultTextMinDelay)
	v.SetDefault("timing.text_max_delay", DefaultTextMaxDelay)
	v.SetDefault("timing.upload_delay", DefaultUploadDelay)
	v.SetDefault("timing.generate_delay", DefaultGenerateDelay)
	v.SetDefault("placeholder.base_url", "https://picsum.photos")
	v.SetDefault("placeholder.width", 512)
	v.SetDefault("placeholder.height", 512)
	v.SetDefault("placeholder.fallback_url", "")
	v.SetDefault("upload.max_bytes", 10<<20)
	v.SetDefault("history.driver", HistoryDriverSQLite)
	v.SetDefault("history.dsn", "file::memory:?cache=shared")
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: decode defaults: %v", err))
	}
	return &cfg
}

// Load reads config.yaml from the working directory, or the file named by
// CONFIG_PATH, then applies CHATSIM_* environment overrides
// (e.g. CHATSIM_TIMING_UPLOAD_DELAY=500ms). A missing config.yaml is not an
// error; a missing CONFIG_PATH file is.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CHATSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks that the config has usable values.
func (c *Config) Validate() error {
	var errs []error
	t := c.Timing
	if t.TextMinDelay < 0 || t.TextMaxDelay < 0 || t.UploadDelay < 0 || t.GenerateDelay < 0 {
		errs = append(errs, errors.New("timing: delays must not be negative"))
	}
	if t.TextMinDelay > t.TextMaxDelay {
		errs = append(errs, fmt.Errorf("timing: text_min_delay %s exceeds text_max_delay %s", t.TextMinDelay, t.TextMaxDelay))
	}
	if c.Placeholder.BaseURL == "" {
		errs = append(errs, errors.New("placeholder: base_url is required"))
	}
	if c.Placeholder.Width <= 0 || c.Placeholder.Height <= 0 {
		errs = append(errs, errors.New("placeholder: width and height must be positive"))
	}
	switch c.History.Driver {
	case HistoryDriverSQLite, HistoryDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("history: unsupported driver %q", c.History.Driver))
	}
	return errors.Join(errs...)
}
