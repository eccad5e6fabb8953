package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings. Every field has a default so the
// service runs without a config file; environment variables with the
// INTERVUE_ prefix override file values.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	HTTP struct {
		Addr      string  `mapstructure:"addr"`
		RateLimit float64 `mapstructure:"rate_limit"`
		RateBurst int     `mapstructure:"rate_burst"`
	} `mapstructure:"http"`

	OpenAI struct {
		APIKey   string `mapstructure:"api_key"`
		Model    string `mapstructure:"model"`
		TTSModel string `mapstructure:"tts_model"`
		Voice    string `mapstructure:"voice"`
	} `mapstructure:"openai"`

	Coach struct {
		VolumeThreshold float64 `mapstructure:"volume_threshold"`
		WPMFast         float64 `mapstructure:"wpm_fast"`
		WPMSlow         float64 `mapstructure:"wpm_slow"`
		FillerWarn      int     `mapstructure:"filler_warn"`
		FillerCritical  int     `mapstructure:"filler_critical"`
	} `mapstructure:"coach"`

	Session struct {
		DataDir string `mapstructure:"data_dir"`
		// IdleTimeout evicts live sessions from memory; Retention deletes
		// persisted records. Two independent cutoffs, never merged.
		IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
		Retention     time.Duration `mapstructure:"retention"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"session"`

	Cache struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		AudioTTL time.Duration `mapstructure:"audio_ttl"`
	} `mapstructure:"cache"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("http.addr", "127.0.0.1:8000")
	v.SetDefault("http.rate_limit", 10.0)
	v.SetDefault("http.rate_burst", 20)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.tts_model", "tts-1")
	v.SetDefault("openai.voice", "alloy")

	v.SetDefault("coach.volume_threshold", 0.02)
	v.SetDefault("coach.wpm_fast", 160.0)
	v.SetDefault("coach.wpm_slow", 100.0)
	v.SetDefault("coach.filler_warn", 5)
	v.SetDefault("coach.filler_critical", 10)

	v.SetDefault("session.data_dir", "data/sessions")
	v.SetDefault("session.idle_timeout", 2*time.Hour)
	v.SetDefault("session.retention", 24*time.Hour)
	v.SetDefault("session.sweep_interval", 10*time.Minute)

	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.audio_ttl", 60*time.Second)
}

// Load reads settings from the optional config file at path (YAML) and the
// environment. An empty path loads defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("INTERVUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
