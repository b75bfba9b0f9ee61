package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/lvgo/internal/app/orch"
	"github.com/dkeye/lvgo/internal/domain"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode         string              `mapstructure:"mode"`
	HTTPAddr     string              `mapstructure:"http_addr"`
	LogLevel     string              `mapstructure:"log_level"`
	LogFile      string              `mapstructure:"log_file"`
	DiscordToken string              `mapstructure:"discord_token"`
	ShardCount   int                 `mapstructure:"shard_count"`
	StoragePath  string              `mapstructure:"storage_path"`
	Nodes        []domain.NodeOption `mapstructure:"nodes"`

	Resume                 bool          `mapstructure:"resume"`
	ResumeTimeout          time.Duration `mapstructure:"resume_timeout"`
	ResumeByLibrary        bool          `mapstructure:"resume_by_library"`
	ReconnectTries         int           `mapstructure:"reconnect_tries"`
	ReconnectInterval      time.Duration `mapstructure:"reconnect_interval"`
	RestTimeout            time.Duration `mapstructure:"rest_timeout"`
	MoveOnDisconnect       bool          `mapstructure:"move_on_disconnect"`
	UserAgent              string        `mapstructure:"user_agent"`
	VoiceConnectionTimeout time.Duration `mapstructure:"voice_connection_timeout"`
	ReplayRate             float64       `mapstructure:"replay_rate"`
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then LVGO_* env vars.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Str("module", "config").Msg("no .env file, using process environment")
	}
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return load(fmt.Sprintf("config/config.%s.yaml", env))
}

func load(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("lvgo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("discord_token", "LVGO_DISCORD_TOKEN", "DISCORD_TOKEN")

	defaults := orch.DefaultOptions()
	v.SetDefault("mode", "release")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("shard_count", 1)
	v.SetDefault("storage_path", "data/sessions.json")
	v.SetDefault("resume", false)
	v.SetDefault("resume_timeout", defaults.ResumeTimeout)
	v.SetDefault("resume_by_library", false)
	v.SetDefault("reconnect_tries", defaults.ReconnectTries)
	v.SetDefault("reconnect_interval", defaults.ReconnectInterval)
	v.SetDefault("rest_timeout", defaults.RestTimeout)
	v.SetDefault("move_on_disconnect", false)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("voice_connection_timeout", defaults.VoiceConnectionTimeout)
	v.SetDefault("replay_rate", defaults.ReplayRate)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Str("addr", cfg.HTTPAddr).Int("nodes", len(cfg.Nodes)).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.ShardCount < 1 {
		errs = append(errs, fmt.Errorf("shard_count must be positive, got %d", c.ShardCount))
	}
	if c.ReconnectTries < 0 {
		errs = append(errs, fmt.Errorf("reconnect_tries must not be negative, got %d", c.ReconnectTries))
	}
	seen := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		switch {
		case n.Name == "":
			errs = append(errs, fmt.Errorf("nodes[%d]: name is required", i))
		case seen[n.Name]:
			errs = append(errs, fmt.Errorf("nodes[%d]: duplicate name %q", i, n.Name))
		}
		if n.URL == "" {
			errs = append(errs, fmt.Errorf("nodes[%d]: url is required", i))
		}
		seen[n.Name] = true
	}
	return errors.Join(errs...)
}

func (c *Config) NodeOptions() []domain.NodeOption {
	return append([]domain.NodeOption(nil), c.Nodes...)
}

func (c *Config) OrchestratorOptions() orch.Options {
	opts := orch.DefaultOptions()
	opts.Resume = c.Resume
	opts.ResumeTimeout = c.ResumeTimeout
	opts.ResumeByLibrary = c.ResumeByLibrary
	opts.ReconnectTries = c.ReconnectTries
	opts.ReconnectInterval = c.ReconnectInterval
	opts.RestTimeout = c.RestTimeout
	opts.MoveOnDisconnect = c.MoveOnDisconnect
	opts.UserAgent = c.UserAgent
	opts.VoiceConnectionTimeout = c.VoiceConnectionTimeout
	opts.ReplayRate = c.ReplayRate
	return opts
}
