package commands

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugr-lab/sia-go"
	"github.com/hugr-lab/sia-go/transport"
)

// EnvPrefix prefixes environment overrides, e.g. SIAQUERY_HTTP_TOKEN.
const EnvPrefix = "SIAQUERY"

// Config is the merged configuration of defaults, the config file,
// environment variables and flags, in increasing precedence.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Flight FlightConfig `mapstructure:"flight"`
	Serve  ServeConfig  `mapstructure:"serve"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Token     string        `mapstructure:"token"`
	POST      bool          `mapstructure:"post"`
}

type FlightConfig struct {
	Token string `mapstructure:"token"`
}

type ServeConfig struct {
	Data              string            `mapstructure:"data"`
	Archive           string            `mapstructure:"archive"`
	HTTPAddr          string            `mapstructure:"http"`
	FlightAddr        string            `mapstructure:"flight"`
	PublicURL         string            `mapstructure:"public_url"`
	MaxRecords        int               `mapstructure:"max_records"`
	DefaultMaxRecords int               `mapstructure:"default_max_records"`
	Tokens            map[string]string `mapstructure:"tokens"`
}

var (
	cfgFile string
	cfg     Config
	logger  = slog.Default()
)

// SetDefaults registers every key so environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.retries", 0)
	v.SetDefault("http.rate_limit", 0.0)
	v.SetDefault("http.token", "")
	v.SetDefault("http.post", false)

	v.SetDefault("flight.token", "")

	v.SetDefault("serve.data", "")
	v.SetDefault("serve.archive", "default")
	v.SetDefault("serve.http", ":8080")
	v.SetDefault("serve.flight", "")
	v.SetDefault("serve.public_url", "")
	v.SetDefault("serve.max_records", 0)
	v.SetDefault("serve.default_max_records", 1000)
	v.SetDefault("serve.tokens", map[string]string{})
}

// AddConfigFlags registers the global flags on the root command.
func AddConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (yaml, toml or json)")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.Duration("timeout", 30*time.Second, "HTTP request timeout")
	flags.Int("retries", 0, "Extra HTTP attempts after a connectivity failure or a 429/5xx answer")
	flags.String("token", "", "Bearer token for the service")
}

var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"timeout":    "http.timeout",
	"retries":    "http.retries",
}

// LoadConfig merges the configuration sources and initializes the logger.
func LoadConfig(cmd *cobra.Command, _ []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return errors.Wrap(err, "decode configuration")
	}

	// --token applies to both transports
	if f := cmd.Flags().Lookup("token"); f != nil && f.Changed {
		cfg.HTTP.Token = f.Value.String()
		cfg.Flight.Token = f.Value.String()
	}

	logger, err = newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}
	if cmd.Name() == ServeCmd.Name() {
		for name, key := range serveFlagKeys {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}
	return v, nil
}

func newLogger(c LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", c.Level)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, errors.Newf("unknown log format %q", c.Format)
}

// clientConfig builds the library configuration for HTTP services.
func clientConfig() sia.ClientConfig {
	httpCfg := transport.HTTPConfig{
		Timeout:    cfg.HTTP.Timeout,
		MaxRetries: cfg.HTTP.Retries,
		RateLimit:  cfg.HTTP.RateLimit,
		UsePOST:    cfg.HTTP.POST,
		Logger:     logger,
	}
	if cfg.HTTP.Token != "" {
		httpCfg.Auth = transport.BearerToken{Token: cfg.HTTP.Token}
	}
	return sia.ClientConfig{HTTP: httpCfg, Logger: logger}
}
