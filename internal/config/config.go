package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "NOTIFIER"

// PriceSettings configures the price service client.
type PriceSettings struct {
	URL          string
	APIKey       string
	MaxAttempts  int
	RetryBackoff time.Duration
	Timeout      time.Duration
}

// Config holds the run command configuration loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	PoolsFile         string
	PGDSN             string
	Production        bool
	Price             PriceSettings
	DiscordWebhook    string
	DiscordLogWebhook string
	DiagnosticFile    string
	DiagnosticPolicy  string
	ExplorerURL       string
	EscalationMention string
	FooterText        string
	FooterIcon        string
	WatchMode         string
	PollInterval      time.Duration
	BatchSize         uint64
	MaxRetries        int
	RetryBackoff      time.Duration
	SendRate          float64
	MetricsAddr       string
	DryRun            bool
	LogLevel          string
}

// Validate checks the settings the run command cannot start without.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.PoolsFile == "" && c.PGDSN == "" {
		return fmt.Errorf("either a pools file or a postgres dsn is required")
	}
	if !c.DryRun && c.DiscordWebhook == "" {
		return fmt.Errorf("discord webhook is required unless dry-run is set")
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be greater than zero")
	}
	if c.Price.MaxAttempts <= 0 {
		return fmt.Errorf("price max attempts must be greater than zero")
	}
	return nil
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		setPoolDefaults(v)
		setPriceDefaults(v)
		v.SetDefault("diagnostic-policy", "always")
		v.SetDefault("explorer-url", "https://etherscan.io")
		v.SetDefault("watch-mode", "auto")
		v.SetDefault("poll-interval", 12*time.Second)
		v.SetDefault("batch-size", uint64(2000))
		v.SetDefault("max-retries", 5)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
		v.SetDefault("send-rate", 1.0)
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		PoolsFile:         v.GetString("pools"),
		PGDSN:             v.GetString("pg-dsn"),
		Production:        v.GetBool("production"),
		Price:             priceSettings(v),
		DiscordWebhook:    v.GetString("discord-webhook"),
		DiscordLogWebhook: v.GetString("discord-log-webhook"),
		DiagnosticFile:    v.GetString("diagnostic-file"),
		DiagnosticPolicy:  v.GetString("diagnostic-policy"),
		ExplorerURL:       v.GetString("explorer-url"),
		EscalationMention: v.GetString("escalation-mention"),
		FooterText:        v.GetString("footer-text"),
		FooterIcon:        v.GetString("footer-icon"),
		WatchMode:         v.GetString("watch-mode"),
		PollInterval:      v.GetDuration("poll-interval"),
		BatchSize:         v.GetUint64("batch-size"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		SendRate:          v.GetFloat64("send-rate"),
		MetricsAddr:       v.GetString("metrics-addr"),
		DryRun:            v.GetBool("dry-run"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// CheckConfig holds the check-pools command configuration.
type CheckConfig struct {
	RPCURL     string
	PoolsFile  string
	PGDSN      string
	Production bool
	LogLevel   string
}

// LoadCheck loads the check-pools command configuration.
func LoadCheck(cfgFile string, flags *pflag.FlagSet) (CheckConfig, error) {
	v, err := newViper(cfgFile, flags, setPoolDefaults)
	if err != nil {
		return CheckConfig{}, err
	}
	return CheckConfig{
		RPCURL:     v.GetString("rpc"),
		PoolsFile:  v.GetString("pools"),
		PGDSN:      v.GetString("pg-dsn"),
		Production: v.GetBool("production"),
		LogLevel:   v.GetString("log-level"),
	}, nil
}

// PriceConfig holds the price command configuration.
type PriceConfig struct {
	Price    PriceSettings
	IDs      []string
	LogLevel string
}

// LoadPrice loads the price command configuration.
func LoadPrice(cfgFile string, flags *pflag.FlagSet) (PriceConfig, error) {
	v, err := newViper(cfgFile, flags, setPriceDefaults)
	if err != nil {
		return PriceConfig{}, err
	}
	return PriceConfig{
		Price:    priceSettings(v),
		IDs:      getStringSlice(v, "ids"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func setPoolDefaults(v *viper.Viper) {
	v.SetDefault("pools", "./pools.yaml")
	v.SetDefault("production", false)
}

func setPriceDefaults(v *viper.Viper) {
	v.SetDefault("price-url", "https://api.coingecko.com/api/v3")
	v.SetDefault("price-max-attempts", 5)
	v.SetDefault("price-retry-backoff", 500*time.Millisecond)
	v.SetDefault("price-timeout", 10*time.Second)
}

func priceSettings(v *viper.Viper) PriceSettings {
	return PriceSettings{
		URL:          v.GetString("price-url"),
		APIKey:       v.GetString("price-api-key"),
		MaxAttempts:  v.GetInt("price-max-attempts"),
		RetryBackoff: v.GetDuration("price-retry-backoff"),
		Timeout:      v.GetDuration("price-timeout"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
