package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func runFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("pools", "./pools.yaml", "")
	flags.Bool("production", false, "")
	flags.String("discord-webhook", "", "")
	flags.Uint64("batch-size", 2000, "")
	flags.Bool("dry-run", false, "")
	return flags
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfgFile := writeFile(t, "config.yaml", "rpc: wss://node.example\n")

	cfg, err := Load(cfgFile, runFlags())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.RPCURL != "wss://node.example" {
		t.Fatalf("rpc mismatch: %s", cfg.RPCURL)
	}
	if cfg.Price.MaxAttempts != 5 || cfg.Price.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("price defaults mismatch: %+v", cfg.Price)
	}
	if cfg.Price.URL != "https://api.coingecko.com/api/v3" {
		t.Fatalf("price url mismatch: %s", cfg.Price.URL)
	}
	if cfg.DiagnosticPolicy != "always" || cfg.WatchMode != "auto" {
		t.Fatalf("policy/mode defaults mismatch: %+v", cfg)
	}
	if cfg.PollInterval != 12*time.Second || cfg.BatchSize != 2000 || cfg.SendRate != 1 {
		t.Fatalf("watch defaults mismatch: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.Production {
		t.Fatalf("defaults mismatch: %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	cfgFile := writeFile(t, "config.yaml", "rpc: wss://file.example\nfooter-text: from file\nprice-max-attempts: 3\n")
	t.Setenv("NOTIFIER_RPC", "wss://env.example")
	t.Setenv("NOTIFIER_PRICE_API_KEY", "secret")
	t.Setenv("NOTIFIER_PRODUCTION", "true")

	flags := runFlags()
	if err := flags.Parse([]string{"--rpc", "wss://flag.example", "--batch-size", "50"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(cfgFile, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.RPCURL != "wss://flag.example" {
		t.Fatalf("flag should win: %s", cfg.RPCURL)
	}
	if cfg.Price.APIKey != "secret" || !cfg.Production {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.FooterText != "from file" || cfg.Price.MaxAttempts != 3 {
		t.Fatalf("file not applied: %+v", cfg)
	}
	if cfg.BatchSize != 50 {
		t.Fatalf("batch size mismatch: %d", cfg.BatchSize)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatalf("expected error for explicit missing config file")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		RPCURL:         "wss://node",
		PoolsFile:      "pools.yaml",
		DiscordWebhook: "https://discord.example/hook",
		BatchSize:      10,
		PollInterval:   time.Second,
		Price:          PriceSettings{MaxAttempts: 5},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	dry := valid
	dry.DiscordWebhook = ""
	if err := dry.Validate(); err == nil {
		t.Fatalf("expected error for missing webhook")
	}
	dry.DryRun = true
	if err := dry.Validate(); err != nil {
		t.Fatalf("dry run should not need a webhook: %v", err)
	}

	noPools := valid
	noPools.PoolsFile = ""
	if err := noPools.Validate(); err == nil {
		t.Fatalf("expected error for missing pools source")
	}
	noPools.PGDSN = "postgres://localhost/notifier"
	if err := noPools.Validate(); err != nil {
		t.Fatalf("pg dsn should satisfy pools source: %v", err)
	}

	noRPC := valid
	noRPC.RPCURL = ""
	if err := noRPC.Validate(); err == nil {
		t.Fatalf("expected error for missing rpc")
	}
}

func TestLoadPriceIDs(t *testing.T) {
	flags := pflag.NewFlagSet("price", pflag.ContinueOnError)
	flags.StringSlice("ids", nil, "")
	if err := flags.Parse([]string{"--ids", "usd-coin, tether,,dai"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfgFile := writeFile(t, "config.yaml", "log-level: debug\n")

	cfg, err := LoadPrice(cfgFile, flags)
	if err != nil {
		t.Fatalf("load price: %v", err)
	}
	if !reflect.DeepEqual(cfg.IDs, []string{"usd-coin", "tether", "dai"}) {
		t.Fatalf("ids mismatch: %v", cfg.IDs)
	}
	if cfg.LogLevel != "debug" || cfg.Price.MaxAttempts != 5 {
		t.Fatalf("price config mismatch: %+v", cfg)
	}
}

func TestLoadCheck(t *testing.T) {
	cfgFile := writeFile(t, "config.yaml", "rpc: https://node\npools: /etc/pools.json\nproduction: true\n")

	cfg, err := LoadCheck(cfgFile, nil)
	if err != nil {
		t.Fatalf("load check: %v", err)
	}
	if cfg.RPCURL != "https://node" || cfg.PoolsFile != "/etc/pools.json" || !cfg.Production {
		t.Fatalf("check config mismatch: %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "NOTIFIER_TEST_DOTENV=loaded\n")
	t.Setenv("NOTIFIER_TEST_DOTENV", "")
	os.Unsetenv("NOTIFIER_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("NOTIFIER_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("dotenv value mismatch: %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing dotenv should be ignored: %v", err)
	}
}
