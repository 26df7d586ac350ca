package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"poolNotifier/internal/config"
	"poolNotifier/internal/notify"
)

func TestRedactURL(t *testing.T) {
	cases := map[string]string{
		"wss://eth-mainnet.example.com/v2/secret-key": "wss://eth-mainnet.example.com",
		"http://localhost:8545":                       "http://localhost:8545",
		"not a url":                                   "<redacted>",
	}
	for in, want := range cases {
		if got := redactURL(in); got != want {
			t.Fatalf("redactURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildSenders(t *testing.T) {
	logger := zap.NewNop()

	primary, diagnostic := buildSenders(config.Config{DiscordWebhook: "https://discord.example/hook"}, logger)
	if _, ok := primary.(*notify.Webhook); !ok {
		t.Fatalf("primary should be a webhook, got %T", primary)
	}
	if diagnostic != nil {
		t.Fatalf("diagnostic should be nil without destinations, got %T", diagnostic)
	}

	_, diagnostic = buildSenders(config.Config{
		DiscordWebhook:    "https://discord.example/hook",
		DiscordLogWebhook: "https://discord.example/log",
		DiagnosticFile:    filepath.Join(t.TempDir(), "diag.jsonl"),
	}, logger)
	fan, ok := diagnostic.(notify.Fanout)
	if !ok || len(fan) != 2 {
		t.Fatalf("expected webhook and file diagnostics, got %#v", diagnostic)
	}

	primary, diagnostic = buildSenders(config.Config{DryRun: true}, logger)
	if _, ok := primary.(*notify.LogSink); !ok {
		t.Fatalf("dry run primary should be a log sink, got %T", primary)
	}
	if diagnostic == nil {
		t.Fatalf("dry run should log diagnostics")
	}
}

func TestMetricsMux(t *testing.T) {
	server := httptest.NewServer(metricsMux())
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status mismatch: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type mismatch: %s", ct)
	}
}
