package config

import "testing"

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.EnrichConcurrency != 5 {
		t.Fatalf("expected default enrich_concurrency 5, got %d", cfg.EnrichConcurrency)
	}
	if cfg.MPVBinary != "mpv" {
		t.Fatalf("expected default mpv_binary 'mpv', got %q", cfg.MPVBinary)
	}
	if len(cfg.ChannelPrefixes) != 2 {
		t.Fatalf("expected 2 default channel prefixes, got %v", cfg.ChannelPrefixes)
	}
}

func TestLoadHonorsEnvOverride(t *testing.T) {
	t.Setenv("YP_MPV_BINARY", "/opt/bin/mpv")
	t.Setenv("YP_ENRICH_CONCURRENCY", "8")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MPVBinary != "/opt/bin/mpv" {
		t.Fatalf("expected env override for mpv_binary, got %q", cfg.MPVBinary)
	}
	if cfg.EnrichConcurrency != 8 {
		t.Fatalf("expected env override for enrich_concurrency, got %d", cfg.EnrichConcurrency)
	}
}
