package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigWithoutPathReturnsBase(t *testing.T) {
	base := defaultConfig("memory")
	cfg, err := loadConfig("", base)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg != base {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigOverlaysSections(t *testing.T) {
	path := writeConfig(t, `
[store]
kind = memory
db_path = /tmp/organisms.db

[generate]
inputs = 5
seed = 42
activation = tanh

[learn]
rate = 0.2
rule = hebbian
saturation_limit = 4
`)

	cfg, err := loadConfig(path, defaultConfig("sqlite"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Store.Kind != "memory" || cfg.Store.DBPath != "/tmp/organisms.db" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Generate.Inputs != 5 || cfg.Generate.Seed != 42 {
		t.Fatalf("unexpected generate config: %+v", cfg.Generate)
	}
	if cfg.Generate.Outputs != 1 {
		t.Fatalf("missing key should keep default outputs, got %d", cfg.Generate.Outputs)
	}
	if cfg.Generate.Activation != "tanh" {
		t.Fatalf("unexpected activation: %q", cfg.Generate.Activation)
	}
	if cfg.Learn.Rate != 0.2 || cfg.Learn.Rule != "hebbian" || cfg.Learn.SaturationLimit != 4 {
		t.Fatalf("unexpected learn config: %+v", cfg.Learn)
	}
	if cfg.Learn.Steps != 1 || cfg.Evaluate.Workers != 1 {
		t.Fatalf("missing sections should keep defaults: %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.ini"), defaultConfig("memory")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigRejectsBadValue(t *testing.T) {
	path := writeConfig(t, "[evaluate]\nworkers = many\n")
	if _, err := loadConfig(path, defaultConfig("memory")); err == nil {
		t.Fatal("expected error for non-numeric workers")
	}
}

func TestResolveConfigFlagsWinOverFile(t *testing.T) {
	path := writeConfig(t, "[learn]\nrate = 0.2\nsteps = 7\n\n[store]\nkind = memory\n")

	fs := flag.NewFlagSet("learn", flag.ContinueOnError)
	common := addCommonFlags(fs)
	rate := fs.Float64("rate", 0.01, "")
	steps := fs.Int("steps", 1, "")
	if err := fs.Parse([]string{"-config", path, "-rate", "0.5"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := resolveConfig(fs, common, map[string]any{"rate": *rate, "steps": *steps})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.Learn.Rate != 0.5 {
		t.Fatalf("explicit flag should win, got rate=%f", cfg.Learn.Rate)
	}
	if cfg.Learn.Steps != 7 {
		t.Fatalf("unset flag should not override file, got steps=%d", cfg.Learn.Steps)
	}
	if cfg.Store.Kind != "memory" {
		t.Fatalf("unexpected store kind: %s", cfg.Store.Kind)
	}
}

func TestOverrideFromFlagsIgnoresUnsetFlags(t *testing.T) {
	cfg := defaultConfig("memory")
	overrideFromFlags(&cfg, map[string]bool{"seed": true, "workers": true}, map[string]any{
		"seed":       int64(99),
		"workers":    4,
		"activation": "relu",
	})
	if cfg.Generate.Seed != 99 || cfg.Evaluate.Workers != 4 {
		t.Fatalf("expected set flags to apply: %+v", cfg)
	}
	if cfg.Generate.Activation != "identity" {
		t.Fatalf("unset flag applied: %s", cfg.Generate.Activation)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "copperhorn.ini")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
