package main

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

type cliConfig struct {
	Store    storeConfig
	Generate generateConfig
	Evaluate evaluateConfig
	Learn    learnConfig
}

type storeConfig struct {
	Kind   string `ini:"kind"`
	DBPath string `ini:"db_path"`
}

type generateConfig struct {
	Inputs     int    `ini:"inputs"`
	Outputs    int    `ini:"outputs"`
	Seed       int64  `ini:"seed"`
	Activation string `ini:"activation"`
}

type evaluateConfig struct {
	Workers int `ini:"workers"`
}

type learnConfig struct {
	Rate            float64 `ini:"rate"`
	Steps           int     `ini:"steps"`
	Rule            string  `ini:"rule"`
	SaturationLimit float64 `ini:"saturation_limit"`
}

func defaultConfig(storeKind string) cliConfig {
	return cliConfig{
		Store:    storeConfig{Kind: storeKind, DBPath: "copperhorn.db"},
		Generate: generateConfig{Inputs: 2, Outputs: 1, Seed: 1, Activation: "identity"},
		Evaluate: evaluateConfig{Workers: 1},
		Learn:    learnConfig{Rate: 0.01, Steps: 1, Rule: "oja"},
	}
}

// loadConfig overlays the sections of an INI file on base. Keys missing from
// the file keep their base values.
func loadConfig(path string, base cliConfig) (cliConfig, error) {
	if path == "" {
		return base, nil
	}
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg := base
	sections := []struct {
		name   string
		target any
	}{
		{name: "store", target: &cfg.Store},
		{name: "generate", target: &cfg.Generate},
		{name: "evaluate", target: &cfg.Evaluate},
		{name: "learn", target: &cfg.Learn},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).StrictMapTo(s.target); err != nil {
			return cliConfig{}, fmt.Errorf("map [%s] section: %w", s.name, err)
		}
	}

	cfg.Store.Kind = strings.TrimSpace(cfg.Store.Kind)
	cfg.Generate.Activation = strings.TrimSpace(cfg.Generate.Activation)
	cfg.Learn.Rule = strings.TrimSpace(cfg.Learn.Rule)
	return cfg, nil
}

// overrideFromFlags copies explicitly set flag values over cfg.
func overrideFromFlags(cfg *cliConfig, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "store":
			cfg.Store.Kind = v.(string)
		case "db-path":
			cfg.Store.DBPath = v.(string)
		case "inputs":
			cfg.Generate.Inputs = v.(int)
		case "outputs":
			cfg.Generate.Outputs = v.(int)
		case "seed":
			cfg.Generate.Seed = v.(int64)
		case "activation":
			cfg.Generate.Activation = v.(string)
		case "workers":
			cfg.Evaluate.Workers = v.(int)
		case "rate":
			cfg.Learn.Rate = v.(float64)
		case "steps":
			cfg.Learn.Steps = v.(int)
		case "rule":
			cfg.Learn.Rule = v.(string)
		case "saturation-limit":
			cfg.Learn.SaturationLimit = v.(float64)
		}
	}
}
