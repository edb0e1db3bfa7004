package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"copperhorn/internal/storage"
	chapi "copperhorn/pkg/copperhorn"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "generate":
		return runGenerate(ctx, args[1:])
	case "evaluate":
		return runEvaluate(ctx, args[1:])
	case "learn":
		return runLearn(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "import":
		return runImport(ctx, args[1:])
	case "list":
		return runList(ctx, args[1:])
	case "delete":
		return runDelete(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type commonFlags struct {
	config *string
	store  *string
	dbPath *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config: fs.String("config", "", "optional INI config path"),
		store:  fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath: fs.String("db-path", "copperhorn.db", "sqlite database path"),
	}
}

// resolveConfig layers defaults, the optional config file and explicitly set
// flags, in that order.
func resolveConfig(fs *flag.FlagSet, common commonFlags, values map[string]any) (cliConfig, error) {
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadConfig(*common.config, defaultConfig(storage.DefaultStoreKind()))
	if err != nil {
		return cliConfig{}, err
	}
	if values == nil {
		values = make(map[string]any)
	}
	values["store"] = *common.store
	values["db-path"] = *common.dbPath
	overrideFromFlags(&cfg, setFlags, values)
	return cfg, nil
}

func openClient(ctx context.Context, storeKind, dbPath string) (*chapi.Client, error) {
	client, err := chapi.New(chapi.Options{StoreKind: storeKind, DBPath: dbPath})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// openFileClient loads an organism file into a throwaway in-memory store.
func openFileClient(ctx context.Context, path, format string) (*chapi.Client, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	client, err := openClient(ctx, "memory", "")
	if err != nil {
		return nil, "", err
	}
	id, err := client.Import(ctx, chapi.ImportRequest{Format: formatFor(path, format), Data: data})
	if err != nil {
		_ = client.Close()
		return nil, "", fmt.Errorf("import %s: %w", path, err)
	}
	return client, id, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := resolveConfig(fs, common, nil)
	if err != nil {
		return err
	}

	client, err := openClient(ctx, cfg.Store.Kind, cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	fmt.Printf("initialized store=%s\n", cfg.Store.Kind)
	return nil
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	common := addCommonFlags(fs)
	id := fs.String("id", "", "organism id (default: random uuid)")
	inputs := fs.Int("inputs", 2, "input vector width")
	outputs := fs.Int("outputs", 1, "output vector width")
	seed := fs.Int64("seed", 1, "rng seed")
	activation := fs.String("activation", "identity", "activation: identity|tanh|sigmoid|relu")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := resolveConfig(fs, common, map[string]any{
		"inputs":     *inputs,
		"outputs":    *outputs,
		"seed":       *seed,
		"activation": *activation,
	})
	if err != nil {
		return err
	}

	client, err := openClient(ctx, cfg.Store.Kind, cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Generate(ctx, chapi.GenerateRequest{
		ID:         *id,
		Inputs:     cfg.Generate.Inputs,
		Outputs:    cfg.Generate.Outputs,
		Seed:       cfg.Generate.Seed,
		Activation: cfg.Generate.Activation,
	})
	if err != nil {
		return err
	}
	fmt.Printf("generated id=%s outputs=%d connections=%d\n", summary.ID, summary.Outputs, summary.Connections)
	return nil
}

func runEvaluate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	common := addCommonFlags(fs)
	id := fs.String("id", "", "stored organism id")
	file := fs.String("file", "", "evaluate an organism file instead of a stored organism")
	format := fs.String("format", "", "organism file format: json|yaml (default: from extension)")
	input := fs.String("input", "", "comma-separated input vector")
	workers := fs.Int("workers", 1, "fire independent neurons on this many goroutines")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := resolveConfig(fs, common, map[string]any{"workers": *workers})
	if err != nil {
		return err
	}
	xs, err := parseFloatList(*input)
	if err != nil {
		return err
	}

	client, organismID, err := clientFor(ctx, cfg, *id, *file, *format)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	out, err := client.Evaluate(ctx, chapi.EvaluateRequest{ID: organismID, Input: xs, Workers: cfg.Evaluate.Workers})
	if err != nil {
		return err
	}
	fmt.Printf("outputs=%s\n", formatFloatList(out))
	return nil
}

func runLearn(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("learn", flag.ContinueOnError)
	common := addCommonFlags(fs)
	id := fs.String("id", "", "stored organism id")
	file := fs.String("file", "", "adapt an organism file instead of a stored organism")
	format := fs.String("format", "", "organism file format: json|yaml (default: from extension)")
	out := fs.String("out", "", "where to write the adapted organism file (default: -file)")
	input := fs.String("input", "", "comma-separated input vector")
	rate := fs.Float64("rate", 0.01, "learning rate")
	steps := fs.Int("steps", 1, "learning passes over the input")
	rule := fs.String("rule", "oja", "plasticity rule: oja|hebbian|none")
	saturationLimit := fs.Float64("saturation-limit", 0, "clamp adapted weights to [-limit, limit] (0 disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := resolveConfig(fs, common, map[string]any{
		"rate":             *rate,
		"steps":            *steps,
		"rule":             *rule,
		"saturation-limit": *saturationLimit,
	})
	if err != nil {
		return err
	}
	xs, err := parseFloatList(*input)
	if err != nil {
		return err
	}

	client, organismID, err := clientFor(ctx, cfg, *id, *file, *format)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Learn(ctx, chapi.LearnRequest{
		ID:              organismID,
		Input:           xs,
		Rate:            cfg.Learn.Rate,
		Steps:           cfg.Learn.Steps,
		Rule:            cfg.Learn.Rule,
		SaturationLimit: cfg.Learn.SaturationLimit,
	})
	if err != nil {
		return err
	}

	if *file != "" {
		target := *out
		if target == "" {
			target = *file
		}
		data, err := client.Export(ctx, chapi.ExportRequest{ID: organismID, Format: formatFor(target, *format)})
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
	}
	fmt.Printf("learned id=%s steps=%d outputs=%s\n", summary.ID, summary.Steps, formatFloatList(summary.Outputs))
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	common := addCommonFlags(fs)
	id := fs.String("id", "", "stored organism id")
	format := fs.String("format", "json", "export format: json|yaml")
	out := fs.String("out", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := resolveConfig(fs, common, nil)
	if err != nil {
		return err
	}

	client, err := openClient(ctx, cfg.Store.Kind, cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	data, err := client.Export(ctx, chapi.ExportRequest{ID: *id, Format: *format})
	if err != nil {
		return err
	}
	if *out == "" {
		fmt.Println(strings.TrimRight(string(data), "\n"))
		return nil
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported id=%s path=%s\n", *id, *out)
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	common := addCommonFlags(fs)
	file := fs.String("file", "", "organism file to import")
	format := fs.String("format", "", "organism file format: json|yaml (default: from extension)")
	id := fs.String("id", "", "override the id stored in the file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("import requires -file")
	}
	cfg, err := resolveConfig(fs, common, nil)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	client, err := openClient(ctx, cfg.Store.Kind, cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	imported, err := client.Import(ctx, chapi.ImportRequest{ID: *id, Format: formatFor(*file, *format), Data: data})
	if err != nil {
		return err
	}
	fmt.Printf("imported id=%s\n", imported)
	return nil
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := resolveConfig(fs, common, nil)
	if err != nil {
		return err
	}

	client, err := openClient(ctx, cfg.Store.Kind, cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.List(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Printf("id=%s activation=%s hidden=%d outputs=%d\n", item.ID, item.Activation, item.HiddenCount, item.OutputCount)
	}
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	common := addCommonFlags(fs)
	id := fs.String("id", "", "stored organism id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("delete requires -id")
	}
	cfg, err := resolveConfig(fs, common, nil)
	if err != nil {
		return err
	}

	client, err := openClient(ctx, cfg.Store.Kind, cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("deleted id=%s\n", *id)
	return nil
}

func clientFor(ctx context.Context, cfg cliConfig, id, file, format string) (*chapi.Client, string, error) {
	switch {
	case file != "" && id != "":
		return nil, "", errors.New("use either -id or -file, not both")
	case file != "":
		return openFileClient(ctx, file, format)
	case id != "":
		client, err := openClient(ctx, cfg.Store.Kind, cfg.Store.DBPath)
		return client, id, err
	default:
		return nil, "", errors.New("an organism -id or -file is required")
	}
}

func formatFor(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func parseFloatList(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("parse input value %q: %w", part, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func formatFloatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: copperhornctl <init|generate|evaluate|learn|export|import|list|delete> [flags]", msg)
}
