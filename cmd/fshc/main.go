// Package main implements the fshc CLI tool: it compiles a parsed FSH tank
// into StructureDefinition artifacts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	fshc "github.com/gofhir/fshc"
	"github.com/gofhir/fshc/config"
	"github.com/gofhir/fshc/engine"
	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/logger"
)

const (
	version = "0.1.0"
	usage   = `fshc - FHIR Shorthand compiler core

Usage:
  fshc [options] <tank.json>

The tank file is the JSON output of an FSH parser: documents, aliases, and
entities with their rules. Definitions for external base types are loaded
from -defs.

Examples:
  fshc tank.json
  fshc -config sushi-config.yaml -defs ./definitions tank.json
  fshc -out ./fsh-generated -output json tank.json

Options:
`
)

// cliConfig holds the parsed command line.
type cliConfig struct {
	ConfigFile  string
	DefsDir     string
	OutDir      string
	Canonical   string
	Output      string
	Strict      bool
	NoDiff      bool
	Quiet       bool
	Verbose     bool
	ShowVersion bool
	TankFile    string
}

// compileOutput is the JSON summary structure.
type compileOutput struct {
	Tank      string        `json:"tank"`
	Succeeded bool          `json:"succeeded"`
	Artifacts int           `json:"artifacts"`
	Errors    int           `json:"errors"`
	Warnings  int           `json:"warnings"`
	Issues    []issueOutput `json:"issues,omitempty"`
	Duration  string        `json:"duration"`
}

type issueOutput struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics"`
	Entity      string `json:"entity,omitempty"`
	File        string `json:"file,omitempty"`
	Line        int    `json:"line,omitempty"`
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("fshc v%s\n", version)
		os.Exit(0)
	}
	if cfg.TankFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(cfg))
}

func parseFlags() *cliConfig {
	cfg := &cliConfig{}

	flag.StringVar(&cfg.ConfigFile, "config", "", "Project configuration file (sushi-config.yaml)")
	flag.StringVar(&cfg.DefsDir, "defs", "", "Directory of StructureDefinition JSON files to load")
	flag.StringVar(&cfg.OutDir, "out", "", "Directory to write artifact JSON files to")
	flag.StringVar(&cfg.Canonical, "canonical", "", "Canonical base URL (overrides configuration)")
	flag.StringVar(&cfg.Output, "output", "text", "Output format: text, json")
	flag.BoolVar(&cfg.Strict, "strict", false, "Treat warnings as errors")
	flag.BoolVar(&cfg.NoDiff, "no-differential", false, "Do not emit differential element lists")
	flag.BoolVar(&cfg.Quiet, "quiet", false, "Only show errors")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Show debug output")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 0 {
		cfg.TankFile = flag.Arg(0)
	}
	return cfg
}

func run(cfg *cliConfig) int {
	log := buildLogger(cfg)
	start := time.Now()

	tankData, err := os.ReadFile(cfg.TankFile)
	if err != nil {
		log.Error("cannot read tank: %v", err)
		return 2
	}
	tank, err := fsh.DecodeTank(tankData)
	if err != nil {
		log.Error("cannot decode tank: %v", err)
		return 2
	}

	opts := []fshc.Option{
		fshc.WithStrictMode(cfg.Strict),
		fshc.WithDifferential(!cfg.NoDiff),
	}
	if cfg.ConfigFile != "" {
		proj, err := config.Load(cfg.ConfigFile)
		if err != nil {
			log.Error("cannot load configuration: %v", err)
			return 2
		}
		opts = append(proj.Options(), opts...)
		if tank.Config.Canonical == "" {
			tank.Config = proj.TankConfig()
		}
	}
	if cfg.Canonical != "" {
		opts = append(opts, fshc.WithCanonical(cfg.Canonical))
		tank.Config.Canonical = cfg.Canonical
	}

	compiler, err := engine.New(tank, nil, opts...)
	if err != nil {
		log.Error("cannot create compiler: %v", err)
		return 2
	}
	compiler.SetLogger(log)

	if cfg.DefsDir != "" {
		n, err := compiler.Definitions().LoadFromDir(cfg.DefsDir)
		if err != nil {
			log.Error("cannot load definitions: %v", err)
			return 2
		}
		log.Info("loaded %d definitions from %s", n, cfg.DefsDir)
	}

	result := compiler.Compile()

	if cfg.OutDir != "" {
		if err := writeArtifacts(cfg.OutDir, result); err != nil {
			log.Error("cannot write artifacts: %v", err)
			return 2
		}
	}

	switch cfg.Output {
	case "json":
		printJSON(cfg, result, time.Since(start))
	default:
		printText(cfg, result, time.Since(start))
	}

	if !result.Succeeded() {
		return 1
	}
	return 0
}

func buildLogger(cfg *cliConfig) *logger.Logger {
	level := logger.LevelInfo
	if cfg.Quiet {
		level = logger.LevelError
	}
	if cfg.Verbose {
		level = logger.LevelDebug
	}
	return logger.New(os.Stderr, level)
}

// writeArtifacts writes one JSON file per artifact, named by id.
func writeArtifacts(dir string, result *fshc.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, sd := range result.Artifacts {
		data, err := json.MarshalIndent(sd, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", sd.ID, err)
		}
		name := filepath.Join(dir, "StructureDefinition-"+sd.ID+".json")
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func printText(cfg *cliConfig, result *fshc.Result, elapsed time.Duration) {
	for _, issue := range result.Issues {
		if cfg.Quiet && !issue.IsError() {
			continue
		}
		fmt.Println(issue.String())
	}
	fmt.Printf("%d artifacts, %d errors, %d warnings (%s)\n",
		len(result.Artifacts), result.ErrorCount(), result.WarningCount(),
		elapsed.Round(time.Millisecond))
}

func printJSON(cfg *cliConfig, result *fshc.Result, elapsed time.Duration) {
	out := compileOutput{
		Tank:      cfg.TankFile,
		Succeeded: result.Succeeded(),
		Artifacts: len(result.Artifacts),
		Errors:    result.ErrorCount(),
		Warnings:  result.WarningCount(),
		Duration:  elapsed.Round(time.Millisecond).String(),
	}
	for _, issue := range result.Issues {
		out.Issues = append(out.Issues, issueOutput{
			Severity:    string(issue.Severity),
			Code:        string(issue.Code),
			Diagnostics: issue.Diagnostics,
			Entity:      issue.Entity,
			File:        issue.File,
			Line:        issue.Line,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
