// Command dstc is the CLI for the DSTC5 toolkit.
// It runs the baseline trackers, validates and scores tracker output, and
// converts corpora between task formats.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/dstckit/internal/archive"
	"github.com/FocuswithJustin/dstckit/internal/config"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/metrics"
	"github.com/FocuswithJustin/dstckit/internal/ontology"
)

const version = "0.5.0"

// stdout receives command output.
var stdout io.Writer = os.Stdout

// Globals are the flags shared by every command. Non-empty values override
// the layered configuration files.
type Globals struct {
	Config      string `name:"config" help:"Configuration file (YAML)" type:"path"`
	LogLevel    string `name:"log-level" help:"Log level: debug, info, warn, error"`
	LogFormat   string `name:"log-format" help:"Log format: text or json"`
	Workers     int    `help:"Sessions processed concurrently (0 = one per CPU)"`
	DataRoot    string `name:"dataroot" help:"Corpus directory holding one directory per session" type:"path"`
	ConfigDir   string `name:"config-dir" help:"Directory holding the <dataset>.flist files" type:"path"`
	Ontology    string `help:"Ontology JSON file" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus counters to this textfile on exit" type:"path"`
}

// CLI defines the command-line interface for dstc.
var CLI struct {
	Globals

	// Command groups (noun-first organization)
	Baseline BaselineGroup `cmd:"" help:"Run the baseline trackers"`
	Check    CheckGroup    `cmd:"" help:"Validate tracker output files"`
	Score    ScoreGroup    `cmd:"" help:"Score tracker output against the labels"`
	Convert  ConvertGroup  `cmd:"" help:"Convert corpora between task formats"`
	Report   ReportGroup   `cmd:"" help:"Browse stored score reports"`
	Tag      TagGroup      `cmd:"" help:"Semantic tag debugging helpers"`
	Bleu     BleuCmd       `cmd:"" help:"Score NIST mteval sets with BLEU"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// env is the resolved configuration of one command run.
type env struct {
	cfg     *config.Config
	metrics *metrics.Registry
}

// load resolves the configuration, applies the flag overrides and
// configures logging.
func (g *Globals) load() (*env, error) {
	cfg, err := config.NewLoader(logging.GetLogger()).Load(g.Config)
	if err != nil {
		return nil, err
	}
	cfg.Merge(&config.Config{
		Data:     config.DataConfig{Root: g.DataRoot, ConfigDir: g.ConfigDir, Ontology: g.Ontology},
		Baseline: config.BaselineConfig{Workers: g.Workers},
		Log:      config.LogConfig{Level: g.LogLevel, Format: g.LogFormat},
		Report:   config.ReportConfig{MetricsFile: g.MetricsFile},
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return nil, err
	}
	return &env{cfg: cfg, metrics: metrics.New()}, nil
}

// walker opens the sessions of datasets, a single dataset name or a JSON
// list of names.
func (e *env) walker(datasets string, task dataset.Task, role string, labels, translations bool) (*dataset.Walker, error) {
	names, err := dataset.ParseDatasets(datasets)
	if err != nil {
		return nil, err
	}
	var r dataset.Role
	if role != "" {
		if r, err = dataset.ParseRole(role); err != nil {
			return nil, err
		}
	}
	return dataset.New(names, dataset.Options{
		Root:         e.cfg.Data.Root,
		ConfigDir:    e.cfg.Data.ConfigDir,
		Task:         task,
		Role:         r,
		Labels:       labels,
		Translations: translations,
		Logger:       logging.GetLogger(),
	})
}

func (e *env) ontology() (*ontology.Ontology, error) {
	if e.cfg.Data.Ontology == "" {
		return nil, fmt.Errorf("no ontology configured (use --ontology or data.ontology)")
	}
	return ontology.Load(e.cfg.Data.Ontology)
}

// finish exports the run's counters when a metrics file is configured and
// returns err unchanged otherwise.
func (e *env) finish(err error) error {
	if e.cfg.Report.MetricsFile == "" {
		return err
	}
	if werr := e.metrics.WriteToTextfile(e.cfg.Report.MetricsFile); werr != nil && err == nil {
		return fmt.Errorf("failed to write metrics: %w", werr)
	}
	return err
}

// readAll returns the decompressed content of a corpus or output file.
func readAll(path string) ([]byte, error) {
	r, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// output returns the writer for path, stdout when path is empty or "-".
func output(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "dstc version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("dstc"),
		kong.Description("DSTC5 toolkit - baselines, checkers and scorers for the dialog state tracking challenge"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
