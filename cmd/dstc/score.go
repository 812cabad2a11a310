package main

import (
	"context"
	"fmt"

	"github.com/FocuswithJustin/dstckit/core/cas"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/report"
	"github.com/FocuswithJustin/dstckit/internal/score"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// ScoreGroup contains the scorers.
type ScoreGroup struct {
	Main ScoreMainCmd `cmd:"" help:"Score a main-task tracker file"`
	SLU  ScoreSLUCmd  `cmd:"" help:"Score an SLU output file"`
	SAP  ScoreSAPCmd  `cmd:"" help:"Score an SAP output file"`
	SLG  ScoreSLGCmd  `cmd:"" help:"Score an SLG output file"`
}

// ScoreFlags are shared by every scorer.
type ScoreFlags struct {
	Dataset   string `required:"" help:"Dataset the system ran on (name or JSON list)"`
	Trackfile string `required:"" help:"File containing tracker JSON output" type:"existingfile"`
	Scorefile string `help:"File to write with CSV scoring data (default stdout)" type:"path"`
	Database  string `help:"SQLite file receiving the score rows (overrides report.database)" type:"path"`
	Archive   string `help:"Directory keeping a copy of every scored file (overrides report.archive)" type:"path"`
}

// ScoreMainCmd scores frame labels per topic, slot and schedule.
type ScoreMainCmd struct {
	ScoreFlags `embed:""`
}

func (c *ScoreMainCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(c.run(ctx, e))
}

func (c *ScoreMainCmd) run(ctx context.Context, e *env) error {
	ont, err := e.ontology()
	if err != nil {
		return err
	}
	w, err := e.walker(c.Dataset, dataset.TaskMain, "", true, false)
	if err != nil {
		return err
	}
	out, err := track.Read[track.MainUtterance](c.Trackfile)
	if err != nil {
		return err
	}
	tbl, err := score.Main(ctx, w, out, ont, e.scoreOptions())
	if err != nil {
		return err
	}
	return c.publish(ctx, e, tbl)
}

func (e *env) scoreOptions() score.Options {
	return score.Options{Metrics: e.metrics}
}

// PilotScoreFlags add the role to the scorer flags.
type PilotScoreFlags struct {
	ScoreFlags `embed:""`
	Roletype   string `required:"" enum:"GUIDE,TOURIST" help:"Role the system played"`
}

// scorePilot reads the output file and scores it with fn.
func scorePilot[U any](ctx context.Context, e *env, f PilotScoreFlags, task dataset.Task,
	fn func(context.Context, *dataset.Walker, *track.Output[U], score.Options) (*score.Table, error)) error {
	w, err := e.walker(f.Dataset, task, f.Roletype, true, false)
	if err != nil {
		return err
	}
	out, err := track.Read[U](f.Trackfile)
	if err != nil {
		return err
	}
	tbl, err := fn(ctx, w, out, e.scoreOptions())
	if err != nil {
		return err
	}
	return f.publish(ctx, e, tbl)
}

// ScoreSLUCmd scores speech acts and semantic tags.
type ScoreSLUCmd struct {
	PilotScoreFlags `embed:""`
}

func (c *ScoreSLUCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(scorePilot(ctx, e, c.PilotScoreFlags, dataset.TaskSLU, score.SLU))
}

// ScoreSAPCmd scores predicted speech acts.
type ScoreSAPCmd struct {
	PilotScoreFlags `embed:""`
}

func (c *ScoreSAPCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(scorePilot(ctx, e, c.PilotScoreFlags, dataset.TaskSAP, score.SAP))
}

// ScoreSLGCmd scores generated utterances with sentence BLEU.
type ScoreSLGCmd struct {
	PilotScoreFlags `embed:""`
}

func (c *ScoreSLGCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(scorePilot(ctx, e, c.PilotScoreFlags, dataset.TaskSLG, score.SLG))
}

// publish writes the CSV and, when configured, stores the rows and
// archives the scored file.
func (f *ScoreFlags) publish(ctx context.Context, e *env, tbl *score.Table) error {
	w, err := output(f.Scorefile)
	if err != nil {
		return err
	}
	if err := tbl.WriteCSV(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	database := firstSet(f.Database, e.cfg.Report.Database)
	archiveDir := firstSet(f.Archive, e.cfg.Report.Archive)
	if database == "" && archiveDir == "" {
		return nil
	}
	data, err := readAll(f.Trackfile)
	if err != nil {
		return err
	}
	run := report.NewRun(f.Trackfile, data)

	if archiveDir != "" {
		store, err := cas.NewStore(archiveDir)
		if err != nil {
			return err
		}
		digest, err := store.Put(data)
		if err != nil {
			return err
		}
		logging.InfoContext(ctx, "track_file_archived", "sha256", digest.SHA256, "fingerprint", digest.BLAKE3)
	}

	if database != "" {
		store, err := report.Open(ctx, database)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(ctx, run, tbl); err != nil {
			return err
		}
		logging.InfoContext(ctx, "report_saved", "run_id", run.ID, "rows", len(tbl.Rows), "database", database)
	}
	return nil
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ReportGroup browses the score database and the archive.
type ReportGroup struct {
	Runs  ReportRunsCmd  `cmd:"" help:"List stored scoring runs"`
	Show  ReportShowCmd  `cmd:"" help:"Print the CSV of a stored run"`
	Fetch ReportFetchCmd `cmd:"" help:"Print an archived tracker file by fingerprint"`
}

// ReportRunsCmd lists runs, optionally only those of one tracker file.
type ReportRunsCmd struct {
	Database    string `help:"SQLite score database (overrides report.database)" type:"path"`
	Fingerprint string `help:"Only list runs of the file with this BLAKE3 fingerprint"`
}

func (c *ReportRunsCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	store, err := openReport(ctx, e, c.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx, c.Fingerprint)
	if err != nil {
		return err
	}
	for _, r := range runs {
		role := string(r.Role)
		if role == "" {
			role = "-"
		}
		fmt.Fprintf(stdout, "%s  %s  %-4s %-7s %-16s %s  %s\n",
			r.ID, r.ScoredAt.Format("2006-01-02T15:04:05Z"), r.Task, role, r.Dataset, r.Fingerprint, r.TrackFile)
	}
	return nil
}

// ReportShowCmd reprints a stored table.
type ReportShowCmd struct {
	Database string `help:"SQLite score database (overrides report.database)" type:"path"`
	RunID    string `arg:"" name:"run-id" help:"Run id as listed by report runs"`
}

func (c *ReportShowCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	store, err := openReport(ctx, e, c.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	tbl, err := store.Table(ctx, c.RunID)
	if err != nil {
		return err
	}
	return tbl.WriteCSV(stdout)
}

func openReport(ctx context.Context, e *env, flag string) (*report.Store, error) {
	database := firstSet(flag, e.cfg.Report.Database)
	if database == "" {
		return nil, fmt.Errorf("no score database configured (use --database or report.database)")
	}
	return report.Open(ctx, database)
}

// ReportFetchCmd writes an archived tracker file to stdout or --out.
type ReportFetchCmd struct {
	Archive     string `help:"Archive directory (overrides report.archive)" type:"path"`
	Fingerprint string `arg:"" help:"BLAKE3 fingerprint of the file"`
	Out         string `help:"File to write (default stdout)" type:"path"`
}

func (c *ReportFetchCmd) Run(g *Globals) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	dir := firstSet(c.Archive, e.cfg.Report.Archive)
	if dir == "" {
		return fmt.Errorf("no archive configured (use --archive or report.archive)")
	}
	store, err := cas.NewStore(dir)
	if err != nil {
		return err
	}
	data, err := store.GetByFingerprint(c.Fingerprint)
	if err != nil {
		return err
	}
	w, err := output(c.Out)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
