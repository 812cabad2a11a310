package main

import (
	"context"
	"fmt"

	"github.com/FocuswithJustin/dstckit/internal/baseline"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// BaselineGroup contains the baseline trackers.
type BaselineGroup struct {
	Main BaselineMainCmd `cmd:"" help:"Fuzzy-match ontology values in the main task"`
	SLU  BaselineSLUCmd  `cmd:"" help:"Train and run the spoken language understanding baseline"`
	SAP  BaselineSAPCmd  `cmd:"" help:"Train and run the speech act prediction baseline"`
	SLG  BaselineSLGCmd  `cmd:"" help:"Train and run the spoken language generation baseline"`
}

// BaselineMainCmd runs the main-task tracker.
type BaselineMainCmd struct {
	Dataset   string `required:"" help:"Dataset to track (name or JSON list)"`
	Trackfile string `required:"" help:"File to write with tracker output" type:"path"`
	Method    int    `default:"1" enum:"1,2" help:"1 matches translations, 2 matches transcripts"`
	Threshold int    `help:"Partial-ratio threshold (0 = baseline.fuzzy_threshold)"`
}

func (c *BaselineMainCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(c.run(ctx, e))
}

func (c *BaselineMainCmd) run(ctx context.Context, e *env) error {
	ont, err := e.ontology()
	if err != nil {
		return err
	}
	threshold := c.Threshold
	if threshold == 0 {
		threshold = e.cfg.Baseline.FuzzyThreshold
	}
	m, err := baseline.NewMatcher(c.Method, ont, threshold)
	if err != nil {
		return err
	}
	w, err := e.walker(c.Dataset, dataset.TaskMain, "", false, c.Method == baseline.MethodTranslation)
	if err != nil {
		return err
	}
	out, err := baseline.RunMain(ctx, c.Dataset, w, m, e.baselineOptions())
	if err != nil {
		return err
	}
	return out.Write(c.Trackfile)
}

func (e *env) baselineOptions() baseline.Options {
	return baseline.Options{Workers: e.cfg.Baseline.Workers, Metrics: e.metrics}
}

// PilotFlags are shared by the trained pilot-task baselines. With
// --load the model is read from --modelfile instead of being trained.
type PilotFlags struct {
	Trainset  string `help:"Training dataset (name or JSON list)"`
	Testset   string `required:"" help:"Test dataset (name or JSON list)"`
	Roletype  string `required:"" enum:"GUIDE,TOURIST" help:"Role the system plays"`
	Modelfile string `help:"Model file to write after training, or to read with --load" type:"path"`
	Load      bool   `help:"Load the model from --modelfile instead of training"`
	Outfile   string `required:"" help:"File to write with tracker output" type:"path"`
}

// pilotBaseline trains or loads a model, runs it over the test set and
// writes the output.
func pilotBaseline[M, U any](ctx context.Context, e *env, f PilotFlags, task dataset.Task,
	trainOpts, testOpts [2]bool,
	train func(context.Context, *dataset.Walker, baseline.Options) (*M, error),
	run func(context.Context, string, *dataset.Walker, *M, baseline.Options) (*track.Output[U], error)) error {
	opts := e.baselineOptions()

	var model *M
	switch {
	case f.Load:
		if f.Modelfile == "" {
			return fmt.Errorf("--load needs --modelfile")
		}
		m, err := baseline.LoadModel[M](f.Modelfile)
		if err != nil {
			return err
		}
		model = m
		logging.InfoContext(ctx, "model_loaded", "task", string(task), "path", f.Modelfile)
	case f.Trainset == "":
		return fmt.Errorf("--trainset is required unless --load is given")
	default:
		w, err := e.walker(f.Trainset, task, f.Roletype, trainOpts[0], trainOpts[1])
		if err != nil {
			return err
		}
		if model, err = train(ctx, w, opts); err != nil {
			return err
		}
		if f.Modelfile != "" {
			if err := baseline.SaveModel(f.Modelfile, model); err != nil {
				return err
			}
		}
	}

	w, err := e.walker(f.Testset, task, f.Roletype, testOpts[0], testOpts[1])
	if err != nil {
		return err
	}
	out, err := run(ctx, f.Testset, w, model, opts)
	if err != nil {
		return err
	}
	return out.Write(f.Outfile)
}

// BaselineSLUCmd trains on labels and tags translated test utterances.
type BaselineSLUCmd struct {
	PilotFlags `embed:""`
}

func (c *BaselineSLUCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(pilotBaseline(ctx, e, c.PilotFlags, dataset.TaskSLU,
		[2]bool{true, false}, [2]bool{false, true}, baseline.TrainSLU, baseline.RunSLU))
}

// BaselineSAPCmd predicts the acts of the role's next utterance.
type BaselineSAPCmd struct {
	PilotFlags `embed:""`
}

func (c *BaselineSAPCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(pilotBaseline(ctx, e, c.PilotFlags, dataset.TaskSAP,
		[2]bool{true, false}, [2]bool{true, false}, baseline.TrainSAP, baseline.RunSAP))
}

// BaselineSLGCmd generates utterances by nearest-neighbour retrieval.
type BaselineSLGCmd struct {
	PilotFlags `embed:""`
}

func (c *BaselineSLGCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(pilotBaseline(ctx, e, c.PilotFlags, dataset.TaskSLG,
		[2]bool{false, true}, [2]bool{false, true}, baseline.TrainSLG, baseline.RunSLG))
}
