package main

import (
	"context"

	"github.com/FocuswithJustin/dstckit/internal/check"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// CheckGroup contains the tracker output validators.
type CheckGroup struct {
	Main CheckMainCmd `cmd:"" help:"Validate a main-task tracker file"`
	SLU  CheckSLUCmd  `cmd:"" help:"Validate an SLU output file"`
	SAP  CheckSAPCmd  `cmd:"" help:"Validate an SAP output file"`
	SLG  CheckSLGCmd  `cmd:"" help:"Validate an SLG output file"`
}

// CheckMainCmd validates a main-task tracker file against the dataset and
// the ontology.
type CheckMainCmd struct {
	Dataset   string `required:"" help:"Dataset the tracker ran on (name or JSON list)"`
	Trackfile string `required:"" help:"File containing tracker JSON output" type:"existingfile"`
}

func (c *CheckMainCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(c.run(ctx, e))
}

func (c *CheckMainCmd) run(ctx context.Context, e *env) error {
	ont, err := e.ontology()
	if err != nil {
		return err
	}
	w, err := e.walker(c.Dataset, dataset.TaskMain, "", false, false)
	if err != nil {
		return err
	}
	raw, err := track.ReadRaw(c.Trackfile)
	if err != nil {
		return err
	}
	r, err := check.New(w, e.metrics).Main(ctx, raw, ont.Tagsets())
	if err != nil {
		return err
	}
	return r.Write(stdout)
}

// CheckPilotFlags select a pilot-task output file to validate.
type CheckPilotFlags struct {
	Dataset  string `required:"" help:"Dataset the system ran on (name or JSON list)"`
	Jsonfile string `required:"" help:"File containing JSON output" type:"existingfile"`
	Roletype string `required:"" enum:"GUIDE,TOURIST" help:"Role the system played"`
}

// CheckSLUCmd validates speech acts and semantic tags.
type CheckSLUCmd struct {
	CheckPilotFlags `embed:""`
}

func (c *CheckSLUCmd) Run(g *Globals, ctx context.Context) error {
	return c.check(g, ctx, dataset.TaskSLU)
}

// CheckSAPCmd validates predicted speech acts.
type CheckSAPCmd struct {
	CheckPilotFlags `embed:""`
}

func (c *CheckSAPCmd) Run(g *Globals, ctx context.Context) error {
	return c.check(g, ctx, dataset.TaskSAP)
}

// CheckSLGCmd validates generated utterances.
type CheckSLGCmd struct {
	CheckPilotFlags `embed:""`
}

func (c *CheckSLGCmd) Run(g *Globals, ctx context.Context) error {
	return c.check(g, ctx, dataset.TaskSLG)
}

func (c *CheckPilotFlags) check(g *Globals, ctx context.Context, task dataset.Task) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(c.run(ctx, e, task))
}

func (c *CheckPilotFlags) run(ctx context.Context, e *env, task dataset.Task) error {
	w, err := e.walker(c.Dataset, task, c.Roletype, false, false)
	if err != nil {
		return err
	}
	raw, err := track.ReadRaw(c.Jsonfile)
	if err != nil {
		return err
	}
	checker := check.New(w, e.metrics)

	var r *check.Report
	if task == dataset.TaskSLG {
		r, err = checker.SLG(ctx, raw, w.Role())
	} else {
		ont, oerr := e.ontology()
		if oerr != nil {
			return oerr
		}
		pilot, perr := ont.PilotTagsets()
		if perr != nil {
			return perr
		}
		if task == dataset.TaskSLU {
			r, err = checker.SLU(ctx, raw, pilot, w.Role())
		} else {
			r, err = checker.SAP(ctx, raw, pilot, w.Role())
		}
	}
	if err != nil {
		return err
	}
	return r.Write(stdout)
}
