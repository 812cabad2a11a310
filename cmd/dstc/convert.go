package main

import (
	"context"
	"fmt"

	"github.com/FocuswithJustin/dstckit/internal/convert"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
)

// ConvertGroup contains the corpus converters.
type ConvertGroup struct {
	SLG ConvertSLGCmd `cmd:"" help:"Write SLG input and label files next to labelled sessions"`
}

// ConvertSLGCmd derives the per-role SLG files from MAIN or SLU sessions.
type ConvertSLGCmd struct {
	Dataset string `required:"" help:"Dataset to convert (name or JSON list)"`
	Task    string `default:"MAIN" enum:"MAIN,SLU" help:"Task whose log and label files are read"`
}

func (c *ConvertSLGCmd) Run(g *Globals, ctx context.Context) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(c.run(ctx, e))
}

func (c *ConvertSLGCmd) run(ctx context.Context, e *env) error {
	task, err := dataset.ParseTask(c.Task)
	if err != nil {
		return err
	}
	w, err := e.walker(c.Dataset, task, "", true, false)
	if err != nil {
		return err
	}
	n, err := convert.SLG(ctx, w, convert.Options{Workers: e.cfg.Baseline.Workers, Metrics: e.metrics})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Converted %d sessions\n", n)
	return nil
}
