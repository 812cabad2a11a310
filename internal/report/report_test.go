package report_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/dstckit/core/cas"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/report"
	"github.com/FocuswithJustin/dstckit/internal/score"
)

func value(v float64) *float64 { return &v }

func table() *score.Table {
	return &score.Table{
		Task:     dataset.TaskMain,
		Dataset:  "dstc5_dev",
		RunID:    "tracker-run",
		WallTime: 1.5,
		Header:   score.MainHeader,
		Rows: []score.Row{
			{Group: "all", Item: "all", Schedule: "1", Stat: "acc", N: 4, Value: value(0.75)},
			{Group: "FOOD", Item: "DISH", Schedule: "2", Stat: "precision", N: 0},
		},
		Basic: []score.Basic{
			{Name: "total_wall_time", Value: "1.5"},
			{Name: "dataset", Value: "dstc5_dev"},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s, err := report.Open(ctx, filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer s.Close()

	data := []byte(`{"dataset": "dstc5_dev"}`)
	run := report.NewRun("out.json", data)
	assert.Equal(t, cas.Fingerprint(data), run.Fingerprint)
	assert.NotEmpty(t, run.ID)

	require.NoError(t, s.Save(ctx, run, table()))

	runs, err := s.Runs(ctx, run.Fingerprint)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, dataset.TaskMain, runs[0].Task)
	assert.Equal(t, "out.json", runs[0].TrackFile)
	assert.Equal(t, "tracker-run", runs[0].TrackerRunID)
	assert.True(t, run.ScoredAt.Equal(runs[0].ScoredAt))

	got, err := s.Table(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, table(), got)
}

func TestRunsFilter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.db")
	s, err := report.Open(ctx, path)
	require.NoError(t, err)

	a := report.NewRun("a.json", []byte("a"))
	b := report.NewRun("b.json", []byte("b"))
	require.NoError(t, s.Save(ctx, a, table()))
	require.NoError(t, s.Save(ctx, b, table()))
	require.NoError(t, s.Close())

	s, err = report.Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	all, err := s.Runs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := s.Runs(ctx, b.Fingerprint)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "b.json", only[0].TrackFile)
}

func TestDuplicateRunRejected(t *testing.T) {
	ctx := context.Background()
	s, err := report.Open(ctx, filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer s.Close()

	run := report.NewRun("out.json", nil)
	require.NoError(t, s.Save(ctx, run, table()))
	require.Error(t, s.Save(ctx, run, table()))

	runs, err := s.Runs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestTableUnknownRun(t *testing.T) {
	ctx := context.Background()
	s, err := report.Open(ctx, filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Table(ctx, "missing")
	require.Error(t, err)
}
