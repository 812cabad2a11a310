package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/dstckit/core/projection"
)

func TestParseFailed(t *testing.T) {
	r := New()
	r.ParseFailed("check")
	r.ParseFailed("check")
	r.ParseFailed("score")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ParseFailures.WithLabelValues("check")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ParseFailures.WithLabelValues("score")))
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ParseFailed("check")
		r.Skipped("SLU")
	})
}

func TestRecordProjection(t *testing.T) {
	r := New()
	r.Projection.RecordProjection(projection.Stats{Chars: 10, UnmappedChars: 2, UnalignedTokens: 1, UntaggedChars: 4})
	r.Projection.RecordProjection(projection.Stats{Chars: 5, DroppedAlignment: 3})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Projection.Utterances))
	assert.Equal(t, 15.0, testutil.ToFloat64(r.Projection.Chars))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Projection.UnmappedChars))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Projection.UnalignedTokens))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.Projection.UntaggedChars))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Projection.DroppedAlignment))
}

func TestProjectorFeedsCounters(t *testing.T) {
	r := New()
	p := projection.NewProjector(projection.WithRecorder(r.Projection))
	p.Project(projection.Input{Target: "ab", Source: "x"})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Projection.Chars))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Projection.UntaggedChars))
}

func TestWriteToTextfile(t *testing.T) {
	r := New()
	r.Skipped("SLG")

	path := filepath.Join(t.TempDir(), "dstc.prom")
	require.NoError(t, r.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `dstc_utterances_skipped_total{task="SLG"} 1`))
	assert.True(t, strings.Contains(string(data), "dstc_projection_chars_total 0"))
}

func TestCollectorCount(t *testing.T) {
	r := New()
	r.ParseFailed("slu")
	n, err := testutil.GatherAndCount(r.Gatherer(), "dstc_markup_parse_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
