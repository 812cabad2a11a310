package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, r Result) float64 {
	t.Helper()
	require.NotNil(t, r.Value, "%s has no value", r.Name)
	return *r.Value
}

func ptr[T any](v T) *T { return &v }

func TestAccuracy(t *testing.T) {
	acc := NewAccuracy(func(a, b string) bool { return a == b })
	acc.Add(ptr("x"), ptr("x"))
	acc.Add(ptr("x"), ptr("y"))
	acc.Add(nil, ptr("y"))
	acc.Add(ptr("x"), nil)

	res := acc.Results()
	require.Len(t, res, 1)
	assert.Equal(t, "acc", res[0].Name)
	assert.Equal(t, 2, res[0].N)
	assert.InDelta(t, 0.5, value(t, res[0]), 1e-9)

	empty := NewAccuracy(func(a, b int) bool { return a == b })
	assert.Nil(t, empty.Results()[0].Value)
}

func TestPrecisionRecallSingle(t *testing.T) {
	pr := NewPrecisionRecall[string]()
	pr.Add(ptr("B"), ptr("B")) // tp
	pr.Add(ptr("B"), ptr("I")) // fp + fn
	pr.Add(ptr("B"), nil)      // fp
	pr.Add(nil, ptr("B"))      // fn
	pr.Add(nil, nil)           // nothing

	res := pr.Results()
	require.Len(t, res, 3)
	assert.Equal(t, "precision", res[0].Name)
	assert.Equal(t, 3, res[0].N)
	assert.InDelta(t, 1.0/3, value(t, res[0]), 1e-9)
	assert.Equal(t, 3, res[1].N)
	assert.InDelta(t, 1.0/3, value(t, res[1]), 1e-9)
	assert.Equal(t, 5, res[2].N)
	assert.InDelta(t, 1.0/3, value(t, res[2]), 1e-9)
}

func TestPrecisionRecallList(t *testing.T) {
	pr := NewPrecisionRecall[string]()
	pr.AddList([]string{"QST", "FOL"}, []string{"QST", "ACK", "RES"})

	res := pr.Results()
	assert.InDelta(t, 0.5, value(t, res[0]), 1e-9)
	assert.InDelta(t, 1.0/3, value(t, res[1]), 1e-9)
	assert.InDelta(t, 0.4, value(t, res[2]), 1e-9)
}

func TestPrecisionRecallUndefined(t *testing.T) {
	pr := NewPrecisionRecall[string]()
	pr.AddList(nil, []string{"QST"})

	res := pr.Results()
	assert.Nil(t, res[0].Value)
	assert.InDelta(t, 0.0, value(t, res[1]), 1e-9)
	assert.Nil(t, res[2].Value)
}

func TestFrame(t *testing.T) {
	a := Frame{"PLACE": {"Sentosa", "Changi"}, "TYPE": {"Park"}}
	assert.True(t, a.Equal(Frame{"TYPE": {"Park"}, "PLACE": {"Sentosa", "Changi"}}))
	assert.False(t, a.Equal(Frame{"TYPE": {"Park"}, "PLACE": {"Changi", "Sentosa"}}))
	assert.False(t, a.Equal(Frame{"TYPE": {"Park"}}))
	assert.Len(t, a.Pairs(), 3)

	assert.Equal(t, Frame{"DAY": {}}, a.Only("DAY"))
	assert.Equal(t, Frame{"TYPE": {"Park"}}, a.Only("TYPE"))

	c := a.Clone()
	c["PLACE"][0] = "Chinatown"
	assert.Equal(t, "Sentosa", a["PLACE"][0])
	assert.True(t, Frame{}.Clone().Equal(Frame{}))
}

func TestFrameStats(t *testing.T) {
	pred := Frame{"PLACE": {"Sentosa"}, "TYPE": {"Park"}}
	ref := Frame{"PLACE": {"Sentosa"}, "TYPE": {"Beach"}}

	frameStats := []FrameStat{NewFrameAccuracy(), NewFramePrecisionRecall()}
	for _, s := range frameStats {
		s.Add(&pred, &ref)
		s.Add(&ref, &ref)
		s.Add(nil, &ref)
	}

	acc := frameStats[0].Results()
	assert.Equal(t, 2, acc[0].N)
	assert.InDelta(t, 0.5, value(t, acc[0]), 1e-9)

	pr := frameStats[1].Results()
	assert.Equal(t, 4, pr[0].N)
	assert.InDelta(t, 0.75, value(t, pr[0]), 1e-9)
	assert.InDelta(t, 0.75, value(t, pr[1]), 1e-9)
}

func TestText(t *testing.T) {
	txt := &Text{
		BLEU: func(ref, pred string) float64 { return 0.2 },
		AM:   func(ref, pred string) float64 { return 0.6 },
		FM:   func(ref, pred string) float64 { return 1.0 },
	}
	txt.Add("a", "b")
	txt.Add("c", "d")

	res := txt.Results()
	require.Len(t, res, 4)
	names := []string{res[0].Name, res[1].Name, res[2].Name, res[3].Name}
	assert.Equal(t, []string{"bleu", "am", "fm", "amfm"}, names)
	assert.InDelta(t, 0.2, value(t, res[0]), 1e-9)
	assert.InDelta(t, 0.8, value(t, res[3]), 1e-9)
	assert.Equal(t, 2, res[3].N)

	bleuOnly := &Text{BLEU: func(ref, pred string) float64 { return 1 }}
	res = bleuOnly.Results()
	require.Len(t, res, 1)
	assert.Nil(t, res[0].Value)
}

func TestPrepareText(t *testing.T) {
	assert.Equal(t, "_EMPTY_", PrepareText("", "en"))
	assert.Equal(t, "is there a bus", PrepareText("%uh Is there- a BUS", "en"))
	assert.Equal(t, "新 加 坡 好", PrepareText("新加坡 好", "cn"))
}
