package projection

import (
	"encoding/json"
	"testing"

	"github.com/FocuswithJustin/dstckit/core/semtag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(w string, b semtag.BIO, tag, cat string) semtag.WordAnnotation {
	wa := semtag.WordAnnotation{Word: w}
	if tag != "" {
		wa.Annotation = semtag.Annotation{BIO: b, Tag: tag, Attrs: []semtag.Attr{{Key: "cat", Value: cat}}}
	}
	return wa
}

func labelsOf(r Result) []semtag.Label {
	out := make([]semtag.Label, len(r.Chars))
	for i, c := range r.Chars {
		out[i] = c.Label
	}
	return out
}

func TestProjectOneToOne(t *testing.T) {
	in := Input{
		Target: "你好 世界",
		Source: "hello world",
		Alignment: []AlignmentEntry{
			{Word: "你好", Aligned: []int{0}},
			{Word: "世界", Aligned: []int{1}},
		},
		SourceTagged: []semtag.WordAnnotation{
			word("hello", semtag.Begin, "GREET", "HI"),
			word("world", semtag.Begin, "PLACE", "NAME"),
		},
	}

	res := NewProjector().Project(in)
	greet := semtag.Label{Category: "GREET", Value: "HI"}
	place := semtag.Label{Category: "PLACE", Value: "NAME"}
	assert.Equal(t, []semtag.Label{greet, greet, {}, place, place}, labelsOf(res))
	assert.Equal(t, `<GREET cat="HI">你好</GREET> <PLACE cat="NAME">世界</PLACE>`, res.Render())

	assert.Equal(t, 5, res.Stats.Chars)
	assert.Equal(t, 1, res.Stats.UnmappedChars)
	assert.Equal(t, 1, res.Stats.UntaggedChars)
	assert.Zero(t, res.Stats.UnalignedTokens)
}

func TestProjectMajorityVote(t *testing.T) {
	in := Input{
		Target:       "甲",
		TargetTokens: []string{"甲"},
		Source:       "abc d",
		Alignment:    []AlignmentEntry{{Word: "甲", Aligned: []int{0, 1}}},
		SourceTagged: []semtag.WordAnnotation{
			word("abc", semtag.Begin, "PLACE", "NAME"),
			word("d", semtag.Begin, "TIME", "DATE"),
		},
	}

	res := NewProjector().Project(in)
	assert.Equal(t, []semtag.Label{{Category: "PLACE", Value: "NAME"}}, labelsOf(res))
}

func TestProjectTieBreak(t *testing.T) {
	in := Input{
		Target:       "甲",
		TargetTokens: []string{"甲"},
		Source:       "ab cd",
		Alignment:    []AlignmentEntry{{Word: "甲", Aligned: []int{0, 1}}},
		SourceTagged: []semtag.WordAnnotation{
			word("ab", semtag.Begin, "PLACE", "NAME"),
			word("cd", semtag.Begin, "PLACE", "AREA"),
		},
	}

	for i := 0; i < 20; i++ {
		res := NewProjector().Project(in)
		require.Equal(t, semtag.Label{Category: "PLACE", Value: "AREA"}, res.Chars[0].Label)
	}
}

func TestProjectUntaggedVotesDoNotCount(t *testing.T) {
	in := Input{
		Target:       "甲",
		TargetTokens: []string{"甲"},
		Source:       "the big zoo",
		Alignment:    []AlignmentEntry{{Word: "甲", Aligned: []int{0, 1, 2}}},
		SourceTagged: []semtag.WordAnnotation{
			word("the", semtag.Outside, "", ""),
			word("big", semtag.Outside, "", ""),
			word("zoo", semtag.Begin, "PLACE", "NAME"),
		},
	}

	res := NewProjector().Project(in)
	assert.Equal(t, "PLACE", res.Chars[0].Category)
}

func TestProjectEmptyAlignment(t *testing.T) {
	in := Input{
		Target:       "新加坡很好",
		TargetTokens: []string{"新加坡", "很好"},
		Source:       "Singapore is good",
		Alignment: []AlignmentEntry{
			{Word: "新加坡", Aligned: []int{}},
			{Word: "很好", Aligned: nil},
		},
		SourceTagged: []semtag.WordAnnotation{
			word("singapore", semtag.Begin, "PLACE", "NAME"),
			word("is", semtag.Outside, "", ""),
			word("good", semtag.Outside, "", ""),
		},
	}

	res := NewProjector().Project(in)
	for _, c := range res.Chars {
		assert.True(t, c.Label.IsZero())
	}
	assert.Equal(t, "新加坡很好", res.Render())
	assert.Equal(t, 2, res.Stats.UnalignedTokens)
	assert.Equal(t, 5, res.Stats.UntaggedChars)
}

func TestProjectMissingAlignmentEntry(t *testing.T) {
	in := Input{
		Target:       "新加坡很好",
		TargetTokens: []string{"新加坡", "很好"},
		Source:       "Singapore is good",
		Alignment:    []AlignmentEntry{{Word: "新加坡", Aligned: []int{0}}},
		SourceTagged: []semtag.WordAnnotation{
			word("Singapore", semtag.Begin, "PLACE", "NAME"),
		},
	}

	res := NewProjector().Project(in)
	assert.Equal(t, `<PLACE cat="NAME">新加坡</PLACE>很好`, res.Render())
	assert.Equal(t, 1, res.Stats.UnalignedTokens)
}

func TestProjectOutOfRangeIndex(t *testing.T) {
	in := Input{
		Target:       "甲乙",
		TargetTokens: []string{"甲乙"},
		Source:       "zoo",
		Alignment:    []AlignmentEntry{{Word: "甲乙", Aligned: []int{0, 7, -1}}},
		SourceTagged: []semtag.WordAnnotation{word("zoo", semtag.Begin, "PLACE", "NAME")},
	}

	res := NewProjector().Project(in)
	assert.Equal(t, `<PLACE cat="NAME">甲乙</PLACE>`, res.Render())
	assert.Equal(t, 2, res.Stats.DroppedAlignment)
}

func TestProjectTokenNotFound(t *testing.T) {
	in := Input{
		Target:       "甲乙",
		TargetTokens: []string{"丙", "乙"},
		Source:       "zoo",
		Alignment: []AlignmentEntry{
			{Word: "丙", Aligned: []int{0}},
			{Word: "乙", Aligned: []int{0}},
		},
		SourceTagged: []semtag.WordAnnotation{word("zoo", semtag.Begin, "PLACE", "NAME")},
	}

	res := NewProjector().Project(in)
	assert.True(t, res.Chars[0].Label.IsZero())
	assert.Equal(t, "PLACE", res.Chars[1].Category)
	assert.Equal(t, 1, res.Stats.UnmappedChars)
}

func TestProjectCaseInsensitiveSource(t *testing.T) {
	in := Input{
		Target:       "圣淘沙",
		TargetTokens: []string{"圣淘沙"},
		Source:       "Sentosa Island",
		Alignment:    []AlignmentEntry{{Word: "圣淘沙", Aligned: []int{0}}},
		SourceTagged: []semtag.WordAnnotation{
			word("sentosa", semtag.Begin, "PLACE", "NAME"),
			word("island", semtag.Inside, "PLACE", "NAME"),
		},
	}

	res := NewProjector().Project(in)
	assert.Equal(t, `<PLACE cat="NAME">圣淘沙</PLACE>`, res.Render())
}

type recorder struct{ got []Stats }

func (r *recorder) RecordProjection(s Stats) { r.got = append(r.got, s) }

func TestProjectRecorder(t *testing.T) {
	rec := &recorder{}
	p := NewProjector(WithRecorder(rec))
	p.Project(Input{Target: "a b"})
	p.Project(Input{Target: ""})

	require.Len(t, rec.got, 2)
	assert.Equal(t, Stats{Chars: 3, UnalignedTokens: 2, UntaggedChars: 3, UnmappedChars: 1}, rec.got[0])
	assert.Equal(t, Stats{}, rec.got[1])
}

func TestAlignmentEntryJSON(t *testing.T) {
	var entries []AlignmentEntry
	require.NoError(t, json.Unmarshal([]byte(`[["你好", [0, 2]], ["吗", []]]`), &entries))
	assert.Equal(t, []AlignmentEntry{
		{Word: "你好", Aligned: []int{0, 2}},
		{Word: "吗", Aligned: []int{}},
	}, entries)

	out, err := json.Marshal(AlignmentEntry{Word: "吗"})
	require.NoError(t, err)
	assert.JSONEq(t, `["吗", []]`, string(out))

	var bad AlignmentEntry
	assert.Error(t, json.Unmarshal([]byte(`["x"]`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`[1, [0]]`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"word": "x"}`), &bad))
}
