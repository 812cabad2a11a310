package baseline

import (
	"context"
	"maps"
	"slices"

	"github.com/FocuswithJustin/dstckit/core/cache"
	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/core/fuzzy"
	"github.com/FocuswithJustin/dstckit/core/stats"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/ontology"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// Main-task matching methods.
const (
	// MethodTranslation matches English ontology values against the top
	// English translation of each utterance.
	MethodTranslation = 1
	// MethodTranscript matches the Chinese translations of the ontology
	// values against the transcript.
	MethodTranscript = 2
)

// Matcher finds the ontology values mentioned in one turn. Matchers keep
// no per-session state and are safe for concurrent use.
type Matcher interface {
	// Covers reports whether the matcher tracks topic.
	Covers(topic string) bool
	// Match calls found for every slot value of topic mentioned in turn.
	Match(topic string, turn dataset.Turn, found func(slot, value string))
}

// NewMatcher returns the matcher of a method. A value matches when its
// partial ratio exceeds threshold.
func NewMatcher(method int, ont *ontology.Ontology, threshold int) (Matcher, error) {
	r := newRatios(threshold)
	switch method {
	case MethodTranslation:
		return &TranslationMatcher{tagsets: ont.Tagsets(), ratios: r}, nil
	case MethodTranscript:
		return &TranscriptMatcher{tagsets: ont.TranslatedTagsets(), ratios: r}, nil
	}
	return nil, cerrors.NewUnsupported("method", "must be 1 or 2")
}

type ratioKey struct {
	value, text string
}

// ratios memoizes partial ratios. Short turns such as backchannels repeat
// across sessions, so the same value and text pair is scored many times.
type ratios struct {
	threshold int
	memo      cache.Cache[ratioKey, int]
}

func newRatios(threshold int) *ratios {
	return &ratios{threshold: threshold, memo: cache.NewLRUCache[ratioKey, int](cache.DefaultConfig())}
}

func (r *ratios) matches(value, text string) bool {
	score := cache.Memo(r.memo, ratioKey{value, text}, func() int {
		return fuzzy.PartialRatio(value, text)
	})
	return score > r.threshold
}

// CacheStats returns the statistics of the partial ratio memo.
func (r *ratios) CacheStats() cache.Stats {
	return r.memo.Stats()
}

// TranslationMatcher is method 1.
type TranslationMatcher struct {
	tagsets ontology.Tagsets
	*ratios
}

func (m *TranslationMatcher) Covers(topic string) bool {
	_, ok := m.tagsets[topic]
	return ok
}

func (m *TranslationMatcher) Match(topic string, turn dataset.Turn, found func(slot, value string)) {
	hyp, ok := turn.Translation.Top()
	if !ok {
		return
	}
	slots := m.tagsets[topic]
	for _, slot := range slices.Sorted(maps.Keys(slots)) {
		for _, value := range slots[slot] {
			if m.matches(value, hyp.Hyp) {
				found(slot, value)
			}
		}
	}
}

// TranscriptMatcher is method 2. Values without a translation never match.
type TranscriptMatcher struct {
	tagsets ontology.TranslatedTagsets
	*ratios
}

func (m *TranscriptMatcher) Covers(topic string) bool {
	_, ok := m.tagsets[topic]
	return ok
}

func (m *TranscriptMatcher) Match(topic string, turn dataset.Turn, found func(slot, value string)) {
	slots := m.tagsets[topic]
	for _, slot := range slices.Sorted(maps.Keys(slots)) {
		for _, v := range slots[slot] {
			if len(v.TranslatedCN) == 0 {
				continue
			}
			if m.matches(v.TranslatedCN[0], turn.Log.Transcript) {
				found(slot, v.EntryEN)
			}
		}
	}
}

// TrackSession runs m over one session. The frame accumulates the values
// found since the last segment start and is reported for every utterance
// whose topic m covers.
func TrackSession(m Matcher, s *dataset.Session) []track.MainUtterance {
	var out []track.MainUtterance
	frame := stats.Frame{}
	for _, turn := range s.Turns() {
		u := track.MainUtterance{UtterIndex: turn.Log.UtterIndex}
		topic := turn.Log.Topic()
		if turn.Log.TargetBIO() == "B" {
			frame = stats.Frame{}
		}
		if m.Covers(topic) {
			m.Match(topic, turn, func(slot, value string) {
				if !slices.Contains(frame[slot], value) {
					frame[slot] = append(frame[slot], value)
				}
			})
			if topic == "ATTRACTION" {
				dropDuplicatePlace(frame)
			}
			label := frame.Clone()
			u.FrameLabel = &label
		}
		out = append(out, u)
	}
	return out
}

// dropDuplicatePlace removes PLACE when it repeats NEIGHBOURHOOD exactly.
func dropDuplicatePlace(frame stats.Frame) {
	place, ok := frame["PLACE"]
	if !ok {
		return
	}
	if hood, ok := frame["NEIGHBOURHOOD"]; ok && slices.Equal(place, hood) {
		delete(frame, "PLACE")
	}
}

// RunMain tracks every session of a main-task walker that loads
// translations.
func RunMain(ctx context.Context, name string, w *dataset.Walker, m Matcher, opts Options) (*track.Output[track.MainUtterance], error) {
	out, err := run(ctx, name, w, opts, func(_ context.Context, s *dataset.Session) []track.MainUtterance {
		return TrackSession(m, s)
	})
	if c, ok := m.(interface{ CacheStats() cache.Stats }); ok && err == nil {
		st := c.CacheStats()
		logging.InfoContext(ctx, "ratio_cache",
			"hits", st.Hits,
			"misses", st.Misses,
			"evictions", st.Evictions,
			"hit_rate", st.HitRate())
	}
	return out, err
}
