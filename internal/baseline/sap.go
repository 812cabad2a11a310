package baseline

import (
	"context"
	"strconv"
	"strings"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/core/semtag"
	"github.com/FocuswithJustin/dstckit/internal/classify"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// SAP predicts the speech acts of the next turn of a role from the
// semantic tags and acts of the dialogue so far.
type SAP struct {
	Role dataset.Role  `json:"role_type"`
	Acts *classify.KNN `json:"acts"`
}

// NewSAP returns an untrained model for role.
func NewSAP(role dataset.Role) *SAP {
	return &SAP{Role: role, Acts: classify.NewKNN(DefaultNeighbours)}
}

// sapState is the dialogue context seen by the role's next turn.
type sapState struct {
	curr       []semtag.TaggedSpan
	prev       []semtag.TaggedSpan
	prevAct    []dataset.SpeechAct
	hasPrevAct bool
	// dist counts the role's turns since the other speaker last spoke.
	dist int
}

func (st *sapState) features() []string {
	var feats []string
	feats = appendTagFeatures(feats, "curr_semantic_tag", st.curr)
	feats = appendTagFeatures(feats, "prev_semantic_tag", st.prev)

	if !st.hasPrevAct {
		feats = append(feats, "prev_turn_act:null")
	}
	for _, a := range st.prevAct {
		a = a.Normalize()
		feats = append(feats, "prev_turn_act:"+a.Act)
		for _, attr := range a.Attributes {
			feats = append(feats, "prev_turn_act:"+a.Act+"_"+attr)
		}
	}

	switch st.dist {
	case 1, 2:
		feats = append(feats, "dist_from_prev_turn:"+strconv.Itoa(st.dist))
	default:
		feats = append(feats, "dist_from_prev_turn>2")
	}

	n := len(feats)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			feats = append(feats, feats[i]+"+"+feats[j])
		}
	}
	return feats
}

func appendTagFeatures(feats []string, prefix string, tags []semtag.TaggedSpan) []string {
	if len(tags) == 0 {
		return append(feats, prefix+":null")
	}
	for _, tag := range tags {
		feats = append(feats, prefix+":"+tag.Tag, prefix+":"+tag.Tag+"_"+spanCat(tag))
	}
	return feats
}

// spanCat returns the cat attribute of a span. Keys are matched
// case-insensitively since converted files carry upper-cased keys.
func spanCat(tag semtag.TaggedSpan) string {
	for k, v := range tag.Attributes {
		if strings.EqualFold(k, "cat") {
			return v
		}
	}
	return "NONE"
}

// SAPFeatures walks the turns of a session and calls fn with the features
// of every turn spoken by role.
func SAPFeatures(turns []dataset.Turn, role dataset.Role, fn func(turn dataset.Turn, features []string)) {
	var st sapState
	for _, turn := range turns {
		if role.Speaks(turn.Log.Speaker) {
			st.curr = turn.Log.SemanticTags
			st.dist++
			fn(turn, st.features())
		} else {
			st.prevAct = turn.Log.SpeechAct
			st.hasPrevAct = true
			st.dist = 0
		}
		st.prev = turn.Log.SemanticTags
	}
}

// TrainSAP trains on every labelled turn of the walker's role. The walker
// must load labels.
func TrainSAP(ctx context.Context, w *dataset.Walker, opts Options) (*SAP, error) {
	role, err := requireRole(w)
	if err != nil {
		return nil, err
	}
	m := NewSAP(role)
	err = w.Walk(ctx, func(s *dataset.Session) error {
		SAPFeatures(s.Turns(), role, func(turn dataset.Turn, feats []string) {
			if turn.Label == nil {
				skipped(ctx, opts, dataset.TaskSAP, s, turn.Log.UtterIndex, "no label", nil)
				return
			}
			m.Acts.Add(feats, actLabels(turn.Label.SpeechAct), "")
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.InfoContext(ctx, "sap_trained", "role", string(role), "instances", m.Acts.Len())
	return m, nil
}

// RunSAP predicts the acts of every turn of the walker's role.
func RunSAP(ctx context.Context, name string, w *dataset.Walker, m *SAP, opts Options) (*track.Output[track.SAPUtterance], error) {
	role, err := requireRole(w)
	if err != nil {
		return nil, err
	}
	if err := checkModelRole(m.Role, role); err != nil {
		return nil, err
	}
	if m.Acts == nil {
		return nil, cerrors.NewValidation("model", "SAP model is missing its act classifier")
	}
	return run(ctx, name, w, opts, func(_ context.Context, s *dataset.Session) []track.SAPUtterance {
		var out []track.SAPUtterance
		SAPFeatures(s.Turns(), role, func(turn dataset.Turn, feats []string) {
			out = append(out, track.SAPUtterance{
				UtterIndex: turn.Log.UtterIndex,
				SpeechAct:  groupActs(m.Acts.Predict(feats)),
			})
		})
		return out
	})
}
