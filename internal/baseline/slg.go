package baseline

import (
	"context"
	"maps"
	"slices"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/internal/classify"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// SLG generates an utterance by replaying the translation of the most
// similar training utterance.
type SLG struct {
	Role  dataset.Role  `json:"role_type"`
	Index *classify.KNN `json:"index"`
}

// NewSLG returns an empty model for role.
func NewSLG(role dataset.Role) *SLG {
	return &SLG{Role: role, Index: classify.NewKNN(1)}
}

// SLGFeatures returns the act and semantic-tag features of an utterance.
func SLGFeatures(u *dataset.LogUtterance) []string {
	var feats []string
	for _, a := range u.SpeechAct {
		feats = append(feats, a.Act)
		for _, attr := range a.Attributes {
			feats = append(feats, a.Act+"_"+attr)
		}
	}
	for _, tag := range u.SemanticTags {
		feats = append(feats, tag.Tag)
		for _, k := range slices.Sorted(maps.Keys(tag.Attributes)) {
			feats = append(feats, tag.Tag+"_"+k+"_"+tag.Attributes[k])
		}
	}
	return feats
}

// Generate returns the sentence for u, or "" when the model is empty.
func (m *SLG) Generate(u *dataset.LogUtterance) string {
	inst, _, ok := m.Index.Nearest(SLGFeatures(u))
	if !ok {
		return ""
	}
	return inst.Output
}

// TrainSLG indexes every translated turn of the walker's role. The walker
// must load translations.
func TrainSLG(ctx context.Context, w *dataset.Walker, opts Options) (*SLG, error) {
	role, err := requireRole(w)
	if err != nil {
		return nil, err
	}
	m := NewSLG(role)
	err = w.Walk(ctx, func(s *dataset.Session) error {
		for _, turn := range s.RoleTurns(role) {
			hyp, ok := turn.Translation.Top()
			if !ok {
				skipped(ctx, opts, dataset.TaskSLG, s, turn.Log.UtterIndex, "no translation", nil)
				continue
			}
			m.Index.Add(SLGFeatures(turn.Log), nil, hyp.Hyp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.InfoContext(ctx, "slg_trained", "role", string(role), "instances", m.Index.Len())
	return m, nil
}

// RunSLG generates a sentence for every turn of the walker's role.
func RunSLG(ctx context.Context, name string, w *dataset.Walker, m *SLG, opts Options) (*track.Output[track.SLGUtterance], error) {
	role, err := requireRole(w)
	if err != nil {
		return nil, err
	}
	if err := checkModelRole(m.Role, role); err != nil {
		return nil, err
	}
	if m.Index == nil {
		return nil, cerrors.NewValidation("model", "SLG model is missing its index")
	}
	return run(ctx, name, w, opts, func(_ context.Context, s *dataset.Session) []track.SLGUtterance {
		var out []track.SLGUtterance
		for _, turn := range s.RoleTurns(role) {
			out = append(out, track.SLGUtterance{UtterIndex: turn.Log.UtterIndex, Generated: m.Generate(turn.Log)})
		}
		return out
	})
}
