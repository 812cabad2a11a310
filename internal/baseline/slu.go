package baseline

import (
	"context"
	"strings"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/core/projection"
	"github.com/FocuswithJustin/dstckit/core/semtag"
	"github.com/FocuswithJustin/dstckit/internal/classify"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// SLU tags the English translation of an utterance, predicts its speech
// acts, and projects the tags back onto the transcript.
type SLU struct {
	Role   dataset.Role            `json:"role_type"`
	Tagger *classify.LexiconTagger `json:"tagger"`
	Acts   *classify.KNN           `json:"acts"`
}

// NewSLU returns an untrained model for role.
func NewSLU(role dataset.Role) *SLU {
	return &SLU{
		Role:   role,
		Tagger: classify.NewLexiconTagger(),
		Acts:   classify.NewKNN(DefaultNeighbours),
	}
}

// LabelWords segments an English transcript into words and labels every
// word from its tagged version. The tagged words are split further
// wherever the tokenizer breaks, so punctuation gets its own label.
func LabelWords(transcript string, tagged []string) ([]string, []string, error) {
	p := semtag.NewParser(semtag.ModeWord)
	general, err := p.Parse(strings.Join(classify.Words(transcript), " "))
	if err != nil {
		return nil, nil, err
	}
	gold, err := p.Parse(strings.Join(tagged, " "))
	if err != nil {
		return nil, nil, err
	}
	anns, err := semtag.Reconcile(general, gold)
	if err != nil {
		return nil, nil, err
	}

	words := make([]string, len(anns))
	labels := make([]string, len(anns))
	for i, a := range anns {
		words[i] = strings.ToLower(a.Word)
		labels[i] = semtag.FormatBIOLabel(a.BIO, a.Label())
	}
	return words, labels, nil
}

// AddInstance trains on one labelled utterance. It fails when the tagged
// version does not cover the same characters as the transcript.
func (m *SLU) AddInstance(transcript string, acts []dataset.SpeechAct, tagged []string) error {
	words, labels, err := LabelWords(transcript, tagged)
	if err != nil {
		return err
	}
	if err := m.Tagger.Add(words, labels); err != nil {
		return err
	}
	m.Acts.Add(words, actLabels(acts), "")
	return nil
}

// Predict analyses an English sentence. It returns the predicted acts and
// the tagged words of the sentence.
func (m *SLU) Predict(sentence string) ([]dataset.SpeechAct, []semtag.WordAnnotation) {
	words := classify.Words(sentence)
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}

	acts := groupActs(m.Acts.Predict(lower))
	tags := m.Tagger.Tag(lower)
	anns := make([]semtag.WordAnnotation, len(words))
	for i, w := range words {
		anns[i] = semtag.WordAnnotation{Word: w, Annotation: annotation(tags[i])}
	}
	return acts, anns
}

// annotation converts a B-/I-/O label into a word annotation.
func annotation(label string) semtag.Annotation {
	bio, l := semtag.ParseBIOLabel(label)
	if bio == semtag.Outside {
		return semtag.Annotation{}
	}
	a := semtag.Annotation{BIO: bio, Tag: l.Category}
	if l.Value != "" {
		a.Attrs = []semtag.Attr{{Key: "cat", Value: l.Value}}
	}
	return a
}

// Analyze produces the SLU record of one turn. Without a translation the
// transcript is echoed untagged with no acts.
func (m *SLU) Analyze(turn dataset.Turn, projector *projection.Projector) track.SLUUtterance {
	out := track.SLUUtterance{
		UtterIndex:     turn.Log.UtterIndex,
		SpeechAct:      []dataset.SpeechAct{},
		SemanticTagged: turn.Log.Transcript,
	}
	hyp, ok := turn.Translation.Top()
	if !ok {
		return out
	}

	acts, tagged := m.Predict(hyp.Hyp)
	tokens := make([]string, len(hyp.Align))
	for i, a := range hyp.Align {
		tokens[i] = a.Word
	}
	res := projector.Project(projection.Input{
		Target:       turn.Log.Transcript,
		TargetTokens: tokens,
		Source:       hyp.Hyp,
		Alignment:    hyp.Align,
		SourceTagged: tagged,
	})
	out.SpeechAct = acts
	out.SemanticTagged = res.Render()
	return out
}

// TrainSLU trains on every labelled utterance of the walker's role. The
// walker must load labels.
func TrainSLU(ctx context.Context, w *dataset.Walker, opts Options) (*SLU, error) {
	role, err := requireRole(w)
	if err != nil {
		return nil, err
	}
	m := NewSLU(role)
	n := 0
	err = w.Walk(ctx, func(s *dataset.Session) error {
		for _, turn := range s.RoleTurns(role) {
			if turn.Label == nil {
				skipped(ctx, opts, dataset.TaskSLU, s, turn.Log.UtterIndex, "no label", nil)
				continue
			}
			if err := m.AddInstance(turn.Log.Transcript, turn.Label.SpeechAct, turn.Label.SemanticTagged); err != nil {
				skipped(ctx, opts, dataset.TaskSLU, s, turn.Log.UtterIndex, "tagged utterance does not match transcript", err)
				continue
			}
			n++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.InfoContext(ctx, "slu_trained", "role", string(role), "instances", n, "vocabulary", len(m.Tagger.Unigrams))
	return m, nil
}

// RunSLU analyses every utterance of the walker's role. The walker must
// load translations.
func RunSLU(ctx context.Context, name string, w *dataset.Walker, m *SLU, opts Options) (*track.Output[track.SLUUtterance], error) {
	role, err := requireRole(w)
	if err != nil {
		return nil, err
	}
	if err := checkModelRole(m.Role, role); err != nil {
		return nil, err
	}
	if m.Tagger == nil || m.Acts == nil {
		return nil, cerrors.NewValidation("model", "SLU model is missing its tagger or act classifier")
	}

	var popts []projection.Option
	if opts.Metrics != nil {
		popts = append(popts, projection.WithRecorder(opts.Metrics.Projection))
	}
	projector := projection.NewProjector(popts...)

	return run(ctx, name, w, opts, func(_ context.Context, s *dataset.Session) []track.SLUUtterance {
		var out []track.SLUUtterance
		for _, turn := range s.RoleTurns(role) {
			out = append(out, m.Analyze(turn, projector))
		}
		return out
	})
}
