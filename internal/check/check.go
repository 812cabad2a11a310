package check

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/FocuswithJustin/dstckit/core/semtag"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/metrics"
	"github.com/FocuswithJustin/dstckit/internal/ontology"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// Checker validates tracker outputs over the sessions of one walker. The
// walker does not need labels.
type Checker struct {
	walker  *dataset.Walker
	metrics *metrics.Registry
}

// New returns a Checker. reg may be nil.
func New(w *dataset.Walker, reg *metrics.Registry) *Checker {
	return &Checker{walker: w, metrics: reg}
}

// header checks the top-level fields and returns the session list. Task
// and role are checked for the pilot tasks only.
func (c *Checker) header(r *Report, raw track.Raw, task dataset.Task, role dataset.Role) []any {
	datasets := c.walker.Datasets()
	if len(datasets) != 1 {
		r.add("tracker output should be over a single dataset", "top level")
	}
	if name, ok := raw["dataset"]; !ok {
		r.add("trackfile should specify its dataset", "top level")
	} else if s, _ := name.(string); len(datasets) == 0 || s != datasets[0] {
		r.add("datasets do not match", "top level")
	}

	sessions, ok := list(raw["sessions"])
	if !ok {
		r.add("sessions should be a list", "top level")
	}
	if len(sessions) != c.walker.Len() {
		r.add("number of sessions does not match", "top level")
	}

	if v, ok := raw["wall_time"]; !ok {
		r.add("wall_time should be included", "top level")
	} else if n, ok := v.(json.Number); !ok {
		r.add("wall_time must be a float", "top level")
	} else if f, err := n.Float64(); err != nil || f <= 0 {
		r.add("wall_time must be positive", "top level")
	}

	if task != dataset.TaskMain {
		if v, ok := raw["task_type"]; !ok {
			r.add("task_type should be specified", "top level")
		} else if s, _ := v.(string); s != string(task) {
			r.add("task_type does not match", "top level")
		}
		if v, ok := raw["role_type"]; !ok {
			r.add("role_type should be specified", "top level")
		} else if s, _ := v.(string); s != string(role) {
			r.add("role_type does not match", "top level")
		}
	}
	return sessions
}

// sessions loads every session paired with an output session and calls fn
// with both. Session ids are compared on the way.
func (c *Checker) sessions(ctx context.Context, r *Report, sessions []any, fn func(s *dataset.Session, out map[string]any)) error {
	n := min(len(sessions), c.walker.Len())
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := c.walker.Load(i)
		if err != nil {
			return err
		}
		sid := s.Log.SessionID
		out, ok := object(sessions[i])
		if !ok {
			r.add("session should be an object", sid)
			continue
		}
		if !sameInt(out["session_id"], sid) {
			r.add("session-id does not match", sid)
		}
		fn(s, out)
	}
	return nil
}

// utterances pairs logged utterances with output records and checks the
// utter_index of each pair. countMsg reports a length mismatch.
func utterances(r *Report, sid int, logs []*dataset.LogUtterance, out map[string]any, countMsg string,
	fn func(u *dataset.LogUtterance, rec map[string]any)) {
	recs, _ := list(out["utterances"])
	if len(logs) != len(recs) {
		r.add(countMsg, sid)
	}
	for i := 0; i < min(len(logs), len(recs)); i++ {
		u := logs[i]
		rec, ok := object(recs[i])
		if !ok {
			r.add("utterance should be an object", sid, "utterance", u.UtterIndex)
			continue
		}
		if !sameInt(rec["utter_index"], u.UtterIndex) {
			r.add("utter_index does not match", sid, "utterance", u.UtterIndex, rec["utter_index"])
		}
		fn(u, rec)
	}
}

func allUtterances(s *dataset.Session) []*dataset.LogUtterance {
	out := make([]*dataset.LogUtterance, len(s.Log.Utterances))
	for i := range s.Log.Utterances {
		out[i] = &s.Log.Utterances[i]
	}
	return out
}

func roleUtterances(s *dataset.Session, role dataset.Role) []*dataset.LogUtterance {
	var out []*dataset.LogUtterance
	for i := range s.Log.Utterances {
		if role.Speaks(s.Log.Utterances[i].Speaker) {
			out = append(out, &s.Log.Utterances[i])
		}
	}
	return out
}

// Main checks a main-task output. Every frame_label slot and value must
// belong to the utterance topic in tagsets.
func (c *Checker) Main(ctx context.Context, raw track.Raw, tagsets ontology.Tagsets) (*Report, error) {
	r := &Report{}
	sessions := c.header(r, raw, dataset.TaskMain, "")
	err := c.sessions(ctx, r, sessions, func(s *dataset.Session, out map[string]any) {
		sid := s.Log.SessionID
		utterances(r, sid, allUtterances(s), out, "number of utterances do not match",
			func(u *dataset.LogUtterance, rec map[string]any) {
				v, ok := rec["frame_label"]
				if !ok {
					if u.TargetBIO() != "O" {
						r.add("no frame_label key in utterance", sid, "utterance", u.UtterIndex)
					}
					return
				}
				frame, ok := object(v)
				if !ok {
					r.add("a value for 'frame_label' key should be an object", sid, "utterance", u.UtterIndex)
					return
				}
				topic := u.Topic()
				for _, slot := range slices.Sorted(maps.Keys(frame)) {
					if _, known := tagsets[topic][slot]; !known {
						r.add("do not recognise slot", sid, "utterance", u.UtterIndex, slot)
						continue
					}
					values, _ := list(frame[slot])
					seen := make(map[string]int)
					for _, val := range values {
						value, _ := val.(string)
						if !tagsets.Has(topic, slot, value) {
							r.add("do not recognise slot value", sid, "utterance", u.UtterIndex, slot, val)
						}
						seen[value]++
						if seen[value] > 1 {
							r.add("repeated value", sid, "utterance", u.UtterIndex, slot, val)
						}
					}
				}
			})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// checkActs checks a speech_act field against the pilot tagsets.
func checkActs(r *Report, sid int, u *dataset.LogUtterance, rec map[string]any, pilot *ontology.PilotTagsets) {
	v, ok := rec["speech_act"]
	if !ok {
		r.add("no speech_act key in utterance", sid, "utterance", u.UtterIndex)
		return
	}
	acts, ok := list(v)
	if !ok {
		r.add("a value for 'speech_act' key should be a list of objects", sid, "utterance", u.UtterIndex)
		return
	}
	for _, a := range acts {
		act, ok := object(a)
		if !ok {
			r.add("a value for 'speech_act' key should be a list of objects", sid, "utterance", u.UtterIndex)
			continue
		}
		if name, ok := act["act"]; !ok {
			r.add("no act key in speech_act", sid, "utterance", u.UtterIndex)
		} else if s, _ := name.(string); !pilot.SpeechAct.HasCategory(s) {
			r.add("do not recognise speech act category", sid, "utterance", u.UtterIndex, name)
		}
		if attrs, ok := act["attributes"]; !ok {
			r.add("no attributes key in speech_act", sid, "utterance", u.UtterIndex)
		} else {
			names, _ := list(attrs)
			for _, attr := range names {
				if s, _ := attr.(string); !pilot.SpeechAct.HasAttribute(s) {
					r.add("do not recognise speech act attribute", sid, "utterance", u.UtterIndex, attr)
				}
			}
		}
	}
}

// checkSemantics checks a semantic_tagged field: it must parse, keep the
// characters of the transcript, and use known categories and attributes.
// Each span is reported once.
func (c *Checker) checkSemantics(r *Report, sid int, u *dataset.LogUtterance, rec map[string]any, pilot *ontology.PilotTagsets) {
	v, ok := rec["semantic_tagged"]
	if !ok {
		r.add("no semantic_tagged key in utterance", sid, "utterance", u.UtterIndex)
		return
	}
	tagged, ok := v.(string)
	if !ok {
		r.add("a value for 'semantic_tagged' key should be a string", sid, "utterance", u.UtterIndex, jsonType(v))
		return
	}

	p := semtag.NewParser(semtag.ModeChar)
	ref, err := p.Parse(u.Transcript)
	if err == nil {
		var pred *semtag.ParseResult
		if pred, err = p.Parse(tagged); err == nil {
			if ref.CharString() != pred.CharString() {
				r.add("raw utterance has changed", sid, "utterance", u.UtterIndex, u.Transcript, tagged)
			}
			checkSpans(r, sid, u, pred, pilot)
			return
		}
	}
	c.metrics.ParseFailed("check")
	r.add("do not parse the tagged utterance", sid, "utterance", u.UtterIndex, tagged)
}

func checkSpans(r *Report, sid int, u *dataset.LogUtterance, pred *semtag.ParseResult, pilot *ontology.PilotTagsets) {
	for _, w := range pred.Words {
		if w.BIO != semtag.Begin {
			continue
		}
		tag := strings.ToUpper(w.Tag)
		attrTypes, ok := pilot.Semantic[tag]
		if !ok {
			r.add("do not recognise semantic category", sid, "utterance", u.UtterIndex, tag)
			continue
		}
		attrs := semtag.NormalizeAttrs(w.Attrs)
		for _, key := range slices.Sorted(maps.Keys(attrs)) {
			val := attrs[key]
			values, known := attrTypes[key]
			switch {
			case !known:
				if val != "NONE" {
					r.add("do not recognise semantic attribute type", sid, "utterance", u.UtterIndex, tag, key)
				}
			case !slices.Contains(values, val):
				r.add("do not recognise semantic attribute value", sid, "utterance", u.UtterIndex, tag, key, val)
			}
		}
	}
}

func spokenBy(role dataset.Role) string {
	return "number of utterances spoken by " + string(role) + " does not match"
}

// SLU checks an SLU output. The walker must read the main logs, which
// carry every transcript.
func (c *Checker) SLU(ctx context.Context, raw track.Raw, pilot *ontology.PilotTagsets, role dataset.Role) (*Report, error) {
	r := &Report{}
	sessions := c.header(r, raw, dataset.TaskSLU, role)
	err := c.sessions(ctx, r, sessions, func(s *dataset.Session, out map[string]any) {
		sid := s.Log.SessionID
		utterances(r, sid, roleUtterances(s, role), out, spokenBy(role),
			func(u *dataset.LogUtterance, rec map[string]any) {
				checkActs(r, sid, u, rec, pilot)
				c.checkSemantics(r, sid, u, rec, pilot)
			})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SAP checks an SAP output.
func (c *Checker) SAP(ctx context.Context, raw track.Raw, pilot *ontology.PilotTagsets, role dataset.Role) (*Report, error) {
	r := &Report{}
	sessions := c.header(r, raw, dataset.TaskSAP, role)
	err := c.sessions(ctx, r, sessions, func(s *dataset.Session, out map[string]any) {
		sid := s.Log.SessionID
		utterances(r, sid, roleUtterances(s, role), out, spokenBy(role),
			func(u *dataset.LogUtterance, rec map[string]any) {
				checkActs(r, sid, u, rec, pilot)
			})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SLG checks an SLG output.
func (c *Checker) SLG(ctx context.Context, raw track.Raw, role dataset.Role) (*Report, error) {
	r := &Report{}
	sessions := c.header(r, raw, dataset.TaskSLG, role)
	err := c.sessions(ctx, r, sessions, func(s *dataset.Session, out map[string]any) {
		sid := s.Log.SessionID
		utterances(r, sid, roleUtterances(s, role), out, spokenBy(role),
			func(u *dataset.LogUtterance, rec map[string]any) {
				v, ok := rec["generated"]
				if !ok {
					r.add("no generated key in utterance", sid, "utterance", u.UtterIndex)
				} else if _, ok := v.(string); !ok {
					r.add("a value for 'generated' key should be a string", sid, "utterance", u.UtterIndex)
				}
			})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
