// Package ontology reads the DSTC5 ontology: the main-task tagsets, the
// knowledge base their values may point into, the pilot-task tagsets and
// the English to Chinese entry translations.
package ontology

import (
	"encoding/json"
	"slices"
	"sort"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/internal/archive"
)

// Tagsets maps topic to slot to the sorted unique values of the slot.
type Tagsets map[string]map[string][]string

// Has reports whether value is a known value of topic/slot.
func (t Tagsets) Has(topic, slot, value string) bool {
	values, ok := t[topic][slot]
	if !ok {
		return false
	}
	i := sort.SearchStrings(values, value)
	return i < len(values) && values[i] == value
}

// TranslatedValue is an English entry with its Chinese translations.
type TranslatedValue struct {
	EntryEN      string   `json:"entry_en"`
	TranslatedCN []string `json:"translated_cn"`
}

// TranslatedTagsets maps topic to slot to translated values, in the order
// of the English tagsets.
type TranslatedTagsets map[string]map[string][]TranslatedValue

// PilotTagsets are the label inventories of the SLU and SAP tasks.
type PilotTagsets struct {
	SpeechAct SpeechActTagset `json:"speech_act"`
	// Semantic maps category to attribute to allowed values.
	Semantic map[string]map[string][]string `json:"semantic"`
}

// SpeechActTagset lists the allowed act categories and attributes.
type SpeechActTagset struct {
	Category  []string `json:"category"`
	Attribute []string `json:"attribute"`
}

// HasCategory reports whether act is a known speech act category.
func (s SpeechActTagset) HasCategory(act string) bool {
	return slices.Contains(s.Category, act)
}

// HasAttribute reports whether attr is a known speech act attribute.
func (s SpeechActTagset) HasAttribute(attr string) bool {
	return slices.Contains(s.Attribute, attr)
}

// Ontology is a loaded ontology file.
type Ontology struct {
	tagsets      Tagsets
	pilot        *PilotTagsets
	translations map[string][]string
}

type rawOntology struct {
	Tagsets      map[string]map[string][]json.RawMessage `json:"tagsets"`
	Knowledge    map[string][]map[string]json.RawMessage `json:"knowledge"`
	PilotTagsets *PilotTagsets                           `json:"pilot_tagsets"`
	Translations map[string][]string                     `json:"translations"`
}

// knowledgeRef is a tagset value that stands for every value of one
// knowledge-base field.
type knowledgeRef struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Slot   string `json:"slot"`
}

// Load reads an ontology file, which may be compressed.
func Load(path string) (*Ontology, error) {
	var raw rawOntology
	if err := archive.ReadJSON(path, &raw); err != nil {
		return nil, err
	}
	o, err := build(raw)
	if err != nil {
		return nil, cerrors.Wrapf(err, "ontology %s", path)
	}
	return o, nil
}

// Parse builds an ontology from its JSON encoding.
func Parse(data []byte) (*Ontology, error) {
	var raw rawOntology
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, cerrors.NewParse("ontology", "", err)
	}
	return build(raw)
}

func build(raw rawOntology) (*Ontology, error) {
	o := &Ontology{
		tagsets:      make(Tagsets, len(raw.Tagsets)),
		pilot:        raw.PilotTagsets,
		translations: raw.Translations,
	}
	for topic, slots := range raw.Tagsets {
		o.tagsets[topic] = make(map[string][]string, len(slots))
		for slot, entries := range slots {
			values, err := expand(entries, raw.Knowledge)
			if err != nil {
				return nil, cerrors.Wrapf(err, "tagset %s/%s", topic, slot)
			}
			o.tagsets[topic][slot] = values
		}
	}
	return o, nil
}

// expand resolves knowledge references and returns the sorted unique
// values. References to unknown sources or fields contribute nothing.
func expand(entries []json.RawMessage, knowledge map[string][]map[string]json.RawMessage) ([]string, error) {
	set := make(map[string]struct{})
	for _, entry := range entries {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			set[s] = struct{}{}
			continue
		}
		var ref knowledgeRef
		if err := json.Unmarshal(entry, &ref); err != nil {
			return nil, cerrors.NewParse("tagset value", "", err)
		}
		if ref.Type != "knowledge" {
			continue
		}
		for _, item := range knowledge[ref.Source] {
			field, ok := item[ref.Slot]
			if !ok {
				continue
			}
			var v string
			if err := json.Unmarshal(field, &v); err == nil {
				set[v] = struct{}{}
			}
		}
	}

	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// Topics returns the topics in sorted order.
func (o *Ontology) Topics() []string {
	topics := make([]string, 0, len(o.tagsets))
	for t := range o.tagsets {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Slots returns the slots of topic in sorted order, or nil for an unknown
// topic.
func (o *Ontology) Slots(topic string) []string {
	slots, ok := o.tagsets[topic]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(slots))
	for s := range slots {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Tagsets returns the expanded tagsets.
func (o *Ontology) Tagsets() Tagsets {
	return o.tagsets
}

// Translations returns the Chinese translations of an English entry, or
// nil when there are none.
func (o *Ontology) Translations(entry string) []string {
	return o.translations[entry]
}

// TranslatedTagsets pairs every tagset value with its translations.
func (o *Ontology) TranslatedTagsets() TranslatedTagsets {
	out := make(TranslatedTagsets, len(o.tagsets))
	for topic, slots := range o.tagsets {
		out[topic] = make(map[string][]TranslatedValue, len(slots))
		for slot, values := range slots {
			tv := make([]TranslatedValue, len(values))
			for i, v := range values {
				tv[i] = TranslatedValue{EntryEN: v, TranslatedCN: o.Translations(v)}
			}
			out[topic][slot] = tv
		}
	}
	return out
}

// PilotTagsets returns the pilot-task tagsets.
func (o *Ontology) PilotTagsets() (*PilotTagsets, error) {
	if o.pilot == nil {
		return nil, cerrors.NewNotFound("ontology section", "pilot_tagsets")
	}
	return o.pilot, nil
}
