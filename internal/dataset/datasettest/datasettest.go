// Package datasettest writes small corpora to disk for tests.
package datasettest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/dstckit/core/projection"
	"github.com/FocuswithJustin/dstckit/core/semtag"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
)

// Dataset is the name of the sample dataset.
const Dataset = "dstc5_sample"

// Corpus is a corpus root and config directory under t.TempDir().
type Corpus struct {
	t         testing.TB
	Root      string
	ConfigDir string
}

// NewCorpus creates an empty corpus.
func NewCorpus(t testing.TB) *Corpus {
	t.Helper()
	base := t.TempDir()
	c := &Corpus{
		t:         t,
		Root:      filepath.Join(base, "data"),
		ConfigDir: filepath.Join(base, "config"),
	}
	for _, dir := range []string{c.Root, c.ConfigDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return c
}

// Flist writes <ConfigDir>/<name>.flist.
func (c *Corpus) Flist(name string, entries ...string) {
	c.t.Helper()
	path := filepath.Join(c.ConfigDir, name+".flist")
	if err := os.WriteFile(path, []byte(strings.Join(entries, "\n")+"\n"), 0644); err != nil {
		c.t.Fatalf("write flist: %v", err)
	}
}

// WriteJSON writes v to <Root>/<session>/<file>.
func (c *Corpus) WriteJSON(session, file string, v any) {
	c.t.Helper()
	path := filepath.Join(c.Root, session, file)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		c.t.Fatalf("mkdir: %v", err)
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		c.t.Fatalf("marshal %s: %v", file, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		c.t.Fatalf("write %s: %v", file, err)
	}
}

// Options returns walker options over this corpus.
func (c *Corpus) Options(task dataset.Task, role dataset.Role) dataset.Options {
	return dataset.Options{Root: c.Root, ConfigDir: c.ConfigDir, Task: task, Role: role}
}

// WriteOntology writes the sample ontology and returns its path.
func (c *Corpus) WriteOntology() string {
	c.t.Helper()
	path := filepath.Join(c.ConfigDir, "ontology.json")
	if err := os.WriteFile(path, []byte(OntologyJSON), 0644); err != nil {
		c.t.Fatalf("write ontology: %v", err)
	}
	return path
}

// OntologyJSON is the sample ontology. PLACE mixes a knowledge reference
// with a literal value.
const OntologyJSON = `{
    "tagsets": {
        "ATTRACTION": {
            "PLACE": [{"type": "knowledge", "source": "ATTRACTION", "slot": "NAME"}, "Sentosa"],
            "NEIGHBOURHOOD": ["Sentosa", "Chinatown"],
            "INFO": ["Preference", "Fee"]
        },
        "FOOD": {
            "DISH": ["Chicken rice", "Laksa"]
        }
    },
    "knowledge": {
        "ATTRACTION": [{"NAME": "Singapore Zoo"}, {"NAME": "Sentosa"}, {"TYPE": "Park"}]
    },
    "pilot_tagsets": {
        "speech_act": {
            "category": ["FOL", "QST", "RES", "INI"],
            "attribute": ["INFO", "ACK", "WHAT", "RECOMMEND", "CONFIRM"]
        },
        "semantic": {
            "AREA": {"CAT": ["COUNTRY", "CITY", "NEIGHBORHOOD"], "REL": ["NEAR", "FAR", "NONE"]},
            "ATTRACTION": {"CAT": ["PARK", "ZOO", "MUSEUM"]},
            "FOOD": {"CAT": ["MAIN", "DRINK"]}
        }
    },
    "translations": {
        "Sentosa": ["圣淘沙"],
        "Chinatown": ["牛车水"],
        "Singapore Zoo": ["新加坡动物园"],
        "Chicken rice": ["鸡饭"]
    }
}`

// Session is the content of one sample session.
type Session struct {
	Dir          string
	Log          dataset.Log
	Translations dataset.Translations
	Labels       dataset.Labels
}

func align(words []string, idx ...[]int) []projection.AlignmentEntry {
	out := make([]projection.AlignmentEntry, len(words))
	for i, w := range words {
		out[i] = projection.AlignmentEntry{Word: w, Aligned: idx[i]}
	}
	return out
}

func span(tag, cat, mention string) semtag.TaggedSpan {
	return semtag.TaggedSpan{Tag: tag, Attributes: map[string]string{"cat": cat}, Mention: mention}
}

// Sessions returns the two sample sessions. Session 001 has two segments
// (ATTRACTION, then FOOD after an O turn). Session 002 has a single turn
// without a translation.
func Sessions() []Session {
	s1 := Session{
		Dir: "001",
		Log: dataset.Log{SessionID: 1, Utterances: []dataset.LogUtterance{
			{UtterIndex: 0, Speaker: "Guide", Transcript: "欢迎 来到 圣淘沙",
				SegmentInfo: &dataset.SegmentInfo{Topic: "ATTRACTION", TargetBIO: "B"}},
			{UtterIndex: 1, Speaker: "Tourist", Transcript: "圣淘沙 有 动物园 吗",
				SegmentInfo: &dataset.SegmentInfo{Topic: "ATTRACTION", TargetBIO: "I"}},
			{UtterIndex: 2, Speaker: "Guide", Transcript: "好 的",
				SegmentInfo: &dataset.SegmentInfo{Topic: "FOOD", TargetBIO: "O"}},
			{UtterIndex: 3, Speaker: "Tourist", Transcript: "我 想 吃 鸡饭",
				SegmentInfo: &dataset.SegmentInfo{Topic: "FOOD", TargetBIO: "B"}},
		}},
		Translations: dataset.Translations{SessionID: 1, Utterances: []dataset.TranslationUtterance{
			{UtterIndex: 0, Translated: []dataset.Hypothesis{{
				Hyp:   "welcome to Sentosa",
				Align: align([]string{"欢迎", "来到", "圣淘沙"}, []int{0}, []int{1}, []int{2}),
			}}},
			{UtterIndex: 1, Translated: []dataset.Hypothesis{{
				Hyp:   "is there a zoo in Sentosa",
				Align: align([]string{"圣淘沙", "有", "动物园", "吗"}, []int{5}, []int{1}, []int{3}, []int{0}),
			}}},
			{UtterIndex: 2, Translated: []dataset.Hypothesis{{
				Hyp:   "okay",
				Align: align([]string{"好", "的"}, []int{0}, []int{0}),
			}}},
			{UtterIndex: 3, Translated: []dataset.Hypothesis{{
				Hyp:   "I want to eat chicken rice",
				Align: align([]string{"我", "想", "吃", "鸡饭"}, []int{0}, []int{1}, []int{3}, []int{4, 5}),
			}}},
		}},
		Labels: dataset.Labels{SessionID: 1, Utterances: []dataset.LabelUtterance{
			{UtterIndex: 0,
				SemanticTagged: []string{`欢迎 来到 <AREA cat="NEIGHBORHOOD">圣淘沙</AREA>`},
				SpeechAct:      []dataset.SpeechAct{{Act: "FOL", Attributes: []string{"INFO"}}},
				FrameLabel:     map[string][]string{"PLACE": {"Sentosa"}}},
			{UtterIndex: 1,
				SemanticTagged: []string{`<AREA cat="NEIGHBORHOOD">圣淘沙</AREA> 有 <ATTRACTION cat="ZOO">动物园</ATTRACTION> 吗`},
				SpeechAct:      []dataset.SpeechAct{{Act: "QST", Attributes: []string{"WHAT"}}},
				FrameLabel:     map[string][]string{"PLACE": {"Sentosa"}, "INFO": {"Preference"}}},
			{UtterIndex: 2,
				SemanticTagged: []string{"好 的"},
				SpeechAct:      []dataset.SpeechAct{{Act: "RES", Attributes: []string{"ACK"}}}},
			{UtterIndex: 3,
				SemanticTagged: []string{`我 想 吃 <FOOD cat="MAIN">鸡饭</FOOD>`},
				SpeechAct:      []dataset.SpeechAct{{Act: "INI", Attributes: []string{"RECOMMEND"}}},
				FrameLabel:     map[string][]string{"DISH": {"Chicken rice"}}},
		}},
	}

	s2 := Session{
		Dir: "002",
		Log: dataset.Log{SessionID: 2, Utterances: []dataset.LogUtterance{
			{UtterIndex: 0, Speaker: "Guide", Transcript: "你好",
				SegmentInfo: &dataset.SegmentInfo{Topic: "ATTRACTION", TargetBIO: "B"}},
		}},
		Translations: dataset.Translations{SessionID: 2, Utterances: []dataset.TranslationUtterance{
			{UtterIndex: 0, Translated: []dataset.Hypothesis{}},
		}},
		Labels: dataset.Labels{SessionID: 2, Utterances: []dataset.LabelUtterance{
			{UtterIndex: 0,
				SemanticTagged: []string{"你好"},
				SpeechAct:      []dataset.SpeechAct{{Act: "FOL", Attributes: []string{"ACK"}}},
				FrameLabel:     map[string][]string{}},
		}},
	}
	return []Session{s1, s2}
}

// semanticTags holds the tagged spans of every sample utterance, keyed by
// session directory and utter_index.
var semanticTags = map[string][][]semtag.TaggedSpan{
	"001": {
		{span("AREA", "NEIGHBORHOOD", "圣淘沙")},
		{span("AREA", "NEIGHBORHOOD", "圣淘沙"), span("ATTRACTION", "ZOO", "动物园")},
		{},
		{span("FOOD", "MAIN", "鸡饭")},
	},
	"002": {{}},
}

// WriteSample writes the sample sessions, the main-task files, the pilot
// files for both roles, and a file list named Dataset.
func (c *Corpus) WriteSample() {
	c.t.Helper()
	var dirs []string
	for _, s := range Sessions() {
		dirs = append(dirs, s.Dir)
		c.WriteJSON(s.Dir, "log.json", s.Log)
		c.WriteJSON(s.Dir, dataset.TranslationsFile, s.Translations)
		c.WriteJSON(s.Dir, "label.json", s.Labels)
		for _, role := range []dataset.Role{dataset.RoleGuide, dataset.RoleTourist} {
			c.writePilot(s, role)
		}
	}
	c.Flist(Dataset, dirs...)
}

func (c *Corpus) writePilot(s Session, role dataset.Role) {
	in := dataset.Log{SessionID: s.Log.SessionID, RoleType: role.Speaker()}
	sapLabels := dataset.Labels{SessionID: s.Log.SessionID, RoleType: role.Speaker()}
	slgLabels := dataset.Labels{SessionID: s.Log.SessionID, RoleType: role.Speaker()}

	for i, u := range s.Log.Utterances {
		pilot := dataset.LogUtterance{
			UtterIndex:   u.UtterIndex,
			Speaker:      u.Speaker,
			SemanticTags: semanticTags[s.Dir][i],
			SpeechAct:    s.Labels.Utterances[i].SpeechAct,
		}
		if role.Speaks(u.Speaker) {
			sapLabels.Utterances = append(sapLabels.Utterances, dataset.LabelUtterance{
				UtterIndex: u.UtterIndex,
				SpeechAct:  s.Labels.Utterances[i].SpeechAct,
			})
			slgLabels.Utterances = append(slgLabels.Utterances, dataset.LabelUtterance{
				UtterIndex: u.UtterIndex,
				Transcript: u.Transcript,
			})
		} else {
			pilot.Transcript = u.Transcript
		}
		in.Utterances = append(in.Utterances, pilot)
	}

	r := strings.ToLower(string(role))
	c.WriteJSON(s.Dir, "sap."+r+".in.json", in)
	c.WriteJSON(s.Dir, "sap."+r+".label.json", sapLabels)
	c.WriteJSON(s.Dir, "slg."+r+".in.json", in)
	c.WriteJSON(s.Dir, "slg."+r+".label.json", slgLabels)
}
