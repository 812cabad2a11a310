package bleu

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/FocuswithJustin/dstckit/core/xml"
)

// Seg is one segment of an mteval document.
type Seg struct {
	ID   string
	Text string
}

// Doc is one document of an mteval set.
type Doc struct {
	ID    string
	SysID string
	Segs  []Seg
}

// Set is a srcset, refset or tstset.
type Set struct {
	Kind    string
	SetID   string
	SrcLang string
	TrgLang string
	SysID   string
	Docs    []Doc
}

// ReadSets reads every set of an mteval XML file.
func ReadSets(r io.Reader) ([]Set, error) {
	xdoc, err := xml.ParseReader(r)
	if err != nil {
		return nil, err
	}
	nodes, err := xdoc.XPath("//srcset | //refset | //tstset")
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no srcset, refset or tstset element")
	}

	sets := make([]Set, 0, len(nodes))
	for _, n := range nodes {
		set := Set{
			Kind:    n.Name(),
			SetID:   n.Attr("setid"),
			SrcLang: n.Attr("srclang"),
			TrgLang: n.Attr("trglang"),
			SysID:   firstNonEmpty(n.Attr("sysid"), n.Attr("refid")),
		}
		if set.Kind == "srcset" && set.SysID == "" {
			set.SysID = "src"
		}
		docs, err := n.XPath("doc")
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			doc := Doc{ID: d.Attr("docid"), SysID: firstNonEmpty(d.Attr("sysid"), set.SysID)}
			segs, err := d.XPath(".//seg")
			if err != nil {
				return nil, err
			}
			for i, s := range segs {
				id := s.Attr("id")
				if id == "" {
					id = fmt.Sprint(i + 1)
				}
				doc.Segs = append(doc.Segs, Seg{ID: id, Text: strings.TrimSpace(s.Text())})
			}
			set.Docs = append(set.Docs, doc)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// ReadRaw reads one segment per line into a single-document set.
func ReadRaw(r io.Reader, docID, sysID string) (Set, error) {
	set := Set{Kind: "tstset", SysID: sysID}
	doc := Doc{ID: docID, SysID: sysID}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		doc.Segs = append(doc.Segs, Seg{ID: fmt.Sprint(len(doc.Segs) + 1), Text: sc.Text()})
	}
	if err := sc.Err(); err != nil {
		return Set{}, err
	}
	set.Docs = []Doc{doc}
	return set, nil
}

type segKey struct {
	doc string
	seg string
}

// Corpus collects every version of every segment, keyed by system id.
type Corpus struct {
	order    []segKey
	versions map[segKey]map[string]string
	systems  map[string]bool
	logger   *slog.Logger
}

// NewCorpus returns an empty corpus.
func NewCorpus(logger *slog.Logger) *Corpus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Corpus{
		versions: make(map[segKey]map[string]string),
		systems:  make(map[string]bool),
		logger:   logger,
	}
}

// Add adds every segment of set and returns the system ids it contained.
func (c *Corpus) Add(set Set) []string {
	seen := make(map[string]bool)
	for _, d := range set.Docs {
		for _, s := range d.Segs {
			key := segKey{doc: d.ID, seg: s.ID}
			v, ok := c.versions[key]
			if !ok {
				v = make(map[string]string)
				c.versions[key] = v
				c.order = append(c.order, key)
			}
			v[d.SysID] = s.Text
			seen[d.SysID] = true
			c.systems[d.SysID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Score scores system testID against refIDs. Segments missing the test
// or any reference version are skipped with a warning.
func (c *Corpus) Score(s Scorer, testID string, refIDs []string) (float64, [][]float64) {
	var all []Comps
	for _, key := range c.order {
		v := c.versions[key]
		test, ok := v[testID]
		if !ok {
			c.logger.Warn("missing test sentence", "doc", key.doc, "seg", key.seg)
			continue
		}
		refs := make([]string, 0, len(refIDs))
		for _, id := range refIDs {
			if ref, ok := v[id]; ok {
				refs = append(refs, ref)
			}
		}
		if len(refs) != len(refIDs) || len(refs) == 0 {
			c.logger.Warn("missing reference sentence", "doc", key.doc, "seg", key.seg)
			continue
		}
		all = append(all, s.CookTest(test, s.CookRefs(refs)))
	}
	return s.Corpus(all), s.PerSentence(all)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
