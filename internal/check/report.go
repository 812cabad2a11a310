// Package check validates tracker outputs against the dataset they claim
// to cover and against the ontology, before they are scored.
package check

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Problem is one defect of a tracker output. Context locates it, e.g.
// session id, "utterance", utter_index.
type Problem struct {
	Context []any
	Message string
}

func (p Problem) String() string {
	parts := make([]string, len(p.Context))
	for i, c := range p.Context {
		parts[i] = fmt.Sprint(c)
	}
	return strings.Join(parts, " ") + " - " + p.Message
}

// Report collects the problems of one tracker output.
type Report struct {
	Problems []Problem
}

func (r *Report) add(message string, context ...any) {
	r.Problems = append(r.Problems, Problem{Context: context, Message: message})
}

// Valid reports whether no problem was found.
func (r *Report) Valid() bool {
	return len(r.Problems) == 0
}

// Messages returns the problem messages in order.
func (r *Report) Messages() []string {
	out := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		out[i] = p.Message
	}
	return out
}

// Write prints the verdict followed by one line per problem.
func (r *Report) Write(w io.Writer) error {
	var sb strings.Builder
	if r.Valid() {
		sb.WriteString("Found no errors, trackfile is valid\n")
	} else {
		fmt.Fprintf(&sb, "Found %d errors:\n", len(r.Problems))
	}
	for _, p := range r.Problems {
		sb.WriteString(p.String())
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func list(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// sameInt reports whether a decoded JSON value is the number want.
func sameInt(v any, want int) bool {
	n, ok := v.(json.Number)
	if !ok {
		return false
	}
	if i, err := n.Int64(); err == nil {
		return i == int64(want)
	}
	f, err := n.Float64()
	return err == nil && f == float64(want)
}

// jsonType names the JSON type of a decoded value.
func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
