// Package score evaluates tracker outputs against the labelled dataset and
// lays the results out as the challenge's CSV score files.
package score

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/dstckit/core/stats"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/metrics"
)

// Headers of the score files.
const (
	MainHeader  = "topic, slot, schedule, stat, N, result"
	PilotHeader = "task, subtask, schedule, stat, N, result"
)

// Options configure a scoring run.
type Options struct {
	// Metrics receives parse failures and skipped utterances. May be nil.
	Metrics *metrics.Registry
	// AM and FM score SLG sentences after text preparation. Either may be
	// nil, in which case the measure is not reported.
	AM stats.TextMetric
	FM stats.TextMetric
}

// Row is one measure of one stat. Group and Item are topic and slot for
// the main task, task and subtask otherwise.
type Row struct {
	Group    string
	Item     string
	Schedule string
	Stat     string
	N        int
	Value    *float64
}

// Result formats the value the way score files print it.
func (r Row) Result() string {
	if r.Value == nil {
		return "-"
	}
	return fmt.Sprintf("%.7f", *r.Value)
}

func (r Row) String() string {
	return fmt.Sprintf("%s, %s, %s, %s, %d, %s", r.Group, r.Item, r.Schedule, r.Stat, r.N, r.Result())
}

// Basic is a run-level fact printed after the rows of a main-task score.
type Basic struct {
	Name  string
	Value string
}

// Table is the outcome of one scoring run.
type Table struct {
	Task     dataset.Task
	Role     dataset.Role
	Dataset  string
	RunID    string
	WallTime float64
	Header   string
	Rows     []Row
	Basic    []Basic
}

func (t *Table) add(group, item, schedule string, s stats.Stat) {
	for _, res := range s.Results() {
		t.Rows = append(t.Rows, Row{
			Group:    group,
			Item:     item,
			Schedule: schedule,
			Stat:     res.Name,
			N:        res.N,
			Value:    res.Value,
		})
	}
}

// Find returns the row with the given keys.
func (t *Table) Find(group, item, schedule, stat string) (Row, bool) {
	for _, r := range t.Rows {
		if r.Group == group && r.Item == item && r.Schedule == schedule && r.Stat == stat {
			return r, true
		}
	}
	return Row{}, false
}

// WriteCSV writes the header, the rows and the basic facts.
func (t *Table) WriteCSV(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString(t.Header)
	sb.WriteByte('\n')
	for _, r := range t.Rows {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	for _, b := range t.Basic {
		fmt.Fprintf(&sb, "basic,%s,,,,%s\n", b.Name, b.Value)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
