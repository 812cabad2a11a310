// Package metrics holds the Prometheus counters a dstckit run accumulates.
//
// Runs are short-lived batch jobs, so counters live in a private registry
// and are exported once through the node_exporter textfile format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/FocuswithJustin/dstckit/core/projection"
)

const namespace = "dstc"

// Registry bundles the counters of one run.
type Registry struct {
	reg *prometheus.Registry

	ParseFailures     *prometheus.CounterVec
	UtterancesSkipped *prometheus.CounterVec
	Projection        *Projection
}

// New creates a Registry with every counter registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markup_parse_failures_total",
			Help:      "Tagged utterances that could not be parsed, by component.",
		}, []string{"component"}),
		UtterancesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_skipped_total",
			Help:      "Utterances left out of scoring, by task.",
		}, []string{"task"}),
		Projection: newProjection(),
	}
	reg.MustRegister(r.ParseFailures, r.UtterancesSkipped)
	r.Projection.register(reg)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ParseFailed counts one markup parse failure in component.
func (r *Registry) ParseFailed(component string) {
	if r == nil {
		return
	}
	r.ParseFailures.WithLabelValues(component).Inc()
}

// Skipped counts one utterance dropped from scoring.
func (r *Registry) Skipped(task string) {
	if r == nil {
		return
	}
	r.UtterancesSkipped.WithLabelValues(task).Inc()
}

// WriteToTextfile writes every counter to path in the Prometheus text
// exposition format.
func (r *Registry) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

// Projection counts label-projection degradation.
type Projection struct {
	Utterances       prometheus.Counter
	Chars            prometheus.Counter
	UnmappedChars    prometheus.Counter
	UnalignedTokens  prometheus.Counter
	UntaggedChars    prometheus.Counter
	DroppedAlignment prometheus.Counter
}

var _ projection.Recorder = (*Projection)(nil)

func newProjection() *Projection {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projection",
			Name:      name,
			Help:      help,
		})
	}
	return &Projection{
		Utterances:       counter("utterances_total", "Utterances projected."),
		Chars:            counter("chars_total", "Target characters labelled by projection."),
		UnmappedChars:    counter("unmapped_chars_total", "Target characters not covered by any target token."),
		UnalignedTokens:  counter("unaligned_tokens_total", "Target tokens with no alignment entry."),
		UntaggedChars:    counter("untagged_chars_total", "Target characters that received no label."),
		DroppedAlignment: counter("dropped_alignment_total", "Alignment indices outside the source token range."),
	}
}

func (p *Projection) register(reg prometheus.Registerer) {
	reg.MustRegister(p.Utterances, p.Chars, p.UnmappedChars, p.UnalignedTokens, p.UntaggedChars, p.DroppedAlignment)
}

// RecordProjection adds the counts of one projected utterance.
func (p *Projection) RecordProjection(s projection.Stats) {
	p.Utterances.Inc()
	p.Chars.Add(float64(s.Chars))
	p.UnmappedChars.Add(float64(s.UnmappedChars))
	p.UnalignedTokens.Add(float64(s.UnalignedTokens))
	p.UntaggedChars.Add(float64(s.UntaggedChars))
	p.DroppedAlignment.Add(float64(s.DroppedAlignment))
}
