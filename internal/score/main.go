package score

import (
	"context"
	"strconv"
	"time"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/core/stats"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/ontology"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// Main-task schedules: schedule 1 scores every utterance of a segment,
// schedule 2 scores only the last utterance of each segment.
const (
	ScheduleEach = 1
	ScheduleEnd  = 2
)

var errNoLabels = &cerrors.ValidationError{Field: "labels", Message: "scoring needs a walker that loads labels"}

// frameStat is one accumulator restricted to a topic and slot. "all"
// lifts either restriction.
type frameStat struct {
	topic, slot string
	schedule    int
	stat        stats.FrameStat
}

func newFrameStats(ont *ontology.Ontology) []*frameStat {
	var out []*frameStat
	for _, schedule := range []int{ScheduleEach, ScheduleEnd} {
		add := func(topic, slot string) {
			out = append(out,
				&frameStat{topic: topic, slot: slot, schedule: schedule, stat: stats.NewFrameAccuracy()},
				&frameStat{topic: topic, slot: slot, schedule: schedule, stat: stats.NewFramePrecisionRecall()},
			)
		}
		add("all", "all")
		for _, topic := range ont.Topics() {
			for _, slot := range append(ont.Slots(topic), "all") {
				add(topic, slot)
			}
		}
	}
	return out
}

// add scores pred against ref for an utterance of topic. A slot stat only
// counts utterances where either side mentions the slot.
func (s *frameStat) add(topic string, pred, ref *stats.Frame) {
	switch {
	case s.topic == "all", s.topic == topic && s.slot == "all":
		s.stat.Add(pred, ref)
	case s.topic != topic, pred == nil, ref == nil:
	default:
		_, inPred := (*pred)[s.slot]
		_, inRef := (*ref)[s.slot]
		if inPred || inRef {
			p, r := pred.Only(s.slot), ref.Only(s.slot)
			s.stat.Add(&p, &r)
		}
	}
}

func labelFrame(l *dataset.LabelUtterance) *stats.Frame {
	if l == nil {
		return nil
	}
	f := stats.Frame(l.FrameLabel).Clone()
	return &f
}

// Main scores a main-task output. Utterances outside any segment are
// skipped by every stat; a segment utterance without a frame_label counts
// as an empty prediction.
func Main(ctx context.Context, w *dataset.Walker, out *track.Output[track.MainUtterance], ont *ontology.Ontology, opts Options) (*Table, error) {
	start := time.Now()
	all := newFrameStats(ont)
	endOfSegment := func(topic string, pred, ref *stats.Frame) {
		for _, s := range all {
			if s.schedule == ScheduleEnd {
				s.add(topic, pred, ref)
			}
		}
	}

	utterances := 0
	for i := 0; i < min(w.Len(), len(out.Sessions)); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := w.Load(i)
		if err != nil {
			return nil, err
		}
		if s.Labels == nil {
			return nil, errNoLabels
		}

		turns := s.Turns()
		recs := out.Sessions[i].Utterances
		var (
			prevPred, prevRef *stats.Frame
			prevTopic         string
		)
		for j := 0; j < min(len(turns), len(recs)); j++ {
			utterances++
			t := turns[j]
			topic := t.Log.Topic()

			var pred, ref *stats.Frame
			switch bio := t.Log.TargetBIO(); bio {
			case "B", "I":
				if bio == "B" {
					endOfSegment(prevTopic, prevPred, prevRef)
				}
				ref = labelFrame(t.Label)
				if ref == nil {
					opts.Metrics.Skipped(string(dataset.TaskMain))
				}
				pred = recs[j].FrameLabel
				if pred == nil {
					pred = &stats.Frame{}
				}
			}

			for _, st := range all {
				if st.schedule == ScheduleEach {
					st.add(topic, pred, ref)
				}
			}
			prevPred, prevRef, prevTopic = pred, ref, topic
		}
		endOfSegment(prevTopic, prevPred, prevRef)
	}

	t := &Table{
		Task:     dataset.TaskMain,
		Dataset:  out.Dataset,
		RunID:    out.RunID,
		WallTime: out.WallTime,
		Header:   MainHeader,
	}
	for _, s := range all {
		t.add(s.topic, s.slot, strconv.Itoa(s.schedule), s.stat)
	}
	perUtterance := "-"
	if utterances > 0 {
		perUtterance = formatFloat(out.WallTime / float64(utterances))
	}
	t.Basic = []Basic{
		{Name: "total_wall_time", Value: formatFloat(out.WallTime)},
		{Name: "sessions", Value: strconv.Itoa(w.Len())},
		{Name: "utterances", Value: strconv.Itoa(utterances)},
		{Name: "wall_time_per_utterance", Value: perUtterance},
		{Name: "dataset", Value: out.Dataset},
	}
	logging.RunFinished(ctx, "score "+string(dataset.TaskMain), time.Since(start), "utterances", utterances)
	return t, nil
}
