package classify

import (
	"math"
	"sort"
)

// Instance is one training example: a bag of features and its labels.
type Instance struct {
	Features map[string]float64 `json:"features"`
	Labels   []string           `json:"labels"`
	// Output is an optional payload returned by Nearest, such as the
	// sentence a generator replays.
	Output string `json:"output,omitempty"`
}

// KNN is a k-nearest-neighbour classifier under cosine similarity. A label
// is predicted when more than half of the K nearest instances carry it.
type KNN struct {
	K         int        `json:"k"`
	Instances []Instance `json:"instances"`
}

// NewKNN returns an empty classifier voting over k neighbours. k below 1
// is treated as 1.
func NewKNN(k int) *KNN {
	return &KNN{K: max(k, 1)}
}

// Bag counts repeated features.
func Bag(features []string) map[string]float64 {
	bag := make(map[string]float64, len(features))
	for _, f := range features {
		bag[f]++
	}
	return bag
}

// Add records one training example.
func (m *KNN) Add(features, labels []string, output string) {
	m.Instances = append(m.Instances, Instance{
		Features: Bag(features),
		Labels:   labels,
		Output:   output,
	})
}

// Len returns the number of training examples.
func (m *KNN) Len() int {
	return len(m.Instances)
}

type neighbour struct {
	index int
	sim   float64
}

// neighbours returns the k most similar instances, most similar first.
// Equal similarities keep training order.
func (m *KNN) neighbours(features []string, k int) []neighbour {
	query := Bag(features)
	qnorm := norm(query)
	all := make([]neighbour, len(m.Instances))
	for i := range m.Instances {
		all[i] = neighbour{index: i, sim: cosine(query, qnorm, m.Instances[i].Features)}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].sim > all[b].sim })
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// Predict returns the majority labels of the nearest instances, sorted.
func (m *KNN) Predict(features []string) []string {
	k := max(m.K, 1)
	nn := m.neighbours(features, k)
	if len(nn) == 0 {
		return nil
	}
	votes := make(map[string]int)
	for _, n := range nn {
		seen := make(map[string]bool)
		for _, l := range m.Instances[n.index].Labels {
			if !seen[l] {
				seen[l] = true
				votes[l]++
			}
		}
	}
	var out []string
	for l, v := range votes {
		if 2*v > len(nn) {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// Nearest returns the most similar instance and its similarity. It reports
// false when the classifier is empty.
func (m *KNN) Nearest(features []string) (Instance, float64, bool) {
	nn := m.neighbours(features, 1)
	if len(nn) == 0 {
		return Instance{}, 0, false
	}
	return m.Instances[nn[0].index], nn[0].sim, true
}

func norm(v map[string]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func cosine(q map[string]float64, qnorm float64, v map[string]float64) float64 {
	vnorm := norm(v)
	if qnorm == 0 || vnorm == 0 {
		return 0
	}
	var dot float64
	for f, x := range q {
		dot += x * v[f]
	}
	return dot / (qnorm * vnorm)
}

var _ MultiLabelClassifier = (*KNN)(nil)
