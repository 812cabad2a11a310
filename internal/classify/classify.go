// Package classify holds the small statistical models the pilot-task
// baselines train: a word-sequence tagger for semantic tags and a
// nearest-neighbour classifier over bags of features.
//
// Models are plain structs that serialize to JSON, so a trained model can
// be saved next to a tracker output and reloaded for prediction.
package classify

import (
	"github.com/FocuswithJustin/dstckit/internal/archive"
)

// SequenceTagger labels every word of a sentence with a B-/I-/O label.
// Implementations must be safe for concurrent use once trained.
type SequenceTagger interface {
	Tag(words []string) []string
}

// MultiLabelClassifier predicts a set of labels from a bag of features.
// Implementations must be safe for concurrent use once trained.
type MultiLabelClassifier interface {
	Predict(features []string) []string
}

// Save writes a model as JSON. A .gz or .xz suffix compresses it.
func Save(path string, model any) error {
	return archive.WriteJSON(path, model, false)
}

// Load reads a model written by Save.
func Load(path string, model any) error {
	return archive.ReadJSON(path, model)
}
