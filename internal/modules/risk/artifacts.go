package risk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hkacem/microquote/internal/modules/features"
)

// Artifact file names under the artifacts directory.
const (
	FrequencyArtifact    = "frequency.json"
	SeverityArtifact     = "severity.json"
	UncertaintyArtifact  = "uncertainty.json"
	SegmentationArtifact = "segmentation.json"
)

// EncoderMeta is the fitted preprocessing state shipped with each model
// artifact: standard-scaler parameters for numeric columns and the
// one-hot vocabulary for categorical columns. Boolean columns pass
// through as 0/1. A category outside the vocabulary encodes to all
// zeros (openly unknown, never rejected).
type EncoderMeta struct {
	NumMean  []float64           `json:"num_mean"`
	NumScale []float64           `json:"num_scale"`
	CatVocab map[string][]string `json:"cat_vocab"`
}

// ArtifactMeta is the header every model artifact carries: a version
// string and the fixed, versioned feature-column contract the Feature
// Normalizer must reproduce exactly.
type ArtifactMeta struct {
	Version  string          `json:"version"`
	Features features.Schema `json:"features"`
	Encoder  EncoderMeta     `json:"encoder"`
}

// Validate checks the encoder state against the declared schema.
// A mismatch is a configuration error, not a runtime fallback.
func (m ArtifactMeta) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("artifact has no version")
	}
	if len(m.Encoder.NumMean) != len(m.Features.Num) {
		return fmt.Errorf("encoder num_mean has %d entries, schema declares %d numeric columns",
			len(m.Encoder.NumMean), len(m.Features.Num))
	}
	if len(m.Encoder.NumScale) != len(m.Features.Num) {
		return fmt.Errorf("encoder num_scale has %d entries, schema declares %d numeric columns",
			len(m.Encoder.NumScale), len(m.Features.Num))
	}
	for _, col := range m.Features.Cat {
		if len(m.Encoder.CatVocab[col]) == 0 {
			return fmt.Errorf("encoder has no vocabulary for categorical column %q", col)
		}
	}
	return nil
}

// EncodedDim returns the length of the encoded feature vector.
func (m ArtifactMeta) EncodedDim() int {
	dim := len(m.Features.Num) + len(m.Features.Bool)
	for _, col := range m.Features.Cat {
		dim += len(m.Encoder.CatVocab[col])
	}
	return dim
}

// ErrArtifactMissing distinguishes an absent artifact file (expected
// degraded mode) from a corrupted one.
type ErrArtifactMissing struct {
	Path string
}

func (e ErrArtifactMissing) Error() string {
	return fmt.Sprintf("model artifact missing: %s", e.Path)
}

// readArtifact decodes a JSON model artifact into v.
func readArtifact(dir, name string, v interface{}) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrArtifactMissing{Path: path}
		}
		return fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	return nil
}
