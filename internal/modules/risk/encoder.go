package risk

import (
	"fmt"

	"github.com/hkacem/microquote/internal/modules/features"
)

// Encode turns a strictly-typed feature row into the numeric vector a
// model's weights were fitted against: scaled numerics, passthrough
// booleans, then one-hot categoricals in vocabulary order. The layout
// depends only on the artifact metadata, so two calls with the same row
// always produce the same vector.
func Encode(row features.Row, meta ArtifactMeta) ([]float64, error) {
	if len(row.Num) != len(meta.Features.Num) ||
		len(row.Bool) != len(meta.Features.Bool) ||
		len(row.Cat) != len(meta.Features.Cat) {
		return nil, fmt.Errorf("feature row does not match artifact schema (%d/%d/%d vs %d/%d/%d)",
			len(row.Num), len(row.Bool), len(row.Cat),
			len(meta.Features.Num), len(meta.Features.Bool), len(meta.Features.Cat))
	}

	out := make([]float64, 0, meta.EncodedDim())

	for i, x := range row.Num {
		scale := meta.Encoder.NumScale[i]
		if scale == 0 {
			// constant column in training data
			out = append(out, 0)
			continue
		}
		out = append(out, (x-meta.Encoder.NumMean[i])/scale)
	}

	for _, b := range row.Bool {
		out = append(out, float64(b))
	}

	for i, col := range meta.Features.Cat {
		vocab := meta.Encoder.CatVocab[col]
		for _, level := range vocab {
			if row.Cat[i] == level {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}

	return out, nil
}
