package risk

import (
	"fmt"
	"math"

	"github.com/hkacem/microquote/internal/modules/features"
)

// ClusterProfile describes one trained segmentation cluster and its
// deterministic product recommendation (empty = no recommendation).
type ClusterProfile struct {
	ClusterID             int    `json:"cluster_id"`
	Label                 string `json:"label"`
	RecommendedTemplateID string `json:"recommended_template_id"`
	UnderwritingFlag      bool   `json:"underwriting_flag"`
}

// SegmentationModel holds k-means centroids over the encoded feature
// space plus the per-cluster business profiles.
type SegmentationModel struct {
	Meta      ArtifactMeta     `json:"meta"`
	Centroids [][]float64      `json:"centroids"`
	Clusters  []ClusterProfile `json:"clusters"`

	hints map[int]string
}

func loadSegmentationModel(dir string) (*SegmentationModel, error) {
	var m SegmentationModel
	if err := readArtifact(dir, SegmentationArtifact, &m); err != nil {
		return nil, err
	}
	if err := m.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("segmentation artifact: %w", err)
	}
	if len(m.Centroids) == 0 {
		return nil, fmt.Errorf("segmentation artifact has no centroids")
	}
	dim := m.Meta.EncodedDim()
	for i, c := range m.Centroids {
		if len(c) != dim {
			return nil, fmt.Errorf("segmentation centroid %d has %d dims, want %d", i, len(c), dim)
		}
	}

	m.hints = make(map[int]string, len(m.Clusters))
	for _, c := range m.Clusters {
		if c.RecommendedTemplateID != "" {
			m.hints[c.ClusterID] = c.RecommendedTemplateID
		}
	}
	return &m, nil
}

// PredictCluster assigns a feature row to its nearest centroid.
func (m *SegmentationModel) PredictCluster(row features.Row) (int, error) {
	x, err := Encode(row, m.Meta)
	if err != nil {
		return 0, err
	}

	best := 0
	bestDist := math.Inf(1)
	for i, c := range m.Centroids {
		var d float64
		for j := range c {
			diff := x[j] - c[j]
			d += diff * diff
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, nil
}

// TemplateHint returns the recommended template for a cluster, or ""
// when the cluster carries no recommendation.
func (m *SegmentationModel) TemplateHint(clusterID int) string {
	return m.hints[clusterID]
}
