package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkacem/microquote/internal/modules/features"
)

func TestEncode(t *testing.T) {
	meta := ArtifactMeta{
		Version: "v1",
		Features: features.Schema{
			Num:  []string{features.ColDensityPerKm2, features.ColShopAreaM2},
			Bool: []string{features.ColOpenAtNight},
			Cat:  []string{features.ColRevenueBucket},
		},
		Encoder: EncoderMeta{
			NumMean:  []float64{1000, 40},
			NumScale: []float64{500, 20},
			CatVocab: map[string][]string{
				features.ColRevenueBucket: {"low", "medium", "high"},
			},
		},
	}

	row := features.Row{
		Schema: meta.Features,
		Num:    []float64{1500, 60},
		Bool:   []int{1},
		Cat:    []string{"medium"},
	}

	x, err := Encode(row, meta)
	require.NoError(t, err)

	// Scaled numerics, passthrough boolean, one-hot categorical.
	assert.Equal(t, []float64{1, 1, 1, 0, 1, 0}, x)
	assert.Len(t, x, meta.EncodedDim())
}

func TestEncode_UnknownCategoryIsAllZeros(t *testing.T) {
	meta := ArtifactMeta{
		Version: "v1",
		Features: features.Schema{
			Cat: []string{features.ColGovernorate},
		},
		Encoder: EncoderMeta{
			CatVocab: map[string][]string{
				features.ColGovernorate: {"Tunis", "Sfax"},
			},
		},
	}

	row := features.Row{Schema: meta.Features, Cat: []string{"UNKNOWN"}}

	x, err := Encode(row, meta)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, x)
}

func TestEncode_ZeroScaleColumn(t *testing.T) {
	meta := ArtifactMeta{
		Version: "v1",
		Features: features.Schema{
			Num: []string{features.ColYearsActive},
		},
		Encoder: EncoderMeta{
			NumMean:  []float64{5},
			NumScale: []float64{0},
		},
	}

	row := features.Row{Schema: meta.Features, Num: []float64{12}}

	x, err := Encode(row, meta)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, x)
}

func TestEncode_SchemaMismatch(t *testing.T) {
	meta := ArtifactMeta{
		Version:  "v1",
		Features: features.Schema{Num: []string{features.ColShopAreaM2}},
		Encoder:  EncoderMeta{NumMean: []float64{0}, NumScale: []float64{1}},
	}

	row := features.Row{Num: []float64{1, 2}}

	_, err := Encode(row, meta)
	assert.Error(t, err)
}

func TestArtifactMetaValidate(t *testing.T) {
	tests := []struct {
		name    string
		meta    ArtifactMeta
		wantErr bool
	}{
		{
			name: "Valid",
			meta: ArtifactMeta{
				Version:  "v1",
				Features: features.Schema{Num: []string{features.ColShopAreaM2}},
				Encoder:  EncoderMeta{NumMean: []float64{0}, NumScale: []float64{1}},
			},
		},
		{
			name:    "Missing version",
			meta:    ArtifactMeta{},
			wantErr: true,
		},
		{
			name: "Mean length mismatch",
			meta: ArtifactMeta{
				Version:  "v1",
				Features: features.Schema{Num: []string{features.ColShopAreaM2}},
				Encoder:  EncoderMeta{NumScale: []float64{1}},
			},
			wantErr: true,
		},
		{
			name: "Missing categorical vocabulary",
			meta: ArtifactMeta{
				Version:  "v1",
				Features: features.Schema{Cat: []string{features.ColGovernorate}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
