package model

import (
	"encoding/json"
	"os"

	"github.com/Brownie44l1/tl-eval/internal/common"
)

// Metadata is the JSON sidecar exported next to a served model.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// LoadMetadata reads and checks the sidecar at path against arch.
func LoadMetadata(path string, arch Architecture) (Metadata, error) {
	metaFile, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, common.Wrap(common.ErrIO, "read metadata", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, common.Wrap(common.ErrIO, "parse metadata", err)
	}

	if len(metadata.Classes) == 0 {
		return Metadata{}, common.Errorf(common.ErrSchema, "metadata lists no classes")
	}
	if metadata.ImageSize != 0 && metadata.ImageSize != arch.InputSize {
		return Metadata{}, common.Errorf(common.ErrModelLoad, "metadata image size %d does not match %s input size %d",
			metadata.ImageSize, arch.Name, arch.InputSize)
	}
	return metadata, nil
}

type PredictionRequest struct {
	Image []float32 `json:"image"`
}

type PredictionResponse struct {
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
	Top5        []string           `json:"top5"`
}
