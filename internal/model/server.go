package model

import (
	"fmt"
	"sync"

	"github.com/Brownie44l1/tl-eval/internal/metrics"
)

// Scorer produces one raw score per class for a preprocessed image.
type Scorer interface {
	Scores(input []float32) ([]float32, error)
}

// Server answers predictions for a served model. Calls are serialised
// because the underlying session reuses its tensors.
type Server struct {
	mu       sync.Mutex
	scorer   Scorer
	Metadata Metadata
	arch     Architecture
}

func NewServer(scorer Scorer, arch Architecture, metadata Metadata) *Server {
	return &Server{scorer: scorer, arch: arch, Metadata: metadata}
}

func (s *Server) Architecture() Architecture {
	return s.arch
}

// InputLen is the number of float32 values a raw prediction request must carry.
func (s *Server) InputLen() int {
	return 3 * s.arch.InputSize * s.arch.InputSize
}

func (s *Server) Predict(inputData []float32) (*PredictionResponse, error) {
	s.mu.Lock()
	outputData, err := s.scorer.Scores(inputData)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(outputData) != len(s.Metadata.Classes) {
		return nil, fmt.Errorf("model returned %d scores for %d classes", len(outputData), len(s.Metadata.Classes))
	}

	predictions := make(map[string]float32, len(outputData))
	for i, val := range outputData {
		predictions[s.Metadata.Classes[i]] = val
	}

	ranked := metrics.TopK(outputData, 5)
	top5 := make([]string, len(ranked))
	for i, idx := range ranked {
		top5[i] = s.Metadata.Classes[idx]
	}

	return &PredictionResponse{
		Class:       top5[0],
		Confidence:  outputData[ranked[0]],
		Predictions: predictions,
		Top5:        top5,
	}, nil
}
