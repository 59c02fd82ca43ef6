// Package infer is the probabilistic pathway: a YAML-defined linear model
// scored with a logistic squash. It produces a decision with an attached
// confidence rather than a verified verdict.
package infer

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/axiomhive/hybrid/internal/crypto"
	"github.com/axiomhive/hybrid/pkg/types"
)

type Model struct {
	ModelID       string             `yaml:"model_id"`
	Bias          float64            `yaml:"bias"`
	Weights       map[string]float64 `yaml:"weights"`
	Threshold     float64            `yaml:"threshold"`
	PositiveLabel string             `yaml:"positive_label"`
	NegativeLabel string             `yaml:"negative_label"`
}

type Scorer struct {
	model Model
	hash  string
}

// LoadScorer reads model weights from a YAML file and computes the model
// hash from the raw bytes.
func LoadScorer(path string) (*Scorer, error) {
	// #nosec G304 -- path comes from operator-configured model path.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := validate(m); err != nil {
		return nil, err
	}

	return &Scorer{model: m, hash: crypto.DigestWithPrefix(data)}, nil
}

func NewScorer(m Model) (*Scorer, error) {
	if err := validate(m); err != nil {
		return nil, err
	}
	return &Scorer{model: m}, nil
}

func validate(m Model) error {
	if m.ModelID == "" {
		return fmt.Errorf("model_id is required")
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("model %s: threshold must be in (0,1)", m.ModelID)
	}
	if m.PositiveLabel == "" || m.NegativeLabel == "" {
		return fmt.Errorf("model %s: positive_label and negative_label are required", m.ModelID)
	}
	return nil
}

func (s *Scorer) ModelID() string {
	return s.model.ModelID
}

// Hash is the content hash of the raw model bytes; empty for in-memory models.
func (s *Scorer) Hash() string {
	return s.hash
}

// Evaluate scores the input features and classifies against the threshold.
// Confidence is the probability mass behind the chosen label, so it is
// always at least 1-threshold.
func (s *Scorer) Evaluate(input types.RequestInput) (types.DecisionRecord, error) {
	score := s.model.Bias
	for name, weight := range s.model.Weights {
		score += weight * input.Features[name]
	}
	p := sigmoid(score)

	decision := s.model.NegativeLabel
	confidence := 1 - p
	if p >= s.model.Threshold {
		decision = s.model.PositiveLabel
		confidence = p
	}

	return types.DecisionRecord{
		Decision:   decision,
		Confidence: types.Float(confidence),
		Reasoning:  fmt.Sprintf("model %s score %.4f against threshold %.2f", s.model.ModelID, p, s.model.Threshold),
	}, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
