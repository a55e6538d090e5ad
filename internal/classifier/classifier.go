// Package classifier estimates how likely text is to be machine-generated.
package classifier

import (
	"context"
	"errors"
)

type Label string

const (
	LabelAI    Label = "AI"
	LabelHuman Label = "HUMAN"
)

// ErrClassifierUnavailable marks a failed classification pass. Callers
// degrade to a zero AI score instead of failing the analysis.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// Prediction is the classifier's answer for one text. Confidence is the
// probability of Label and lies in [0,1].
type Prediction struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier labels a batch of texts. The returned slice is index-aligned
// with texts.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]Prediction, error)
}

// AIContribution converts a prediction into a 0-100 likelihood that the text
// is machine-generated.
func AIContribution(p Prediction) float64 {
	c := min(max(p.Confidence, 0), 1)
	if p.Label == LabelAI {
		return c * 100
	}
	return (1 - c) * 100
}

// predictionFromProbability turns P(AI) into a labelled prediction.
func predictionFromProbability(pAI float64) Prediction {
	pAI = min(max(pAI, 0), 1)
	if pAI >= 0.5 {
		return Prediction{Label: LabelAI, Confidence: pAI}
	}
	return Prediction{Label: LabelHuman, Confidence: 1 - pAI}
}
