package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/godfrey-tankan/document-insight-view/internal/utils"
)

const DefaultHFModelURL = "https://api-inference.huggingface.co/models/roberta-base-openai-detector"

type huggingFaceClassifier struct {
	apiToken string
	modelURL string
	logger   *utils.Logger
	client   *http.Client
}

type HFRequest struct {
	Inputs  []string  `json:"inputs"`
	Options HFOptions `json:"options"`
}

type HFOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type HFLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type HFError struct {
	Error string `json:"error"`
}

// NewHuggingFace calls a hosted text-classification model such as the
// RoBERTa OpenAI detector.
func NewHuggingFace(apiToken, modelURL string, logger *utils.Logger) Classifier {
	if modelURL == "" {
		modelURL = DefaultHFModelURL
	}
	return &huggingFaceClassifier{
		apiToken: apiToken,
		modelURL: modelURL,
		logger:   logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *huggingFaceClassifier) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	if len(texts) == 0 {
		return []Prediction{}, nil
	}

	jsonData, err := json.Marshal(HFRequest{Inputs: texts, Options: HFOptions{WaitForModel: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var hfErr HFError
		_ = json.Unmarshal(body, &hfErr)
		c.logger.Error("Hugging Face API error", "status", resp.StatusCode, "error", hfErr.Error)
		return nil, fmt.Errorf("hugging face API returned status %d", resp.StatusCode)
	}

	scores, err := decodeHFScores(body, len(texts))
	if err != nil {
		return nil, err
	}

	out := make([]Prediction, len(texts))
	for i, labels := range scores {
		p, err := predictionFromHF(labels)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// decodeHFScores accepts both the batched shape [[{label,score}...]...] and
// the flat shape returned for a single input.
func decodeHFScores(body []byte, n int) ([][]HFLabelScore, error) {
	var nested [][]HFLabelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) != n {
			return nil, fmt.Errorf("expected %d results, got %d", n, len(nested))
		}
		return nested, nil
	}

	var flat []HFLabelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if n != 1 {
		return nil, fmt.Errorf("expected %d results, got a single label list", n)
	}
	return [][]HFLabelScore{flat}, nil
}

// predictionFromHF picks the top-scoring label. The RoBERTa detector reports
// "Fake" for machine text and "Real" for human text.
func predictionFromHF(labels []HFLabelScore) (Prediction, error) {
	if len(labels) == 0 {
		return Prediction{}, fmt.Errorf("no labels in response")
	}

	best := labels[0]
	for _, l := range labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}

	switch strings.ToLower(best.Label) {
	case "fake", "ai", "label_1", "machine", "generated":
		return Prediction{Label: LabelAI, Confidence: clamp01(best.Score)}, nil
	case "real", "human", "label_0":
		return Prediction{Label: LabelHuman, Confidence: clamp01(best.Score)}, nil
	default:
		return Prediction{}, fmt.Errorf("unknown label %q", best.Label)
	}
}
