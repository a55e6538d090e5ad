package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Texts longer than this are truncated before they are sent to an LLM judge.
const maxJudgeChars = 4000

const judgePrompt = `You are a detector of machine-generated text. Decide whether the passage below was written by an AI language model or by a human.

Passage:
%s

Respond ONLY with a valid JSON object (no markdown, no code blocks) with the following structure:
{
  "label": "AI" or "HUMAN",
  "confidence": a number between 0 and 1 giving the probability of your label
}`

type judgeVerdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

func judgeMessage(text string) string {
	runes := []rune(text)
	if len(runes) > maxJudgeChars {
		text = string(runes[:maxJudgeChars]) + "..."
	}
	return fmt.Sprintf(judgePrompt, text)
}

func parseVerdict(content string) (Prediction, error) {
	var v judgeVerdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		// Models sometimes wrap the object in a markdown code block.
		content = extractJSON(strings.TrimSpace(content))
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			return Prediction{}, fmt.Errorf("failed to parse judge response as JSON: %w", err)
		}
	}

	switch strings.ToUpper(strings.TrimSpace(v.Label)) {
	case string(LabelAI):
		return Prediction{Label: LabelAI, Confidence: clamp01(v.Confidence)}, nil
	case string(LabelHuman):
		return Prediction{Label: LabelHuman, Confidence: clamp01(v.Confidence)}, nil
	default:
		return Prediction{}, fmt.Errorf("unknown label %q", v.Label)
	}
}

// extractJSON strips a surrounding markdown code block, if present.
func extractJSON(content string) string {
	if len(content) > 7 && content[:3] == "```" {
		start := 0
		end := len(content)

		for i := 3; i < len(content); i++ {
			if content[i] == '\n' {
				start = i + 1
				break
			}
		}

		for i := len(content) - 1; i >= 0; i-- {
			if i >= 2 && content[i-2:i+1] == "```" {
				end = i - 2
				break
			}
		}

		if start < end {
			content = content[start:end]
		}
	}

	return content
}
