package classifier

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultAnthropicModel = "claude-3-haiku-20240307"

type AnthropicJudge struct {
	client anthropic.Client
	model  string
}

func NewAnthropicJudge(apiKey, model string) *AnthropicJudge {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicJudge{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (j *AnthropicJudge) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	out := make([]Prediction, len(texts))
	for i, text := range texts {
		resp, err := j.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(j.model),
			MaxTokens: 128,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(judgeMessage(text))),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic chat: %w", err)
		}

		content := ""
		for _, block := range resp.Content {
			if block.Type == "text" {
				content += block.Text
			}
		}

		p, err := parseVerdict(content)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
