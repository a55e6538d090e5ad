package classifier

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIJudge asks a chat model to label each text. BaseURL lets it target
// any OpenAI-compatible endpoint such as OpenRouter.
type OpenAIJudge struct {
	client *openai.Client
	model  string
}

func NewOpenAIJudge(apiKey, baseURL, model string) *OpenAIJudge {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIJudge{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (j *OpenAIJudge) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	out := make([]Prediction, len(texts))
	for i, text := range texts {
		resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: j.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: judgeMessage(text)},
			},
			Temperature: 0,
		})
		if err != nil {
			return nil, fmt.Errorf("openai chat: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai chat: no choices in response")
		}

		p, err := parseVerdict(resp.Choices[0].Message.Content)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
