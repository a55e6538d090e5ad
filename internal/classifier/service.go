package classifier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/godfrey-tankan/document-insight-view/internal/utils"
)

// Factory builds the underlying classifier. It may be expensive.
type Factory func() (Classifier, error)

// Service owns the process-wide classifier. It is constructed once at
// startup and injected; the backend is built on first use and reused.
type Service struct {
	factory Factory
	logger  *utils.Logger

	once sync.Once
	clf  Classifier
	err  error
}

func NewService(factory Factory, logger *utils.Logger) *Service {
	return &Service{factory: factory, logger: logger}
}

func (s *Service) load() (Classifier, error) {
	s.once.Do(func() {
		s.clf, s.err = s.factory()
		if s.err != nil {
			s.logger.Error("Failed to initialize classifier", "error", s.err)
			return
		}
		s.logger.Info("Classifier initialized")
	})
	return s.clf, s.err
}

func (s *Service) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	clf, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	return clf.Classify(ctx, texts)
}

// BackendConfig selects and configures a classifier backend.
type BackendConfig struct {
	Backend         string
	HFAPIToken      string
	HFModelURL      string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
}

// NewFactory returns the Factory for cfg.Backend. Unknown backends and
// missing credentials surface when the factory runs.
func NewFactory(cfg BackendConfig, logger *utils.Logger) Factory {
	return func() (Classifier, error) {
		switch strings.ToLower(cfg.Backend) {
		case "", "heuristic":
			return NewHeuristic(), nil
		case "huggingface":
			return NewHuggingFace(cfg.HFAPIToken, cfg.HFModelURL, logger), nil
		case "openai":
			if cfg.OpenAIAPIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
			}
			return NewOpenAIJudge(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
		case "anthropic":
			if cfg.AnthropicAPIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic backend")
			}
			return NewAnthropicJudge(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
		default:
			return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
		}
	}
}
