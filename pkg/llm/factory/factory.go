package factory

import (
	"context"
	"fmt"

	"money-coach-be/pkg/llm"
	"money-coach-be/pkg/llm/gemini"
	"money-coach-be/pkg/llm/huggingface"
	"money-coach-be/pkg/llm/ollama"
)

type ProviderConfig struct {
	Provider          string
	Model             string
	OllamaBaseURL     string
	HuggingFaceAPIKey string
	GeminiAPIKey      string
}

func NewLLMProvider(ctx context.Context, cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(cfg.HuggingFaceAPIKey, "", cfg.Model), nil
	case "gemini":
		return gemini.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
