package factory

import (
	"context"
	"testing"

	"money-coach-be/pkg/llm/huggingface"
	"money-coach-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProviderConfig
		check   func(t *testing.T, p interface{})
		wantErr bool
	}{
		{
			name: "ollama",
			cfg:  ProviderConfig{Provider: "ollama", Model: "llama3"},
			check: func(t *testing.T, p interface{}) {
				o, ok := p.(*ollama.OllamaProvider)
				require.True(t, ok)
				assert.Equal(t, "http://localhost:11434", o.BaseURL)
			},
		},
		{
			name: "huggingface",
			cfg:  ProviderConfig{Provider: "huggingface", Model: "m"},
			check: func(t *testing.T, p interface{}) {
				_, ok := p.(*huggingface.HuggingFaceProvider)
				assert.True(t, ok)
			},
		},
		{name: "gemini without key", cfg: ProviderConfig{Provider: "gemini"}, wantErr: true},
		{name: "unknown", cfg: ProviderConfig{Provider: "openai"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewLLMProvider(context.Background(), tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}
