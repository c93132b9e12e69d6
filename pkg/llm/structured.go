package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GenerateStructured runs prompt in JSON mode and decodes the reply into out.
// Decoding failures wrap ErrParse.
func GenerateStructured(ctx context.Context, p LLMProvider, prompt string, out interface{}, opts ...Option) error {
	raw, err := p.Generate(ctx, prompt, append([]Option{WithJSON()}, opts...)...)
	if err != nil {
		return err
	}
	return DecodeJSON(raw, out)
}

// DecodeJSON extracts the first JSON object or array in raw, tolerating
// markdown code fences and leading prose.
func DecodeJSON(raw string, out interface{}) error {
	body := extractJSON(raw)
	if body == "" {
		return fmt.Errorf("%w: no json in reply", ErrParse)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return ""
	}
	return s[start : end+1]
}
