package metadata

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pxvault/px/internal/core/domain"
)

// DefaultGenerationKeys are the metadata keys generative tools are known to
// embed their parameter blobs under, in lookup order.
var DefaultGenerationKeys = []string{
	"invokeai_metadata",
	"sd-metadata",
	"generation_params",
	"parameters",
}

// parseGeneration interprets a raw payload found under key as a generation
// parameter block. The raw payload is always preserved verbatim; the parsed
// fields are best-effort since every tool uses its own schema.
func parseGeneration(key string, payload []byte) (*domain.GenerationParams, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, fmt.Errorf("empty payload")
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	gen := &domain.GenerationParams{
		Raw:       json.RawMessage(trimmed),
		SourceKey: key,
	}

	gen.Prompt = lookupString(m, "prompt", "positive_prompt", "positive_style_prompt")
	gen.NegativePrompt = lookupString(m, "negative_prompt", "negative_style_prompt")
	gen.Sampler = lookupString(m, "sampler", "scheduler", "sampler_name")
	gen.Seed = lookupStringOrNumber(m, "seed")
	gen.Steps = int(lookupFloat(m, "steps", "num_inference_steps"))
	gen.CFGScale = lookupFloat(m, "cfg_scale", "guidance_scale", "cfg")

	// Model may be a plain string or a nested object with a name
	if v, ok := m["model"]; ok {
		switch mv := v.(type) {
		case string:
			gen.Model = mv
		case map[string]any:
			gen.Model = lookupString(mv, "name", "model_name", "key")
		}
	}
	if gen.Model == "" {
		gen.Model = lookupString(m, "model_name", "model_hash")
	}

	return gen, nil
}

func lookupString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func lookupStringOrNumber(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			// JSON numbers decode as float64; seeds are integral
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

func lookupFloat(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := m[k].(float64); ok {
			return v
		}
	}
	return 0
}
