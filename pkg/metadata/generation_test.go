package metadata

import (
	"strings"
	"testing"
)

func TestParseGeneration_InvokeAI(t *testing.T) {
	payload := `{
		"prompt": "a lighthouse in a storm",
		"negative_prompt": "blurry, low quality",
		"seed": 1234567890,
		"steps": 28,
		"cfg_scale": 7.0,
		"scheduler": "euler_a",
		"model": {"name": "sdxl-turbo", "key": "abc123"}
	}`

	gen, err := parseGeneration("invokeai_metadata", []byte(payload))
	if err != nil {
		t.Fatalf("parseGeneration returned error: %v", err)
	}

	if gen.SourceKey != "invokeai_metadata" {
		t.Errorf("SourceKey = %q", gen.SourceKey)
	}
	if gen.Prompt != "a lighthouse in a storm" {
		t.Errorf("Prompt = %q", gen.Prompt)
	}
	if gen.NegativePrompt != "blurry, low quality" {
		t.Errorf("NegativePrompt = %q", gen.NegativePrompt)
	}
	if gen.Seed != "1234567890" {
		t.Errorf("Seed = %q", gen.Seed)
	}
	if gen.Steps != 28 {
		t.Errorf("Steps = %d", gen.Steps)
	}
	if gen.CFGScale != 7.0 {
		t.Errorf("CFGScale = %f", gen.CFGScale)
	}
	if gen.Sampler != "euler_a" {
		t.Errorf("Sampler = %q", gen.Sampler)
	}
	if gen.Model != "sdxl-turbo" {
		t.Errorf("Model = %q", gen.Model)
	}
}

func TestParseGeneration_FlatModelString(t *testing.T) {
	gen, err := parseGeneration("sd-metadata", []byte(`{"model":"dreamshaper-8","sampler":"DPM++ 2M","seed":"99"}`))
	if err != nil {
		t.Fatalf("parseGeneration returned error: %v", err)
	}
	if gen.Model != "dreamshaper-8" {
		t.Errorf("Model = %q", gen.Model)
	}
	if gen.Sampler != "DPM++ 2M" {
		t.Errorf("Sampler = %q", gen.Sampler)
	}
	if gen.Seed != "99" {
		t.Errorf("string seed must pass through, got %q", gen.Seed)
	}
}

func TestParseGeneration_PreservesRawVerbatim(t *testing.T) {
	// Unknown keys must survive untouched in the raw blob
	payload := `{"prompt":"x","custom_pipeline_field":[1,2,3]}`
	gen, err := parseGeneration("generation_params", []byte(payload))
	if err != nil {
		t.Fatalf("parseGeneration returned error: %v", err)
	}
	if string(gen.Raw) != payload {
		t.Errorf("raw blob must be verbatim, got %s", gen.Raw)
	}
}

func TestParseGeneration_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"truncated json", `{"prompt": "unterm`},
		{"non-object", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseGeneration("parameters", []byte(tt.payload)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseGeneration_MissingFieldsAreZero(t *testing.T) {
	gen, err := parseGeneration("parameters", []byte(`{"prompt":"minimal"}`))
	if err != nil {
		t.Fatalf("parseGeneration returned error: %v", err)
	}
	if gen.Seed != "" || gen.Steps != 0 || gen.CFGScale != 0 || gen.Model != "" {
		t.Errorf("missing fields must be zero values: %+v", gen)
	}
}

func TestDefaultGenerationKeys_Order(t *testing.T) {
	// InvokeAI's key is checked before the generic "parameters" fallback
	joined := strings.Join(DefaultGenerationKeys, ",")
	if !strings.HasPrefix(joined, "invokeai_metadata") {
		t.Errorf("invokeai_metadata must be first, got %v", DefaultGenerationKeys)
	}
	if DefaultGenerationKeys[len(DefaultGenerationKeys)-1] != "parameters" {
		t.Errorf("parameters must be the fallback, got %v", DefaultGenerationKeys)
	}
}
