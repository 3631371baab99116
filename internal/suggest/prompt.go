package suggest

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed prompt.yaml
var defaultPrompt []byte

// Prompt is the parsed prompt file.
type Prompt struct {
	Text            string  `yaml:"prompt"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Temperature     float64 `yaml:"temperature"`
}

// LoadPrompt reads the prompt file at path, or the embedded default when
// path is empty. Unknown YAML fields are rejected.
func LoadPrompt(path string) (*Prompt, error) {
	data := defaultPrompt
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file: %w", err)
		}
	}
	return ParsePrompt(data)
}

// ParsePrompt decodes a prompt document with strict validation.
func ParsePrompt(data []byte) (*Prompt, error) {
	var p Prompt
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown YAML keys to catch typos

	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}

	if p.Text == "" {
		return nil, fmt.Errorf("prompt file missing required field: prompt")
	}
	if p.MaxOutputTokens <= 0 {
		p.MaxOutputTokens = 400
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return nil, fmt.Errorf("prompt temperature %v out of range [0, 2]", p.Temperature)
	}

	return &p, nil
}
