package factory

import (
	"fmt"

	"sat-sight-be/pkg/llm"
	"sat-sight-be/pkg/llm/ollama"
)

// NewProvider selects the completion backend from configuration.
func NewProvider(providerName, baseURL, model string) (llm.Provider, error) {
	switch providerName {
	case "ollama", "":
		return ollama.NewOllamaProvider(baseURL, model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", providerName)
	}
}
