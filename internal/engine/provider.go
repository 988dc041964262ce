package engine

import (
	"context"
	"fmt"
	"slices"
)

// Completion is a single request to a generation service.
type Completion struct {
	Model       string
	Messages    []Message
	Temperature float32
}

// Provider submits a completion to a generation service using a caller
// supplied credential. Implementations must not retain the credential.
type Provider interface {
	Name() string
	Complete(ctx context.Context, credential string, c Completion) (string, error)
}

// Supported provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var providers = []string{ProviderOpenAI, ProviderGemini}

// Providers returns the supported provider names.
func Providers() []string {
	return providers
}

// NewProvider creates the named provider. baseURL overrides the service
// endpoint when non-empty.
func NewProvider(name, baseURL string) (Provider, error) {
	switch name {
	case ProviderOpenAI:
		return &openAIProvider{baseURL: baseURL}, nil
	case ProviderGemini:
		return &geminiProvider{baseURL: baseURL}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownProvider, name, providers)
	}
}

func validProvider(name string) bool {
	return slices.Contains(providers, name)
}
