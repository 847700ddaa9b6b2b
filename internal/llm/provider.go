// Package llm defines the model-call contract the pipeline depends
// on: a black-box completion with an optional web-grounding flag.
// Every structured reply goes through DecodeStructured, which accepts
// both fenced and unfenced JSON.
package llm

import (
	"context"
	"errors"

	"github.com/ipetrov/sourcerer/internal/model"
)

// ErrGroundingUnsupported is returned by providers that cannot run a
// web-grounded completion.
var ErrGroundingUnsupported = errors.New("provider does not support web grounding")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs one model call and returns the reply text plus
	// any grounding citations the model attached
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request contains the input for one model call
type Request struct {
	// System is the system instruction
	System string

	// Prompt is the user content
	Prompt string

	// UseGrounding asks the provider to enable its built-in web
	// search grounding. Providers without it return
	// ErrGroundingUnsupported.
	UseGrounding bool

	// MaxTokens limits the response length (0 uses the config default)
	MaxTokens int
}

// Response contains the model's reply
type Response struct {
	// Text is the raw reply, possibly containing a fenced JSON block
	Text string

	// Sources lists the documents the model cited through grounding
	// metadata. Empty for ungrounded calls. Prose without citations
	// must never be treated as a source.
	Sources []GroundedSource
}

// GroundedSource is one citation from the model's grounding metadata
type GroundedSource struct {
	URI   string
	Title string
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "gemini", "openai", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "gemini",
		Model:     "",
		Timeout:   60,
		MaxTokens: 4096,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}
