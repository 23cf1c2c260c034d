package llm

import (
	"context"
)

// Result is what a completion backend hands back: the generated text, a
// tag naming the backend that produced it, and a non-fatal error note when
// the backend degraded (the graph treats Err as diagnostics, not failure).
type Result struct {
	Text   string
	Source string
	Err    string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any completion backend.
type Provider interface {
	// Complete sends a single prompt to the model and returns the response.
	Complete(ctx context.Context, prompt string, options ...Option) (*Result, error)
}
