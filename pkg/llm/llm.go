// Package llm holds the provider-neutral generation types shared by the
// OpenAI and Gemini clients, plus the retry and rate-limit decorators.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// Capability tags a model with the parameter shape it accepts.
type Capability int

const (
	// Sampling models take max_tokens and a temperature.
	Sampling Capability = iota
	// Reasoning models take max_completion_tokens and a reasoning effort.
	Reasoning
)

func (c Capability) String() string {
	if c == Reasoning {
		return "reasoning"
	}
	return "sampling"
}

func ParseCapability(s string) (Capability, error) {
	switch s {
	case "sampling":
		return Sampling, nil
	case "reasoning":
		return Reasoning, nil
	}
	return Sampling, fmt.Errorf("unknown model capability %q", s)
}

// Model describes the process-wide model. It is fixed at startup.
type Model struct {
	ID              string
	Capability      Capability
	Temperature     float64
	ReasoningEffort string
}

type Request struct {
	System    string
	User      string
	MaxTokens int
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
