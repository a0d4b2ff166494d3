// Package llm talks to the completion providers that generate lessons,
// chat replies, translation verdicts and the word of the day.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required,max=2000"`
}

// Request is one completion call. System is sent as the provider's system
// instruction; Messages is the conversation so far, oldest first.
type Request struct {
	System      string
	Messages    []Message
	JSON        bool
	Temperature float32
}

// Generator is implemented by every provider.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

var ErrEmptyResponse = errors.New("llm returned an empty response")

// Prompt builds a single-turn request.
func Prompt(system, user string, json bool) Request {
	return Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: user}},
		JSON:        json,
		Temperature: 0.7,
	}
}

type Options struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OllamaURL    string
	OllamaModel  string
	Timeout      time.Duration
}

// New returns the configured provider.
func New(ctx context.Context, opts Options) (Generator, error) {
	switch opts.Provider {
	case "gemini":
		return NewGemini(ctx, opts.GeminiAPIKey, opts.GeminiModel, opts.Timeout)
	case "ollama":
		return NewOllama(opts.OllamaURL, opts.OllamaModel, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

// Recorder receives the outcome of every call made through Instrument.
type Recorder func(provider string, success bool, elapsed time.Duration)

type instrumented struct {
	Generator
	record Recorder
}

// Instrument wraps g so that each Generate call is reported to record.
func Instrument(g Generator, record Recorder) Generator {
	return &instrumented{Generator: g, record: record}
}

func (i *instrumented) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := i.Generator.Generate(ctx, req)
	i.record(i.Name(), err == nil, time.Since(start))
	return out, err
}
