// Package orchestrator answers user questions. The HTTP-backed Ollama client is
// used when an endpoint is configured; otherwise Echo stands in.
package orchestrator

import (
	"context"
	"fmt"
	"time"
)

// Orchestrator produces an answer for question using the named model.
type Orchestrator interface {
	Answer(ctx context.Context, question, model string) (string, error)
	Name() string
}

// Options selects and configures an Orchestrator.
type Options struct {
	// BaseURL of an Ollama-compatible API. Empty selects Echo.
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
}

// New returns the orchestrator chosen by opts.
func New(opts Options) Orchestrator {
	if opts.BaseURL == "" {
		return Echo{}
	}
	return NewOllama(&ClientConfig{
		BaseURL:      opts.BaseURL,
		DefaultModel: opts.DefaultModel,
		Timeout:      opts.Timeout,
	})
}

// Echo repeats the question back. It is the development fallback.
type Echo struct{}

func (Echo) Answer(_ context.Context, question, _ string) (string, error) {
	return fmt.Sprintf("(Dev fallback) You asked: %s", question), nil
}

func (Echo) Name() string { return "echo" }
