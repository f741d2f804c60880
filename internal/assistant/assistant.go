// Package assistant wraps the external text-generation service behind a
// small interface. The portal only ever sends a prompt and displays the
// returned string; failures degrade to a fallback message instead of
// reaching the UI as errors.
package assistant

import (
	"context"
	"log"
)

// Generator is the opaque text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DefaultFallback is shown when the generator is unavailable.
const DefaultFallback = "The study assistant is unavailable right now. Please try again later."

// Service adds graceful degradation around a Generator.
type Service struct {
	gen      Generator
	fallback string
}

func New(gen Generator) *Service {
	return &Service{gen: gen, fallback: DefaultFallback}
}

func NewWithFallback(gen Generator, fallback string) *Service {
	return &Service{gen: gen, fallback: fallback}
}

// Ask returns the generated text, or the fallback string if the
// collaborator fails or is not configured. A canceled context discards
// the pending response; nothing else is mutated.
func (s *Service) Ask(ctx context.Context, prompt string) string {
	if s.gen == nil {
		return s.fallback
	}
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("assistant: generate failed: %v", err)
		}
		return s.fallback
	}
	return out
}
