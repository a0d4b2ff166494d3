package llm

import (
	"context"
	"sync"
)

// Scripted is a Generator that replays canned responses to tests.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	Err       error
	Requests  []Request
}

func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

func (s *Scripted) Name() string { return "scripted" }

// Generate returns the next response; the last one repeats once the
// script runs out.
func (s *Scripted) Generate(_ context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.responses) == 0 {
		return "", ErrEmptyResponse
	}
	out := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return out, nil
}

// Calls reports how many requests were made.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
