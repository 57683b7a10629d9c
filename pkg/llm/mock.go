package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/airsift/airsift/pkg/tools"
)

// MockProvider is a deterministic offline backend for tests and local
// development. Responses can be scripted in order, keyed by substring, or
// left to a canned default.
type MockProvider struct {
	mu       sync.Mutex
	script   []*Output
	keyed    map[string]*Output
	requests []*Input
	err      error
}

// NewMockProvider creates a mock with no script.
func NewMockProvider() *MockProvider {
	return &MockProvider{keyed: make(map[string]*Output)}
}

// Enqueue appends scripted outputs consumed in order, before keyed
// matches.
func (p *MockProvider) Enqueue(outputs ...*Output) {
	p.mu.Lock()
	p.script = append(p.script, outputs...)
	p.mu.Unlock()
}

// RespondWhen returns out for any message containing substr.
func (p *MockProvider) RespondWhen(substr string, out *Output) {
	p.mu.Lock()
	p.keyed[strings.ToLower(substr)] = out
	p.mu.Unlock()
}

// FailWith makes every call return err until reset with nil.
func (p *MockProvider) FailWith(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Requests returns every input seen, for assertions.
func (p *MockProvider) Requests() []*Input {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Input(nil), p.requests...)
}

func (p *MockProvider) ProcessMessage(ctx context.Context, in *Input) (*Output, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, in)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.script) > 0 {
		out := p.script[0]
		p.script = p.script[1:]
		return out, nil
	}
	lower := strings.ToLower(in.Message)
	for substr, out := range p.keyed {
		if strings.Contains(lower, substr) {
			return out, nil
		}
	}
	return &Output{
		Text:         fmt.Sprintf("Mock response to: %s", in.Message),
		TokensUsed:   len(in.Message) / 4,
		FinishReason: FinishStop,
	}, nil
}

func (p *MockProvider) GetToolSchemas() []tools.Definition { return nil }

func (p *MockProvider) Setup(ctx context.Context) error { return nil }

func (p *MockProvider) Cleanup() error { return nil }
