package fetch

import "context"

// SourceMock is the Content.Source value produced by the Mock strategy.
// Downstream assembly routes it to the deterministic indicator generator.
const SourceMock = "mock"

// Mock is the terminal strategy: it always succeeds with an empty body
// tagged as mock content, so a run never loses an item to network failure.
type Mock struct{}

func (Mock) Name() string { return SourceMock }

func (Mock) Enabled() bool { return true }

func (Mock) Fetch(_ context.Context, _ Target) (*Content, error) {
	return &Content{Source: SourceMock}, nil
}
