package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTechnicalSource struct {
	enabled bool
	body    string
	err     error
	calls   int
}

func (s *stubTechnicalSource) Enabled() bool { return s.enabled }
func (s *stubTechnicalSource) Technical(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.body, s.err
}

func TestAPI_Fetch_ReturnsPayload(t *testing.T) {
	src := &stubTechnicalSource{enabled: true, body: `{"indicators":{"RSI_14":55.3}}`}

	a := NewAPI(src)
	content, err := a.Fetch(context.Background(), Target{Ticker: "AAPL"})

	require.NoError(t, err)
	assert.Equal(t, SourceAPI, content.Source)
	assert.Contains(t, content.Body, "RSI_14")
}

func TestAPI_DisabledSourceDisablesStrategy(t *testing.T) {
	a := NewAPI(&stubTechnicalSource{enabled: false})
	assert.False(t, a.Enabled())

	assert.False(t, NewAPI(nil).Enabled())
}

func TestAPI_Fetch_NoTickerUnavailable(t *testing.T) {
	src := &stubTechnicalSource{enabled: true}

	a := NewAPI(src)
	_, err := a.Fetch(context.Background(), Target{URL: "https://example.com/page"})

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, src.calls)
}

func TestAPI_Fetch_SourceErrorFallsThrough(t *testing.T) {
	src := &stubTechnicalSource{enabled: true, err: errors.New("credits exhausted")}
	a := NewAPI(src)

	chain := NewChain(nil, a, Mock{})
	content, err := chain.Fetch(context.Background(), Target{Ticker: "AAPL"})

	require.NoError(t, err)
	assert.Equal(t, SourceMock, content.Source)
}
