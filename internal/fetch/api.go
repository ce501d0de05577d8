package fetch

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SourceAPI is the Content.Source value produced by the API strategy.
// Downstream assembly decodes the body as a JSON indicator payload instead
// of parsing HTML.
const SourceAPI = "api"

// TechnicalSource provides raw technical-indicator payloads by symbol.
// Satisfied by quoteapi.Client.
type TechnicalSource interface {
	Technical(ctx context.Context, symbol string) (string, error)
	Enabled() bool
}

// API fetches indicator payloads from the authenticated quote API. The
// source latches itself off on a rejected key, which flips Enabled and
// removes this strategy from the chain for the rest of the run.
type API struct {
	src TechnicalSource
}

// NewAPI creates the API strategy.
func NewAPI(src TechnicalSource) *API {
	return &API{src: src}
}

func (a *API) Name() string { return SourceAPI }

func (a *API) Enabled() bool { return a.src != nil && a.src.Enabled() }

func (a *API) Fetch(ctx context.Context, target Target) (*Content, error) {
	if target.Ticker == "" {
		return nil, ErrUnavailable
	}
	body, err := a.src.Technical(ctx, target.Ticker)
	if err != nil {
		zap.L().Debug("api: technical fetch failed",
			zap.String("symbol", target.Ticker),
			zap.Error(err),
		)
		return nil, eris.Wrap(err, "api: technical fetch")
	}
	return &Content{Body: body, Source: SourceAPI}, nil
}
