package fetch

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NetCheck probes basic connectivity before expensive strategies start.
// Three independent probes run in parallel; one success is enough. The
// verdict is cached for the lifetime of the checker.
type NetCheck struct {
	once   sync.Once
	online bool

	// probe hooks, replaced in tests
	lookupHost func(ctx context.Context, host string) ([]string, error)
	dialTCP    func(ctx context.Context, addr string) error
	httpHead   func(ctx context.Context, url string) error
}

// NewNetCheck creates a checker with real network probes.
func NewNetCheck() *NetCheck {
	var resolver net.Resolver
	var dialer net.Dialer
	client := &http.Client{Timeout: 5 * time.Second}

	return &NetCheck{
		lookupHost: resolver.LookupHost,
		dialTCP: func(ctx context.Context, addr string) error {
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return err
			}
			return conn.Close()
		},
		httpHead: func(ctx context.Context, url string) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			return resp.Body.Close()
		},
	}
}

// Online reports whether at least one probe succeeded. Probes run once;
// subsequent calls return the cached verdict.
func (n *NetCheck) Online(ctx context.Context) bool {
	n.once.Do(func() {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		var (
			mu sync.Mutex
			ok bool
		)
		g, gCtx := errgroup.WithContext(probeCtx)

		probes := []struct {
			name string
			run  func(context.Context) error
		}{
			{"dns", func(ctx context.Context) error {
				_, err := n.lookupHost(ctx, "www.google.com")
				return err
			}},
			{"tcp", func(ctx context.Context) error {
				return n.dialTCP(ctx, "8.8.8.8:53")
			}},
			{"http", func(ctx context.Context) error {
				return n.httpHead(ctx, "https://www.google.com")
			}},
		}
		for _, p := range probes {
			p := p
			g.Go(func() error {
				if err := p.run(gCtx); err != nil {
					zap.L().Debug("netcheck: probe failed",
						zap.String("probe", p.name),
						zap.Error(err),
					)
					return nil
				}
				mu.Lock()
				ok = true
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		n.online = ok
		if !ok {
			zap.L().Warn("netcheck: all connectivity probes failed, network considered offline")
		}
	})
	return n.online
}
