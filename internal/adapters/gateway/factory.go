package gateway

import (
	"fmt"
	"time"

	"github.com/bnema/nodekeeper/internal/adapters/transport"
	"github.com/bnema/nodekeeper/internal/domain"
	"github.com/bnema/nodekeeper/internal/ports"
	"github.com/rs/zerolog"
)

const noProxyLabel = "no-proxy"

type Factory struct {
	BaseURL     string
	Origin      string
	Timeout     time.Duration
	BackoffBase time.Duration
	Logger      zerolog.Logger
	// Sleep defaults to ports.Sleep; tests swap it to record delays.
	Sleep ports.Sleeper
}

var _ ports.RequesterFactory = Factory{}

// NewRequester resolves the account's transport once. Every request the
// returned Executor sends uses that transport.
func (f Factory) NewRequester(account domain.Account, proxy domain.Proxy, userAgent string) (ports.Requester, error) {
	return f.NewExecutor(account, proxy, userAgent)
}

func (f Factory) NewExecutor(account domain.Account, proxy domain.Proxy, userAgent string) (*Executor, error) {
	if f.BaseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}

	client, err := transport.NewHTTPClient(proxy, f.Timeout)
	if err != nil {
		return nil, fmt.Errorf("build transport for node %s: %w", account.NodeID.Short(), err)
	}

	sleep := f.Sleep
	if sleep == nil {
		sleep = ports.Sleep
	}

	ip := domain.IPFromProxyURL(account.Proxy)
	if ip == "" {
		ip = noProxyLabel
	}

	return &Executor{
		client:      client,
		baseURL:     f.BaseURL,
		token:       account.Token,
		userAgent:   userAgent,
		origin:      f.Origin,
		backoffBase: f.BackoffBase,
		sleep:       sleep,
		logger: f.Logger.With().
			Str("node", account.NodeID.Short()).
			Str("ip", ip).
			Str("proxy", proxy.Kind.String()).
			Logger(),
	}, nil
}
