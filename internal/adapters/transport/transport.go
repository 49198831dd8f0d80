// Package transport builds the HTTP client a session uses for its proxy.
package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Jigsaw-Code/outline-sdk/x/configurl"
	"github.com/bnema/nodekeeper/internal/domain"
)

const defaultTimeout = 30 * time.Second

// NewHTTPClient returns a client whose every request leaves through proxy.
func NewHTTPClient(proxy domain.Proxy, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected default transport %T", http.DefaultTransport)
	}
	rt := base.Clone()

	switch proxy.Kind {
	case domain.ProxyDirect:
		rt.Proxy = nil
	case domain.ProxyHTTP:
		if proxy.URL == nil {
			return nil, fmt.Errorf("%w: http proxy without url", domain.ErrUnsupportedProxy)
		}
		rt.Proxy = http.ProxyURL(proxy.URL)
	case domain.ProxySOCKS:
		dialContext, err := socksDialContext(proxy)
		if err != nil {
			return nil, err
		}
		rt.Proxy = nil
		rt.DialContext = dialContext
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProxy, proxy.Kind)
	}

	return &http.Client{
		Transport: rt,
		Timeout:   timeout,
	}, nil
}

func socksDialContext(proxy domain.Proxy) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	if proxy.URL == nil {
		return nil, fmt.Errorf("%w: socks proxy without url", domain.ErrUnsupportedProxy)
	}

	dialer, err := configurl.NewDefaultConfigToDialer().NewStreamDialer(socksConfig(proxy))
	if err != nil {
		return nil, fmt.Errorf("%w: create socks dialer: %v", domain.ErrUnsupportedProxy, err)
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if !strings.HasPrefix(network, "tcp") {
			return nil, fmt.Errorf("protocol not supported: %v", network)
		}
		return dialer.DialStream(ctx, addr)
	}, nil
}

// socksConfig renders the proxy in the transport config form, which only
// knows the socks5 scheme.
func socksConfig(proxy domain.Proxy) string {
	u := *proxy.URL
	u.Scheme = "socks5"
	u.Path = ""
	u.RawQuery = ""
	return u.String()
}
