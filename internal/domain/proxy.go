package domain

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

type ProxyKind int

const (
	ProxyDirect ProxyKind = iota
	ProxyHTTP
	ProxySOCKS
)

func (k ProxyKind) String() string {
	switch k {
	case ProxyDirect:
		return "direct"
	case ProxyHTTP:
		return "http"
	case ProxySOCKS:
		return "socks5"
	default:
		return fmt.Sprintf("ProxyKind(%d)", int(k))
	}
}

// Proxy is the outbound path a session uses for every request.
type Proxy struct {
	Kind ProxyKind
	URL  *url.URL
}

func (p Proxy) String() string {
	if p.URL == nil {
		return p.Kind.String()
	}

	return p.URL.Redacted()
}

// ParseProxy selects the transport by scheme prefix. An empty value means
// a direct connection.
func ParseProxy(raw string) (Proxy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Proxy{Kind: ProxyDirect}, nil
	}

	var kind ProxyKind
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		kind = ProxyHTTP
	case strings.HasPrefix(lower, "socks://"), strings.HasPrefix(lower, "socks5://"):
		kind = ProxySOCKS
	default:
		return Proxy{}, fmt.Errorf("%w: %s", ErrUnsupportedProxy, redactRaw(raw))
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Proxy{}, fmt.Errorf("%w: parse %s: %v", ErrUnsupportedProxy, redactRaw(raw), err)
	}
	if parsed.Host == "" {
		return Proxy{}, fmt.Errorf("%w: missing host in %s", ErrUnsupportedProxy, redactRaw(raw))
	}

	return Proxy{Kind: kind, URL: parsed}, nil
}

// IPFromProxyURL returns the proxy host when it is a dotted-quad IPv4
// address, or "" otherwise.
func IPFromProxyURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	host := parsed.Hostname()
	if !IsValidIPv4(host) {
		return ""
	}

	return host
}

func IsValidIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}

	return addr.Is4() && addr.String() == s
}

func redactRaw(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}

	return raw
}
