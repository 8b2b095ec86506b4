// Package middleware holds the per-IP rate limiting applied in front of
// the Hub's submission endpoint, plus the client-IP extraction strategies
// it depends on.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
)

// IPExtractor extracts the client IP address from an HTTP request.
// Implementations differ in how much they trust proxy-supplied headers.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor uses the TCP peer address only, ignoring forwarding
// headers. Correct when the Hub is directly reachable; behind a reverse
// proxy it would rate-limit the proxy instead of the client.
type RemoteAddrExtractor struct{}

// ExtractIP returns the host part of RemoteAddr.
func (e *RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return hostFromAddr(r.RemoteAddr)
}

// TrustedProxyExtractor honors X-Forwarded-For / X-Real-IP, but only when
// the direct peer is inside one of the configured trusted CIDR ranges.
// An untrusted peer's headers are ignored so a client cannot spoof its
// way past the limiter.
type TrustedProxyExtractor struct {
	trusted []*net.IPNet
}

// NewTrustedProxyExtractor parses the given CIDR ranges.
func NewTrustedProxyExtractor(cidrs []string) (*TrustedProxyExtractor, error) {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("trusted proxy: invalid CIDR %q: %w", cidr, err)
		}
		nets = append(nets, ipNet)
	}
	return &TrustedProxyExtractor{trusted: nets}, nil
}

// NewExtractorFromEnv builds the extractor the Hub should use:
// TRUSTED_PROXY_CIDRS (comma-separated) enables proxy-header trust,
// otherwise the plain RemoteAddr extractor is returned.
func NewExtractorFromEnv() (IPExtractor, error) {
	raw := os.Getenv("TRUSTED_PROXY_CIDRS")
	if raw == "" {
		return &RemoteAddrExtractor{}, nil
	}
	return NewTrustedProxyExtractor(strings.Split(raw, ","))
}

// ExtractIP returns the originating client IP per the trust rules above.
func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	peer, err := hostFromAddr(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	if !e.isTrusted(peer) {
		return peer, nil
	}

	// Leftmost valid entry in X-Forwarded-For is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String(), nil
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String(), nil
		}
	}
	return peer, nil
}

func (e *TrustedProxyExtractor) isTrusted(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, ipNet := range e.trusted {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// hostFromAddr strips the port from a host:port address; a bare host is
// returned as-is (some test servers omit the port).
func hostFromAddr(addr string) (string, error) {
	if addr == "" {
		return "", fmt.Errorf("empty remote address")
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		if ip := net.ParseIP(addr); ip != nil {
			return ip.String(), nil
		}
		return "", fmt.Errorf("unparseable remote address %q", addr)
	}
	return host, nil
}
