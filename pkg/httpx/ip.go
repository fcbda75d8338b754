package httpx

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Forwarded is what a trusted reverse proxy reported about the original
// request.
type Forwarded struct {
	For   string // client address
	Host  string // host the browser asked for
	Proto string // "http" or "https"
}

type forwardedKey struct{}

// ForwardedFromContext returns the proxy report attached by TrustProxies.
// ok is false when the request did not come through a trusted proxy.
func ForwardedFromContext(ctx context.Context) (Forwarded, bool) {
	fw, ok := ctx.Value(forwardedKey{}).(Forwarded)
	return fw, ok
}

// ParseTrustedProxies reads a comma separated list of IPs and CIDRs.
func ParseTrustedProxies(list string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", item, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", item, err)
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out, nil
}

// TrustProxies reads X-Forwarded-For, X-Real-IP, X-Forwarded-Host and
// X-Forwarded-Proto only when the connection comes from one of trusted.
// Headers from anyone else are ignored. With an empty list it is a no-op.
func TrustProxies(trusted []netip.Prefix) Middleware {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !contains(trusted, peerIP(r)) {
				next.ServeHTTP(w, r)
				return
			}

			fw := Forwarded{For: forwardedClient(r, trusted)}
			if h := r.Header.Get("X-Forwarded-Host"); h != "" {
				first, _, _ := strings.Cut(h, ",")
				fw.Host = strings.TrimSpace(first)
			}
			if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
				fw.Proto = p
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), forwardedKey{}, fw)))
		})
	}
}

// forwardedClient walks X-Forwarded-For from the right and returns the first
// hop that is not itself a trusted proxy.
func forwardedClient(r *http.Request, trusted []netip.Prefix) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			addr, err := netip.ParseAddr(hop)
			if err != nil {
				break
			}
			if !contains(trusted, addr) {
				return addr.Unmap().String()
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String()
		}
	}
	return ""
}

func contains(set []netip.Prefix, addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range set {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func peerIP(r *http.Request) netip.Addr {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, _ := netip.ParseAddr(host)
	return addr
}

// GetRemoteIP returns the client address: the one a trusted proxy reported,
// otherwise the connection's peer.
func GetRemoteIP(r *http.Request) string {
	if fw, ok := ForwardedFromContext(r.Context()); ok && fw.For != "" {
		return fw.For
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
