package view

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/portalfiscal/pkg/httpx"
)

// ClientPath is the portal path of a client's public page.
func ClientPath(slug string) string {
	return "/cliente/" + url.PathEscape(slug)
}

// ClientURL is the shareable link for a slug. It depends only on its inputs.
func ClientURL(origin, slug string) string {
	return strings.TrimSuffix(origin, "/") + ClientPath(slug)
}

// Origin returns the configured public URL or, failing that, the origin the
// browser used to reach us. Forwarded host and scheme only count when a
// trusted proxy reported them (httpx.TrustProxies).
func Origin(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return strings.TrimSuffix(publicURL, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if fw, ok := httpx.ForwardedFromContext(r.Context()); ok {
		if fw.Proto != "" {
			scheme = fw.Proto
		}
		if fw.Host != "" {
			host = fw.Host
		}
	}
	return scheme + "://" + host
}
