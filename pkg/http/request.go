package http

import (
	"net"
	"net/http"
	"strings"
)

// FallbackIP is returned when no candidate in the header chain validates.
// Requests are never failed on origin resolution.
const FallbackIP = "127.0.0.1"

// ipHeaders is the header priority order for origin resolution. Known
// CDN/edge headers come first; generic forwarding headers can be spoofed
// by the client itself and are consulted only afterwards.
var ipHeaders = []string{
	"CF-Connecting-IP",
	"X-Real-IP",
	"X-Forwarded-For",
	"X-Forwarded",
	"X-Cluster-Client-IP",
	"Forwarded-For",
	"Forwarded",
}

// ClientIP resolves the canonical client IP for a request.
// Headers are examined in priority order; forwarding headers may carry a
// comma-separated chain, of which only the first entry is considered.
// The first syntactically valid IPv4/IPv6 value wins; the transport-level
// peer address is the last candidate and FallbackIP the final answer.
func ClientIP(r *http.Request) string {
	for _, header := range ipHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(header), "FORWARDED") {
			value = strings.TrimSpace(strings.Split(value, ",")[0])
		} else {
			value = strings.TrimSpace(value)
		}
		if isValidIP(value) {
			return value
		}
	}

	if remote := remoteAddr(r); isValidIP(remote) {
		return remote
	}

	return FallbackIP
}

// remoteAddr extracts the IP address from RemoteAddr (removing port if present)
func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return ""
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

// isValidIP checks if a string is a valid IPv4 or IPv6 address
func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}
