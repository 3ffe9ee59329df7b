package api

import (
	"net"
	"net/http"
	"strings"
)

// extractIP returns the client address from proxy headers, if present.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		first, _, _ := strings.Cut(xForwardedFor, ",")
		return strings.TrimSpace(first)
	}
	return strings.TrimSpace(xRealIP)
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if ip := extractIP(r.Header.Get("X-Forwarded-For"), r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return remoteHost(r.RemoteAddr)
}

// remoteHost strips the port from a remote address.
func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
