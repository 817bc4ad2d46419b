package observability

import (
	"net"
	"net/http"
	"strings"
)

// ClientInfo identifies the caller behind a request for ws and audit events.
type ClientInfo struct {
	DeviceID  string
	RequestID string
	IP        string
}

// ClientFromRequest reads the device and request headers and the best-known
// client address. Proxies are trusted to set X-Forwarded-For or X-Real-IP.
func ClientFromRequest(r *http.Request) ClientInfo {
	return ClientInfo{
		DeviceID:  r.Header.Get("X-Device-Id"),
		RequestID: r.Header.Get("X-Request-Id"),
		IP:        clientIP(r),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
