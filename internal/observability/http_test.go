package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		ip      string
	}{
		{name: "forwarded for wins", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2", "X-Real-IP": "10.0.0.9"}, ip: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.9"}, ip: "10.0.0.9"},
		{name: "remote addr", remote: "192.168.1.5:4000", ip: "192.168.1.5"},
		{name: "remote addr without port", remote: "192.168.1.5", ip: "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws/me", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			assert.Equal(t, tt.ip, ClientFromRequest(req).IP)
		})
	}
}

func TestClientFromRequestHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/threads/rental/1", nil)
	req.Header.Set("X-Device-Id", "ios-7")
	req.Header.Set("X-Request-Id", "req-1")

	info := ClientFromRequest(req)

	assert.Equal(t, "ios-7", info.DeviceID)
	assert.Equal(t, "req-1", info.RequestID)
}
