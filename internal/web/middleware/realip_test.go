package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	mw := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.1", "bogus"})

	tests := []struct {
		name   string
		remote string
		real   string
		xff    string
		want   string
	}{
		{"trusted proxy with X-Real-IP", "10.1.2.3:4000", "203.0.113.7", "", "203.0.113.7"},
		{"trusted proxy with X-Forwarded-For", "10.1.2.3:4000", "", "203.0.113.8, 10.1.2.3", "203.0.113.8"},
		{"bare trusted IP", "192.168.1.1:4000", "203.0.113.9", "", "203.0.113.9"},
		{"untrusted client cannot spoof", "198.51.100.1:4000", "203.0.113.7", "", "198.51.100.1:4000"},
		{"trusted proxy without headers", "10.1.2.3:4000", "", "", "10.1.2.3:4000"},
		{"garbage header ignored", "10.1.2.3:4000", "not-an-ip", "", "10.1.2.3:4000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.real != "" {
				req.Header.Set("X-Real-IP", tt.real)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTrusted(t *testing.T) {
	nets := parseTrusted([]string{"", " 10.0.0.0/8 ", "::1", "nope"})
	if len(nets) != 2 {
		t.Fatalf("nets = %v, want 2 entries", nets)
	}
	if !isTrusted(extractIP("[::1]:80"), nets) {
		t.Error("::1 should be trusted")
	}
	if isTrusted(nil, nets) {
		t.Error("nil IP should not be trusted")
	}
}
