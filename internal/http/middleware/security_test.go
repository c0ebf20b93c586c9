package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		opt        SecurityOptions
		tls        bool
		forwarded  string
		wantPolicy bool
		wantHSTS   string
	}{
		{name: "baseline only", opt: SecurityOptions{}},
		{name: "policy", opt: SecurityOptions{EnablePolicy: true}, wantPolicy: true},
		{
			name:     "hsts over tls",
			opt:      SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour},
			tls:      true,
			wantHSTS: "max-age=86400; includeSubDomains; preload",
		},
		{
			name:      "hsts behind proxy uses default max age",
			opt:       SecurityOptions{EnableHSTS: true},
			forwarded: "https",
			wantHSTS:  "max-age=15552000; includeSubDomains; preload",
		},
		{name: "hsts never on plain http", opt: SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(SecurityHeaders(tc.opt))
			r.GET("/plans", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/plans", nil)
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tc.forwarded)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			h := w.Header()
			if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
				t.Fatalf("baseline headers missing: %#v", h)
			}
			if got := h.Get("X-Permitted-Cross-Domain-Policies") == "none"; got != tc.wantPolicy {
				t.Fatalf("policy headers = %v, want %v", got, tc.wantPolicy)
			}
			if got := h.Get("Strict-Transport-Security"); got != tc.wantHSTS {
				t.Fatalf("HSTS = %q, want %q", got, tc.wantHSTS)
			}
			if h.Get("Cache-Control") != "" {
				t.Fatalf("SecurityHeaders must not set caching: %q", h.Get("Cache-Control"))
			}
		})
	}
}

func TestPrivateResponses_BalanceIsNotCacheable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	api := r.Group("/api/v1", PrivateResponses())
	api.GET("/credits", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "free_credits": 3})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits", nil)
	req.Header.Set(HeaderUserID, "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q, want no-store", got)
	}
	if got := w.Header().Get("Pragma"); got != "no-cache" {
		t.Fatalf("Pragma = %q", got)
	}
	if got := w.Header().Values("Vary"); len(got) != 1 || got[0] != HeaderUserID {
		t.Fatalf("Vary = %v, want [%s]", got, HeaderUserID)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := w.Header().Get("Cache-Control"); got != "" {
		t.Fatalf("/health must stay cacheable, got Cache-Control %q", got)
	}
}

func Test_isHTTPS(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(plain) {
		t.Fatalf("plain HTTP should not be https")
	}
	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.TLS = &tls.ConnectionState{}
	if !isHTTPS(direct) {
		t.Fatalf("TLS request should be https")
	}
	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !isHTTPS(proxied) {
		t.Fatalf("X-Forwarded-Proto=HTTPS should be https")
	}
}
