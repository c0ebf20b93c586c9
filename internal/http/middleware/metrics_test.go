package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsRoutesAndErrorCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/credits", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"free_credits": 3}) })
	r.POST("/credits/consume", func(c *gin.Context) {
		SetErrorCode(c, "insufficient_credits")
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"code": "insufficient_credits"})
	})
	r.GET("/payments/verify/:reference", func(c *gin.Context) { c.Status(http.StatusOK) })

	baseOK := testutil.ToFloat64(apiRequests.WithLabelValues("GET", "/credits", "200"))
	base402 := testutil.ToFloat64(apiErrors.WithLabelValues("/credits/consume", "insufficient_credits"))
	baseVerify := testutil.ToFloat64(apiRequests.WithLabelValues("GET", "/payments/verify/:reference", "200"))
	base404 := testutil.ToFloat64(apiErrors.WithLabelValues("/nope", "status_404"))

	for _, tc := range []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/credits", http.StatusOK},
		{http.MethodPost, "/credits/consume", http.StatusPaymentRequired},
		{http.MethodGet, "/payments/verify/cr_abc", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.target, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s -> %d, want %d", tc.method, tc.target, w.Code, tc.want)
		}
	}

	if got := testutil.ToFloat64(apiRequests.WithLabelValues("GET", "/credits", "200")); got != baseOK+1 {
		t.Fatalf("requests /credits 200 = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(apiErrors.WithLabelValues("/credits/consume", "insufficient_credits")); got != base402+1 {
		t.Fatalf("insufficient_credits errors = %v; want %v", got, base402+1)
	}
	// The reference never becomes a label value.
	if got := testutil.ToFloat64(apiRequests.WithLabelValues("GET", "/payments/verify/:reference", "200")); got != baseVerify+1 {
		t.Fatalf("verify route = %v; want %v", got, baseVerify+1)
	}
	if got := testutil.ToFloat64(apiErrors.WithLabelValues("/nope", "status_404")); got != base404+1 {
		t.Fatalf("unmatched route errors = %v; want %v", got, base404+1)
	}
	if v := testutil.ToFloat64(apiInFlight); v != 0 {
		t.Fatalf("in-flight = %v; want 0", v)
	}
}

func TestMetrics_SkipsOpsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics("/health"))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	base := testutil.ToFloat64(apiRequests.WithLabelValues("GET", "/health", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health -> %d", w.Code)
	}
	if got := testutil.ToFloat64(apiRequests.WithLabelValues("GET", "/health", "200")); got != base {
		t.Fatalf("skipped route was counted: %v -> %v", base, got)
	}
}

func TestErrorCode_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := ErrorCode(c); got != "" {
		t.Fatalf("ErrorCode = %q; want empty", got)
	}
	SetErrorCode(c, "invalid_signature")
	if got := ErrorCode(c); got != "invalid_signature" {
		t.Fatalf("ErrorCode = %q", got)
	}
}
