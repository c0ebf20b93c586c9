// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access log. Bodies are never
// logged: initialize carries the payer's email and webhook bodies carry the
// customer record. Header values and the query string are scrubbed of
// emails, card-number-like digit runs and provider secret keys, and
// credential headers (including the webhook signatures) are masked whole.
//
// Each line carries the payment reference for verify calls, the error
// envelope code for failures and whether an idempotent replay was served.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
//
// MaskHeaders adds header names (case-insensitive) whose values are replaced
// with "[REDACTED]" on top of Authorization, Cookie, Set-Cookie and both
// webhook signature headers.
type RedactOptions struct {
	MaskHeaders []string
}

type scrubRule struct {
	re   *regexp.Regexp
	repl string
}

// Secret keys go first; their suffix may contain digit runs.
var scrubRules = []scrubRule{
	{regexp.MustCompile(`\b[sp]k_(?:live|test)_[A-Za-z0-9]+`), "[REDACTED:key]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`), "[REDACTED:pan]"},
}

type redactor struct {
	masked map[string]struct{}
}

func newRedactor(extra []string) redactor {
	masked := map[string]struct{}{
		"authorization":        {},
		"cookie":               {},
		"set-cookie":           {},
		"x-signature":          {},
		"x-paystack-signature": {},
	}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}
	return redactor{masked: masked}
}

func (r redactor) scrub(s string) string {
	for _, rule := range scrubRules {
		s = rule.re.ReplaceAllString(s, rule.repl)
	}
	return s
}

func (r redactor) headers(h http.Header) *zerolog.Event {
	d := zerolog.Dict()
	for k, vv := range h {
		if _, ok := r.masked[strings.ToLower(k)]; ok {
			d.Str(k, "[REDACTED]")
			continue
		}
		d.Str(k, r.scrub(strings.Join(vv, ", ")))
	}
	return d
}

// RedactingLogger logs one line per request. Level is ERROR for 5xx or when
// handlers attached errors, WARN for 4xx and INFO otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	rd := newRedactor(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()
		query := truncate(rd.scrub(c.Request.URL.RawQuery), maxQueryLogLength)
		headers := rd.headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case len(c.Errors) > 0:
			ev = log.Error().Str("errors", c.Errors.String())
		case status >= 400:
			ev = log.Warn()
		}

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}
		if ref := c.Param("reference"); ref != "" {
			ev = ev.Str("reference", ref)
		}
		if code := ErrorCode(c); code != "" {
			ev = ev.Str("error_code", code)
		}
		if IsReplay(c) {
			ev = ev.Bool("idempotent_replay", true)
		}

		ev.
			Str("request_id", reqID).
			Str("user_id", UserID(c)).
			Str("remote_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", routeOrPath(c)).
			Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Dict("headers", headers).
			Msg("http_request")
	}
}
