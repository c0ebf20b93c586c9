package gateway

import (
	"strings"
	"testing"
)

func TestSignAndVerify(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"r1"}}`)
	sig := Sign(body, "sk_test")

	if len(sig) != 128 {
		t.Fatalf("expected 128 hex chars for SHA-512, got %d", len(sig))
	}
	if !VerifySignature(body, sig, "sk_test") {
		t.Fatalf("valid signature rejected")
	}
	if !VerifySignature(body, "  "+strings.ToUpper(sig)+" ", "sk_test") {
		t.Fatalf("hex case and surrounding space should not matter")
	}
}

func TestVerifySignature_Rejects(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"r1","metadata":{"credits":8}}}`)
	sig := Sign(body, "sk_test")

	tampered := []byte(strings.Replace(string(body), `"credits":8`, `"credits":80`, 1))
	reserialized := []byte(strings.ReplaceAll(string(body), `":`, `": `))

	cases := []struct {
		name   string
		body   []byte
		sig    string
		secret string
	}{
		{"tampered body", tampered, sig, "sk_test"},
		{"whitespace-only change", reserialized, sig, "sk_test"},
		{"wrong secret", body, sig, "sk_other"},
		{"empty secret", body, Sign(body, ""), ""},
		{"empty signature", body, "", "sk_test"},
		{"not hex", body, "zz" + sig[2:], "sk_test"},
		{"truncated", body, sig[:64], "sk_test"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if VerifySignature(tc.body, tc.sig, tc.secret) {
				t.Fatalf("expected rejection")
			}
		})
	}
}
