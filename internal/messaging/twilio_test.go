package messaging

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func signedRequest(t *testing.T, target, authToken string, form url.Values) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("X-Twilio-Signature", computeSignature(buildSignaturePayload(target, form), authToken))
	return r
}

func TestValidateTwilioSignature(t *testing.T) {
	const token = "twilio-auth-token"
	const target = "https://api.example.com/webhooks/twilio/sms"
	form := url.Values{
		"MessageSid": {"SM123"},
		"From":       {"+15551234567"},
		"To":         {"+15557654321"},
		"Body":       {"hello"},
	}

	r := signedRequest(t, target, token, form)
	if !ValidateTwilioSignature(r, token, target) {
		t.Fatal("valid signature rejected")
	}

	r = signedRequest(t, target, "wrong-token", form)
	if ValidateTwilioSignature(r, token, target) {
		t.Fatal("signature from the wrong token accepted")
	}

	// Tampered body invalidates the signature.
	tampered := url.Values{}
	for k, v := range form {
		tampered[k] = v
	}
	tampered.Set("Body", "hello there")
	r = httptest.NewRequest(http.MethodPost, target, strings.NewReader(tampered.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("X-Twilio-Signature", computeSignature(buildSignaturePayload(target, form), token))
	if ValidateTwilioSignature(r, token, target) {
		t.Fatal("tampered payload accepted")
	}

	r = httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if ValidateTwilioSignature(r, token, target) {
		t.Fatal("missing signature header accepted")
	}
}

func TestBypassAuthorized(t *testing.T) {
	newReq := func(auth string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/sms", nil)
		if auth != "" {
			r.Header.Set("Authorization", auth)
		}
		return r
	}

	tests := []struct {
		name          string
		auth          string
		bypassToken   string
		allowUnsigned bool
		production    bool
		want          bool
	}{
		{"bearer token match", "Bearer secret", "secret", false, true, true},
		{"bearer token mismatch", "Bearer nope", "secret", false, true, false},
		{"no token, unsigned allowed in dev", "", "", true, false, true},
		{"unsigned never allowed in production", "", "", true, true, false},
		{"nothing configured", "", "", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BypassAuthorized(newReq(tt.auth), tt.bypassToken, tt.allowUnsigned, tt.production)
			if got != tt.want {
				t.Fatalf("BypassAuthorized = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildAbsoluteURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/sms?x=1", nil)
	r.Host = "internal:8080"
	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "api.example.com")
	if got := BuildAbsoluteURL(r); got != "https://api.example.com/webhooks/twilio/sms?x=1" {
		t.Fatalf("got %q", got)
	}

	r = httptest.NewRequest(http.MethodPost, "/webhooks/twilio/sms", nil)
	r.Host = "api.example.com"
	if got := BuildAbsoluteURL(r); got != "http://api.example.com/webhooks/twilio/sms" {
		t.Fatalf("got %q", got)
	}
}

func TestParseTwilioWebhook(t *testing.T) {
	form := url.Values{
		"MessageSid": {"SM123"},
		"From":       {"+15551234567"},
		"To":         {"+15557654321"},
		"Body":       {"how much does it cost"},
	}
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/sms", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	req, err := ParseTwilioWebhook(r)
	if err != nil {
		t.Fatal(err)
	}
	if req.MessageSid != "SM123" || req.From != "+15551234567" || req.Body != "how much does it cost" {
		t.Fatalf("parsed %+v", req)
	}
}
