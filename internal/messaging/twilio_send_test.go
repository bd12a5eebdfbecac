package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// redirectTransport rewrites every request to the test server so the
// sender's fixed Twilio endpoint can be exercised locally.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestSender(t *testing.T, handler http.HandlerFunc, messagingServiceSID string) *TwilioSender {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	target, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	sender := NewTwilioSender("AC123", "token", messagingServiceSID, "+15550001111", nil)
	sender.httpClient = &http.Client{Transport: redirectTransport{target: target}}
	return sender
}

func TestTwilioSenderImmediate(t *testing.T) {
	var form url.Values
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		form = r.PostForm
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Fatalf("basic auth = %q/%q", user, pass)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM100"}`))
	}, "")

	res, err := sender.Send(context.Background(), SendRequest{To: "+15552223333", Body: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.ProviderMessageID != "SM100" || res.Scheduled {
		t.Fatalf("result = %+v", res)
	}
	if form.Get("From") != "+15550001111" {
		t.Fatalf("From = %q, want default sender", form.Get("From"))
	}
	if form.Get("SendAt") != "" || form.Get("MessagingServiceSid") != "" {
		t.Fatalf("immediate send carried scheduling fields: %v", form)
	}
}

func TestTwilioSenderScheduled(t *testing.T) {
	var form url.Values
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"sid":"SM200"}`))
	}, "MG123")

	sendAt := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	res, err := sender.Send(context.Background(), SendRequest{To: "+15552223333", Body: "hi", SendAt: &sendAt})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !res.Scheduled {
		t.Fatal("result should report scheduled dispatch")
	}
	if form.Get("MessagingServiceSid") != "MG123" {
		t.Fatalf("MessagingServiceSid = %q", form.Get("MessagingServiceSid"))
	}
	if form.Get("SendAt") != "2026-03-10T15:00:00Z" {
		t.Fatalf("SendAt = %q", form.Get("SendAt"))
	}
	if form.Get("ScheduleType") != "fixed" {
		t.Fatalf("ScheduleType = %q", form.Get("ScheduleType"))
	}
	if form.Get("From") != "" {
		t.Fatalf("scheduled send should not pin a from number, got %q", form.Get("From"))
	}
}

func TestTwilioSenderSendAtIgnoredWithoutMessagingService(t *testing.T) {
	var form url.Values
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"sid":"SM300"}`))
	}, "")

	sendAt := time.Now().Add(time.Hour)
	res, err := sender.Send(context.Background(), SendRequest{To: "+15552223333", Body: "hi", SendAt: &sendAt})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Scheduled {
		t.Fatal("scheduling is unavailable without a messaging service")
	}
	if form.Get("SendAt") != "" {
		t.Fatalf("SendAt = %q, want empty", form.Get("SendAt"))
	}
}

func TestTwilioSenderRetriesRateLimit(t *testing.T) {
	attempts := 0
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"code":20429,"message":"Too Many Requests","status":429}`))
			return
		}
		w.Write([]byte(`{"sid":"SM400"}`))
	}, "")

	res, err := sender.Send(context.Background(), SendRequest{To: "+15552223333", Body: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.ProviderMessageID != "SM400" {
		t.Fatalf("sid = %q", res.ProviderMessageID)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want retry after 429", attempts)
	}
}

func TestTwilioSenderDoesNotRetryBadRequest(t *testing.T) {
	attempts := 0
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`))
	}, "")

	_, err := sender.Send(context.Background(), SendRequest{To: "+1555", Body: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, 4xx must not retry", attempts)
	}
	if !strings.Contains(err.Error(), "21211") || !strings.Contains(err.Error(), "Invalid 'To' Phone Number") {
		t.Fatalf("error = %v, want parsed twilio details", err)
	}
}

func TestTwilioSenderValidation(t *testing.T) {
	sender := NewTwilioSender("AC123", "token", "", "+15550001111", nil)
	if _, err := sender.Send(context.Background(), SendRequest{Body: "hi"}); err == nil {
		t.Fatal("missing To should fail")
	}
	if _, err := sender.Send(context.Background(), SendRequest{To: "+15552223333", Body: "   "}); err == nil {
		t.Fatal("blank body should fail")
	}
	bare := NewTwilioSender("", "", "", "", nil)
	if _, err := bare.Send(context.Background(), SendRequest{To: "+15552223333", Body: "hi"}); err == nil {
		t.Fatal("missing credentials should fail")
	}
}

func TestFormatTwilioError(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"structured", `{"code":21610,"message":"Unsubscribed recipient","status":400}`, "status 400 code 21610: Unsubscribed recipient"},
		{"message only", `{"message":"oops"}`, "status 400: oops"},
		{"plain text", "gateway timeout", "status 400: gateway timeout"},
		{"empty", "  ", "status 400"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatTwilioError(400, []byte(tc.body)); got != tc.want {
				t.Fatalf("formatTwilioError = %q, want %q", got, tc.want)
			}
		})
	}
}
