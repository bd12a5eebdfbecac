package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/coverlinehq/coverline/pkg/logging"
)

var twilioSendTracer = otel.Tracer("coverline.internal.messaging.twilio_send")

// SendRequest is one outbound SMS. SendAt defers dispatch provider-side and
// requires a messaging service; senders without one ignore it.
type SendRequest struct {
	To     string
	From   string
	Body   string
	SendAt *time.Time
}

// SendResult reports the provider's acceptance of a send.
type SendResult struct {
	ProviderMessageID string
	Scheduled         bool
}

// Sender dispatches SMS messages through a provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	// SupportsScheduling reports whether SendAt deferral is available; a
	// fixed single from-number (forced for thread continuity) cannot use
	// Twilio scheduled dispatch.
	SupportsScheduling() bool
}

// TwilioSender posts SMS messages using Twilio's REST API.
type TwilioSender struct {
	accountSID          string
	authToken           string
	messagingServiceSID string
	from                string
	httpClient          *http.Client
	logger              *logging.Logger
}

// NewTwilioSender builds a sender with sane defaults.
func NewTwilioSender(accountSID, authToken, messagingServiceSID, defaultFrom string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{
		accountSID:          accountSID,
		authToken:           authToken,
		messagingServiceSID: messagingServiceSID,
		from:                defaultFrom,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ Sender = (*TwilioSender)(nil)

// SupportsScheduling is true only when a messaging service is configured.
func (s *TwilioSender) SupportsScheduling() bool {
	return s.messagingServiceSID != ""
}

// Send dispatches a single SMS, retrying transient failures.
func (s *TwilioSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if s.accountSID == "" || s.authToken == "" {
		return SendResult{}, errors.New("messaging: twilio credentials missing")
	}
	if req.To == "" {
		return SendResult{}, errors.New("messaging: to required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return SendResult{}, errors.New("messaging: body required")
	}

	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("coverline.to", req.To))

	payload := url.Values{}
	payload.Set("To", req.To)
	payload.Set("Body", req.Body)

	scheduled := false
	if req.SendAt != nil && s.SupportsScheduling() {
		payload.Set("MessagingServiceSid", s.messagingServiceSID)
		payload.Set("SendAt", req.SendAt.UTC().Format(time.RFC3339))
		payload.Set("ScheduleType", "fixed")
		scheduled = true
	} else {
		from := req.From
		if from == "" {
			from = s.from
		}
		if from == "" && s.messagingServiceSID != "" {
			payload.Set("MessagingServiceSid", s.messagingServiceSID)
		} else if from != "" {
			payload.Set("From", from)
		} else {
			return SendResult{}, errors.New("messaging: from required")
		}
	}

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
		if err != nil {
			lastErr = err
			break
		}
		httpReq.SetBasicAuth(s.accountSID, s.authToken)
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				var parsed struct {
					SID string `json:"sid"`
				}
				_ = json.Unmarshal(body, &parsed)
				s.logger.Info("twilio sms accepted", "to", req.To, "scheduled", scheduled)
				return SendResult{ProviderMessageID: parsed.SID, Scheduled: scheduled}, nil
			}
			lastErr = fmt.Errorf("twilio send failed: %s", formatTwilioError(resp.StatusCode, body))
			// Don't retry non-rate-limit 4xx errors.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != 429 {
				break
			}
		}

		if attempt < 3 {
			sleep := time.Duration(200+rand.Intn(300)) * time.Millisecond
			time.Sleep(sleep)
		}
	}

	if lastErr != nil {
		span.RecordError(lastErr)
	}
	return SendResult{}, lastErr
}

type twilioAPIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
