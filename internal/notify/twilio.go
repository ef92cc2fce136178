package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medibook/booking-platform/pkg/logging"
)

var twilioTracer = otel.Tracer("medibook.internal.notify.twilio")

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioNotifier posts SMS messages using Twilio's REST API.
type TwilioNotifier struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioNotifier builds a sender with sane defaults.
func NewTwilioNotifier(accountSID, authToken, from string, logger *logging.Logger) *TwilioNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioNotifier{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    defaultTwilioBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ SMSNotifier = (*TwilioNotifier)(nil)

// WithBaseURL points the sender at an alternate API host. Used in tests.
func (s *TwilioNotifier) WithBaseURL(baseURL string) *TwilioNotifier {
	s.baseURL = strings.TrimRight(baseURL, "/")
	return s
}

// SendSMS dispatches a single SMS, retrying transient failures. The
// outcome is always reported as a Result; delivery problems never
// surface as errors to the caller.
func (s *TwilioNotifier) SendSMS(ctx context.Context, to, body string) Result {
	if s.accountSID == "" || s.authToken == "" || s.from == "" {
		return Failure("missing twilio credentials")
	}
	to = strings.TrimSpace(to)
	if to == "" || !strings.HasPrefix(to, "+") {
		return Failure("phone must be E.164 format (start with +)")
	}
	if strings.TrimSpace(body) == "" {
		return Failure("message body required")
	}

	ctx, span := twilioTracer.Start(ctx, "notify.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("medibook.to", to))

	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("From", s.from)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	var lastErr string
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
		if err != nil {
			lastErr = err.Error()
			break
		}
		req.SetBasicAuth(s.accountSID, s.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err.Error()
			if ctx.Err() != nil {
				break
			}
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				var parsed struct {
					SID string `json:"sid"`
				}
				_ = json.Unmarshal(respBody, &parsed)
				s.logger.Info("twilio sms sent", "to", to, "sid", parsed.SID)
				return Result{Sent: true, SID: parsed.SID}
			}
			lastErr = formatTwilioError(resp.StatusCode, respBody)
			// Don't retry non-rate-limit 4xx errors.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != 429 {
				break
			}
		}

		if attempt < 3 {
			time.Sleep(time.Duration(100+rand.Intn(200)) * time.Millisecond)
		}
	}

	s.logger.Warn("twilio sms failed", "to", to, "error", lastErr)
	return Failure(lastErr)
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func formatTwilioError(status int, body []byte) string {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, string(body))
}
