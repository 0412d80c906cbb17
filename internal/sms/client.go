package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrProviderUnavailable covers every transport-level failure talking to
// the verification provider: timeouts, network errors and 5xx responses.
// Callers must fail closed on it and never treat it as a bad code.
var ErrProviderUnavailable = errors.New("verification provider unavailable")

// Verifier is the two-operation contract of an external phone verification
// service: deliver a one-time code, then check a submitted code.
type Verifier interface {
	StartVerification(ctx context.Context, phone string) error
	CheckVerification(ctx context.Context, phone, code string) (bool, error)
}

// Client talks to a Twilio-Verify-compatible HTTPS API.
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	channel    string
	httpClient *http.Client
}

func NewClient(baseURL, accountSID, authToken, channel string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		channel:    channel,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) StartVerification(ctx context.Context, phone string) error {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Channel", c.channel)

	var body struct {
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/Verifications", form, &body); err != nil {
		return err
	}
	if body.Status != "pending" && body.Status != "approved" {
		return fmt.Errorf("%w: unexpected status %q", ErrProviderUnavailable, body.Status)
	}
	return nil
}

// CheckVerification reports whether the provider accepted the code. A
// definitive rejection is (false, nil); only transport failures return an
// error.
func (c *Client) CheckVerification(ctx context.Context, phone, code string) (bool, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Code", code)

	var body struct {
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/VerificationCheck", form, &body); err != nil {
		return false, err
	}
	return body.Status == "approved", nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrProviderUnavailable, err)
	}
	return nil
}
