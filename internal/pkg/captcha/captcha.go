// Package captcha verifies reCAPTCHA response tokens.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

func New(secret, verifyURL string, timeout time.Duration) *Verifier {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Verifier{
		secret:    secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a site secret is configured.
func (v *Verifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// Verify posts the token to the provider. A missing secret or token never verifies.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if !v.Enabled() || strings.TrimSpace(token) == "" {
		return false, nil
	}
	form := url.Values{"secret": {v.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("captcha verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}
	var body struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("captcha decode: %w", err)
	}
	return body.Success, nil
}
