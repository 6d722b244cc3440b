// Package firs implements the outbound gateway to the FIRS e-invoicing
// platform over its REST API.
package firs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zulaiy/zutax-api/internal/application/einvoice"
	"github.com/zulaiy/zutax-api/internal/domain"
)

const (
	baseURLSandbox    = "https://eivc-k6z6d.ondigitalocean.app"
	baseURLProduction = "https://einvoice.firs.gov.ng"

	submitPath = "/api/v1/invoice/submit"
	statusPath = "/api/v1/invoice/status/"
	cancelPath = "/api/v1/invoice/cancel/"

	maxResponseBytes = 1 << 20
)

// Config carries the platform credentials and endpoint selection.
type Config struct {
	// BaseURL overrides the environment default when set; useful for tests.
	BaseURL     string
	APIKey      string
	APISecret   string
	Environment string // "sandbox" or "production"
	Timeout     time.Duration
}

// Client talks to the FIRS platform. It implements einvoice.AuthorityGateway:
// network failures, timeouts and 5xx responses come back wrapping
// domain.ErrTransient, 4xx responses wrap domain.ErrAuthorityRejection with
// the platform's field errors attached to the result.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds the gateway. The timeout is generous because the platform
// can take several seconds to validate a submission synchronously.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		if cfg.Environment == "production" {
			base = baseURLProduction
		} else {
			base = baseURLSandbox
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "firs-client").Logger(),
	}
}

// Submit delivers the invoice package for the given IRN.
func (c *Client) Submit(ctx context.Context, irn string, canonicalJSON []byte, artifactData string) (*einvoice.SubmitResult, error) {
	body, err := json.Marshal(submitRequest{
		IRN:     irn,
		Invoice: canonicalJSON,
		QRData:  artifactData,
	})
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	status, raw, err := c.do(ctx, http.MethodPost, c.baseURL+submitPath, body)
	if err != nil {
		return nil, err
	}

	env, perr := parseEnvelope(raw)
	if status >= 400 {
		result := &einvoice.SubmitResult{Raw: raw}
		if env != nil {
			result.FieldErrors = convertFieldErrors(env.Errors)
		}
		return result, c.classify(status, env, raw)
	}
	if perr != nil {
		return nil, fmt.Errorf("%w: malformed platform response: %v", domain.ErrTransient, perr)
	}

	var data submitData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: malformed submission data: %v", domain.ErrTransient, err)
		}
	}
	return &einvoice.SubmitResult{
		SubmissionID: data.SubmissionID,
		Status:       normalizeStatus(data.Status),
		Accepted:     normalizeStatus(data.Status) == einvoice.AuthorityStatusAccepted,
		Raw:          raw,
	}, nil
}

// Status fetches the current authority-side status of an IRN.
func (c *Client) Status(ctx context.Context, irn string) (*einvoice.StatusResult, error) {
	status, raw, err := c.do(ctx, http.MethodGet, c.baseURL+statusPath+url.PathEscape(irn), nil)
	if err != nil {
		return nil, err
	}

	env, perr := parseEnvelope(raw)
	if status >= 400 {
		return nil, c.classify(status, env, raw)
	}
	if perr != nil {
		return nil, fmt.Errorf("%w: malformed platform response: %v", domain.ErrTransient, perr)
	}

	var data statusData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: malformed status data: %v", domain.ErrTransient, err)
		}
	}
	return &einvoice.StatusResult{
		IRN:    irn,
		Status: normalizeStatus(data.Status),
		Raw:    raw,
	}, nil
}

// Cancel notifies the platform that the invoice is void.
func (c *Client) Cancel(ctx context.Context, irn, reason string) error {
	body, err := json.Marshal(cancelRequest{Reason: reason})
	if err != nil {
		return fmt.Errorf("encode cancellation: %w", err)
	}

	status, raw, err := c.do(ctx, http.MethodPost, c.baseURL+cancelPath+url.PathEscape(irn), body)
	if err != nil {
		return err
	}
	if status >= 400 {
		env, _ := parseEnvelope(raw)
		return c.classify(status, env, raw)
	}
	return nil
}

// do runs one HTTP exchange. All transport-level failures wrap
// domain.ErrTransient; status classification is the caller's concern.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-api-secret", c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, fmt.Errorf("%w: %v", domain.ErrTransient, ctx.Err())
		}
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", domain.ErrTransient, err)
	}

	c.log.Debug().Str("method", method).Str("endpoint", endpoint).
		Int("status", resp.StatusCode).Msg("firs exchange")
	return resp.StatusCode, raw, nil
}

// classify maps an HTTP error status to the domain error taxonomy: 5xx and
// 429 are retryable, the rest of 4xx means the platform rejected the
// payload or the credentials.
func (c *Client) classify(status int, env *apiEnvelope, raw []byte) error {
	msg := strings.TrimSpace(string(raw))
	if env != nil && env.Message != "" {
		msg = env.Message
	}
	if status >= 500 || status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: platform returned %d: %s", domain.ErrTransient, status, msg)
	}
	return fmt.Errorf("%w: platform returned %d: %s", domain.ErrAuthorityRejection, status, msg)
}

func parseEnvelope(raw []byte) (*apiEnvelope, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func convertFieldErrors(in []fieldError) []einvoice.FieldError {
	out := make([]einvoice.FieldError, 0, len(in))
	for _, fe := range in {
		out = append(out, einvoice.FieldError{Field: fe.Field, Code: fe.Code, Message: fe.Message})
	}
	return out
}

// normalizeStatus maps the platform's status vocabulary onto the engine's.
func normalizeStatus(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACCEPTED", "SUCCESS", "VALIDATED":
		return einvoice.AuthorityStatusAccepted
	case "REJECTED", "FAILED", "INVALID":
		return einvoice.AuthorityStatusRejected
	case "CANCELLED", "VOIDED":
		return einvoice.AuthorityStatusCancelled
	default:
		return einvoice.AuthorityStatusPending
	}
}
