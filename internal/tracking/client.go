package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pmc-chatbot/server/internal/agent/model"
	errx "github.com/pmc-chatbot/server/internal/core/error"
	logx "github.com/pmc-chatbot/server/pkg/logger"
)

// User-facing failure reasons. The orchestrator embeds these verbatim in its
// apology reply, so keep them readable on their own.
const (
	NotFoundMessage   = "no application was found for this number"
	TimeoutMessage    = "the status service timed out, please try again later"
	ConnectionMessage = "unable to connect to the status service"
)

// Config holds the status endpoint settings, sourced from the environment.
type Config struct {
	BaseURL string `envconfig:"STATUS_API_BASE_URL" default:"https://pmc.gov.in/api/application-status"`
	Timeout int    `envconfig:"STATUS_API_TIMEOUT" default:"15"`
}

// Client wraps the government status endpoint. One GET per lookup, bounded
// timeout, no retries: a timeout or connection failure is surfaced
// immediately as a typed failure.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New builds a Client from the config. The timeout is capped at 15 seconds.
func (c *Config) New() *Client {
	timeout := c.Timeout
	if timeout <= 0 || timeout > 15 {
		timeout = 15
	}

	client := resty.New()
	client.SetTimeout(time.Duration(timeout) * time.Second)

	return &Client{
		http:    client,
		baseURL: strings.TrimRight(c.BaseURL, "/"),
	}
}

var _ model.StatusClient = (*Client)(nil)

// Lookup fetches the status record for an identifier. Every transport or
// protocol failure is converted to a typed errx value here; nothing raw
// escapes to the caller.
func (c *Client) Lookup(ctx context.Context, identifier string) (model.StatusRecord, error) {
	var rec model.StatusRecord

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(c.baseURL + "/" + url.PathEscape(identifier))
	if err != nil {
		if isTimeout(err) {
			logx.Warn().Str("identifier", identifier).Err(err).Msg("status lookup timed out")
			return rec, errx.Timeout(err, TimeoutMessage)
		}
		logx.Warn().Str("identifier", identifier).Err(err).Msg("status lookup connection failed")
		return rec, errx.ConnectionFailure(err, ConnectionMessage)
	}

	switch {
	case resp.StatusCode() == http.StatusOK:
		body := resp.Body()
		// The upstream serves an HTML error page with a 200 when the
		// identifier is unknown.
		if looksLikeHTML(resp.Header().Get("Content-Type"), body) {
			return rec, errx.NotFound(NotFoundMessage)
		}
		if err := json.Unmarshal(body, &rec); err != nil {
			logx.Error().Str("identifier", identifier).Err(err).Msg("status lookup returned malformed body")
			return rec, errx.Upstream(err, "the status service returned an unreadable response")
		}
		return rec, nil
	case resp.StatusCode() == http.StatusNotFound:
		return rec, errx.NotFound(NotFoundMessage)
	default:
		code := resp.StatusCode()
		logx.Error().Str("identifier", identifier).Int("status_code", code).Msg("status lookup upstream error")
		return rec, errx.Upstream(
			fmt.Errorf("unexpected status code %d", code),
			fmt.Sprintf("the status service returned an unexpected error (HTTP %d)", code),
		)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}
