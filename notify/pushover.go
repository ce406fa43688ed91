// Package notify relays navigation URLs as Pushover notifications.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gmaps2nav/httputils"
	"gmaps2nav/logging"
)

// DefaultEndpoint is the Pushover messages API.
const DefaultEndpoint = "https://api.pushover.net/1/messages.json"

// ErrMissingCredentials is returned when no application token or user key
// is configured.
var ErrMissingCredentials = errors.New("missing Pushover credentials")

// Message is one notification. Empty optional fields are not sent.
type Message struct {
	Message  string
	URL      string
	Title    string
	Priority string
	Sound    string
	Device   string
}

// Response is the provider's answer. Data is empty when the body was not
// JSON. A non-2xx Status is reported here, not as an error.
type Response struct {
	Status int            `json:"status"`
	Data   map[string]any `json:"data"`
}

// OK reports whether the provider accepted the message.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Notifier delivers a message.
type Notifier interface {
	Push(ctx context.Context, msg Message) (*Response, error)
}

// Config holds configuration for the Pushover client
type Config struct {
	Endpoint string
	Token    string
	User     string
	Timeout  time.Duration
}

// Client posts form-encoded messages to Pushover.
type Client struct {
	config     Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Pushover client. A nil httpClient gets one bounded by
// config.Timeout.
func NewClient(config Config, httpClient *http.Client) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &httputils.HeaderRoundTripper{
				Headers: map[string]string{"Accept": "application/json"},
			},
		}
	}
	return &Client{config: config, httpClient: httpClient, log: logging.GetLogger("notify")}
}

// Push sends msg in a single POST.
func (c *Client) Push(ctx context.Context, msg Message) (*Response, error) {
	if c.config.Token == "" || c.config.User == "" {
		return nil, ErrMissingCredentials
	}

	form := url.Values{}
	form.Set("token", c.config.Token)
	form.Set("user", c.config.User)
	form.Set("message", msg.Message)
	for k, v := range map[string]string{
		"url":      msg.URL,
		"title":    msg.Title,
		"priority": msg.Priority,
		"sound":    msg.Sound,
		"device":   msg.Device,
	} {
		if v != "" {
			form.Set(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pushover request failed: %w", err)
	}
	defer resp.Body.Close()

	out := &Response{Status: resp.StatusCode, Data: map[string]any{}}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		if jerr := json.Unmarshal(body, &out.Data); jerr != nil || out.Data == nil {
			out.Data = map[string]any{}
		}
	}

	if !out.OK() {
		c.log.Warn().Int("status", out.Status).Interface("data", out.Data).Msg("pushover rejected message")
	} else {
		c.log.Info().Int("status", out.Status).Str("device", msg.Device).Msg("notification sent")
	}
	return out, nil
}
