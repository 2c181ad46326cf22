// Package reflection talks to the hosted AI reflection function and the
// moderation table behind it.
package reflection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lune/internal/domain"
)

const (
	FunctionName = "generate-reflection"
	reportTable  = "reported_ai_messages"
)

// ErrNotConfigured is returned when no endpoint or key is set.
var ErrNotConfigured = errors.New("reflection service is not configured")

// Client is a minimal client for the reflection edge function.
type Client struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, anonKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		AnonKey: anonKey,
		Timeout: 30 * time.Second,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reflection api error: status=%d body=%s", e.StatusCode, e.Body)
}

type generateResponse struct {
	Reflection string `json:"reflection"`
}

// Generate invokes the reflection function with payload. An empty string
// with a nil error means the function answered without a reflection.
func (c *Client) Generate(ctx context.Context, payload domain.ReflectionPayload) (string, error) {
	var resp generateResponse
	if err := c.do(ctx, http.MethodPost, "functions/v1/"+FunctionName, payload, &resp); err != nil {
		return "", err
	}
	return resp.Reflection, nil
}

// Report files an AI message for moderation.
func (c *Client) Report(ctx context.Context, msg domain.ChatMessage) error {
	msgType := msg.Type
	if msgType == "" {
		msgType = "normal"
	}
	body := []map[string]string{{
		"message_text": msg.Text,
		"message_type": msgType,
	}}
	return c.do(ctx, http.MethodPost, "rest/v1/"+reportTable, body, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.BaseURL == "" || c.AnonKey == "" {
		return ErrNotConfigured
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AnonKey)
	req.Header.Set("apikey", c.AnonKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
