// Package httpapp provides the built-in HTTP app: a generic request action
// for integrations the catalog has no dedicated app for.
package httpapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stack360co/automatisch/pkg/app"
)

const AppKey = "http"

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20 // response bodies are samples, not payloads to relay
)

var ErrMissingURL = errors.New("missing 'url' parameter")

// New builds the HTTP app descriptor.
func New() *app.App {
	return &app.App{
		Key:         AppKey,
		Name:        "HTTP",
		Description: "Send custom HTTP requests to any endpoint.",
		Actions: []app.Command{
			&customRequest{client: &http.Client{Timeout: defaultTimeout}},
		},
	}
}

type customRequest struct {
	client *http.Client
}

func (a *customRequest) Key() string  { return "customRequest" }
func (a *customRequest) Name() string { return "Custom request" }

func (a *customRequest) Description() string {
	return "Performs an HTTP request and exposes status, headers and body."
}

func (a *customRequest) SetupFields() []app.SetupField {
	return []app.SetupField{
		{
			Key:      "method",
			Label:    "Method",
			Type:     "dropdown",
			Required: true,
			Options: []app.FieldOption{
				{Label: "GET", Value: "GET"},
				{Label: "POST", Value: "POST"},
				{Label: "PUT", Value: "PUT"},
				{Label: "PATCH", Value: "PATCH"},
				{Label: "DELETE", Value: "DELETE"},
			},
		},
		{Key: "url", Label: "URL", Type: "string", Required: true, Variables: true},
		{Key: "body", Label: "Body", Type: "string", Required: false, Variables: true},
		{
			Key:         "contentType",
			Label:       "Content type",
			Type:        "string",
			Required:    false,
			Description: "Sent as the Content-Type header when a body is present.",
		},
	}
}

func (a *customRequest) Run(ctx context.Context, runCtx app.RunContext) (app.RunResult, error) {
	url, _ := runCtx.Parameters["url"].(string)
	if url == "" {
		return app.RunResult{}, ErrMissingURL
	}

	method, _ := runCtx.Parameters["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := runCtx.Parameters["body"].(string)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, reader)
	if err != nil {
		return app.RunResult{}, fmt.Errorf("failed to build request: %w", err)
	}

	if contentType, _ := runCtx.Parameters["contentType"].(string); contentType != "" && body != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return app.RunResult{}, fmt.Errorf("request to %s failed: %w", url, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return app.RunResult{}, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]any, len(resp.Header))
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}

	return app.RunResult{Data: map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        string(responseBody),
	}}, nil
}
