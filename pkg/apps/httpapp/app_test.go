package httpapp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack360co/automatisch/pkg/app"
)

func TestCustomRequest_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer server.Close()

	action := New().ActionByKey("customRequest")
	require.NotNil(t, action)

	result, err := action.Run(t.Context(), app.RunContext{Parameters: map[string]any{
		"url": server.URL,
	}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, result.Data["status_code"])
	assert.Equal(t, "short and stout", result.Data["body"])

	headers, ok := result.Data["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "yes", headers["X-Test"])
}

func TestCustomRequest_PostWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"ok":true}`, string(body))

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	action := New().ActionByKey("customRequest")

	result, err := action.Run(t.Context(), app.RunContext{Parameters: map[string]any{
		"method":      "POST",
		"url":         server.URL,
		"body":        `{"ok":true}`,
		"contentType": "application/json",
	}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.Data["status_code"])
}

func TestCustomRequest_MissingURL(t *testing.T) {
	action := New().ActionByKey("customRequest")

	_, err := action.Run(t.Context(), app.RunContext{Parameters: map[string]any{}})
	assert.ErrorIs(t, err, ErrMissingURL)
}
