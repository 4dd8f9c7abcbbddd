package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API response body
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		Details   json.RawMessage `json:"details"`
		RequestID string          `json:"request_id"`
	} `json:"error"`
}

// APIClient sends tenant-scoped JSON requests to an in-process handler
type APIClient struct {
	Handler http.Handler
	Tenant  uuid.UUID
	Prefix  string
}

// NewAPIClient creates a client for /api/v1 on handler
func NewAPIClient(handler http.Handler, tenant uuid.UUID) *APIClient {
	return &APIClient{Handler: handler, Tenant: tenant, Prefix: "/api/v1"}
}

// ForTenant returns a copy of the client acting for another tenant
func (c *APIClient) ForTenant(tenant uuid.UUID) *APIClient {
	cp := *c
	cp.Tenant = tenant
	return &cp
}

// Do sends body, when not nil, as JSON and returns the recorder
func (c *APIClient) Do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, c.Prefix+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Tenant != uuid.Nil {
		req.Header.Set("X-Tenant-ID", c.Tenant.String())
	}
	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return w
}

// DecodeEnvelope parses the response body
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// RequireData asserts the status and decodes the envelope data into T
func RequireData[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	env := DecodeEnvelope(t, w)
	require.True(t, env.Success, "body: %s", w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// RequireError asserts the status and error code and returns the envelope
func RequireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) Envelope {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	env := DecodeEnvelope(t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code, "message: %s", env.Error.Message)
	return env
}
