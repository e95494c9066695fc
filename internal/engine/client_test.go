package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.7\n%fake horoscope\n%%EOF")

// TestHTTPClient_Generate_Success verifies a complete successful generation flow.
// It checks method, route, headers (User-Agent, Accept, Basic Auth) and payload.
func TestHTTPClient_Generate_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, config.RouteGenerate, r.URL.Path)
		assert.Equal(t, config.MimeJSON, r.Header.Get("Content-Type"))
		assert.Equal(t, config.MimePDF, r.Header.Get("Accept"))
		assert.Equal(t, config.UserAgent, r.Header.Get("User-Agent"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok, "Basic auth header should be present")
		assert.Equal(t, "astro", user)
		assert.Equal(t, "s3cret", pass)

		var got map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, map[string]string{
			"name":           "Jana",
			"dob":            "01.02.1990",
			"code":           "abc",
			"horoscope_type": "HoroscopeProfi",
		}, got)

		w.Header().Set("Content-Type", config.MimePDF)
		_, _ = w.Write(pdfBytes)
	}))
	defer ts.Close()

	client := engine.NewHTTPClient(engine.ClientConfig{BaseURL: ts.URL, Username: "astro", Password: "s3cret"})
	art, err := client.Generate(context.Background(), engine.GenerateRequest{
		Name: "Jana", DOB: "01.02.1990", Code: "abc", HoroscopeType: engine.HoroscopeProfi,
	})

	require.NoError(t, err)
	assert.Equal(t, pdfBytes, art.Data)
	assert.Equal(t, config.MimePDF, art.ContentType)
}

func TestHTTPClient_Generate_NoAuthWhenUnset(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.False(t, ok)
		_, _ = w.Write(pdfBytes)
	}))
	defer ts.Close()

	art, err := engine.NewHTTPClient(engine.ClientConfig{BaseURL: ts.URL + "/"}).
		Generate(context.Background(), engine.GenerateRequest{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, config.MimePDF, art.ContentType, "content type defaults to PDF")
}

// TestHTTPClient_Generate_Errors verifies that non-2xx answers carry status and body.
func TestHTTPClient_Generate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantText   string
	}{
		{"Unprocessable", http.StatusUnprocessableEntity, `{"detail":[{"msg":"bad date"}]}`, "Unprocessable Entity"},
		{"Forbidden", http.StatusForbidden, `{"detail":"Neplatný kód"}`, "Forbidden"},
		{"ServerError", http.StatusInternalServerError, "", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			art, err := engine.NewHTTPClient(engine.ClientConfig{BaseURL: ts.URL}).
				Generate(context.Background(), engine.GenerateRequest{})

			assert.Nil(t, art)
			var apiErr *engine.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)
			assert.Equal(t, tt.wantText, apiErr.StatusText)
			assert.Equal(t, tt.body, string(apiErr.Body))
			assert.Contains(t, err.Error(), config.ErrServerStatus)
		})
	}
}

// TestHTTPClient_Generate_ContextCancel ensures the caller's context bounds the request.
func TestHTTPClient_Generate_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := engine.NewHTTPClient(engine.ClientConfig{BaseURL: ts.URL}).Generate(ctx, engine.GenerateRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), config.ErrNetwork)
}

func TestHTTPClient_Generate_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := engine.NewHTTPClient(engine.ClientConfig{BaseURL: url}).Generate(context.Background(), engine.GenerateRequest{})

	require.Error(t, err)
	var apiErr *engine.APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not API errors")
	assert.Contains(t, err.Error(), config.ErrNetwork)
}

func TestHTTPClient_EndpointValidation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr string
	}{
		{"empty", "  ", config.ErrEndpointEmpty},
		{"control character", string([]byte{0x7f}), config.ErrInvalidURL},
		{"ftp", "ftp://example.com", config.ErrProtocol},
		{"no host", "http://", config.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := engine.NewHTTPClient(engine.ClientConfig{BaseURL: tt.baseURL})

			_, err := client.Generate(context.Background(), engine.GenerateRequest{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			err = client.Health(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPClient_Health(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"ok", http.StatusOK, `{"status":"ok"}`, ""},
		{"degraded", http.StatusOK, `{"status":"degraded"}`, config.ErrHealthStatus},
		{"not json", http.StatusOK, `<html>`, config.ErrReadBody},
		{"unavailable", http.StatusServiceUnavailable, ``, config.ErrServerStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, config.RouteHealth, r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			err := engine.NewHTTPClient(engine.ClientConfig{BaseURL: ts.URL}).Health(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGeneratorFunc_Adapts(t *testing.T) {
	var got engine.GenerateRequest
	gen := engine.GeneratorFunc(func(_ context.Context, req engine.GenerateRequest) (*engine.Artifact, error) {
		got = req
		return &engine.Artifact{Data: pdfBytes}, nil
	})

	in := engine.FormInput{Name: "Jana", DOB: "01.02.1990", Code: "abc", HoroscopeType: engine.HoroscopeBasic}
	art, err := gen.Generate(context.Background(), engine.NewGenerateRequest(in))

	require.NoError(t, err)
	assert.Equal(t, pdfBytes, art.Data)
	assert.Equal(t, "Jana", got.Name)
	assert.Equal(t, engine.HoroscopeBasic, got.HoroscopeType)
}
