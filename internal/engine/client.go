package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cislenka/go-horoscope/internal/config"
)

// GenerateRequest is the JSON payload accepted by the generation endpoint.
type GenerateRequest struct {
	Name          string        `json:"name"`
	DOB           string        `json:"dob"`
	Code          string        `json:"code"`
	HoroscopeType HoroscopeType `json:"horoscope_type"`
}

// NewGenerateRequest builds the payload from already trimmed form values.
func NewGenerateRequest(in FormInput) GenerateRequest {
	return GenerateRequest{
		Name:          in.Name,
		DOB:           in.DOB,
		Code:          in.Code,
		HoroscopeType: in.HoroscopeType,
	}
}

// Generator turns a request into a document.
// This interface allows for mocking in tests and decoupling from the network layer.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Artifact, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (*Artifact, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (*Artifact, error) {
	return f(ctx, req)
}

// APIError is returned when the service answers with a non-2xx status.
// Body holds at most config.MaxErrorBodySize bytes of the response.
type APIError struct {
	StatusCode int
	StatusText string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d %s", config.ErrServerStatus, e.StatusCode, e.StatusText)
}

// ClientConfig holds the connection settings of the generation service.
type ClientConfig struct {
	BaseURL  string
	Username string
	Password string
}

// HTTPClient implements Generator against the remote service using net/http.
type HTTPClient struct {
	Client *http.Client
	Config ClientConfig
}

// NewHTTPClient creates a client without an overall timeout: generation may take
// minutes and is only bounded by the caller's context.
func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	return &HTTPClient{
		Client: &http.Client{},
		Config: cfg,
	}
}

// Generate posts the request and returns the document bytes.
// It enforces a maximum response size limit.
func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (*Artifact, error) {
	target, safeURL, err := c.endpoint(config.RouteGenerate)
	if err != nil {
		return nil, err
	}

	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompClient),
		slog.String(config.LogKeyURL, safeURL),
	)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrEncodeRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCreateRequest, err)
	}
	httpReq.Header.Set(config.HeaderContentType, config.MimeJSON)
	httpReq.Header.Set(config.HeaderAccept, config.MimePDF)
	c.decorate(httpReq)

	log.Debug(config.MsgRequestSent, slog.String(config.LogKeyType, string(req.HoroscopeType)))

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, config.MaxErrorBodySize))
		log.Warn(config.MsgResponseError, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Body:       body,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxHTTPResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrReadBody, err)
	}
	if int64(len(data)) > config.MaxHTTPResponseSize {
		return nil, errors.New(config.ErrBodyTooLarge)
	}

	contentType := resp.Header.Get(config.HeaderContentType)
	if contentType == "" {
		contentType = config.MimePDF
	}

	log.Info(config.MsgResponseOK, slog.Int(config.LogKeySizeBytes, len(data)))
	return &Artifact{Data: data, ContentType: contentType}, nil
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health queries the status endpoint and returns nil when the service reports "ok".
func (c *HTTPClient) Health(ctx context.Context) error {
	target, safeURL, err := c.endpoint(config.RouteHealth)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrCreateRequest, err)
	}
	req.Header.Set(config.HeaderAccept, config.MimeJSON)
	c.decorate(req)

	slog.Debug(config.MsgHealthCheck,
		config.LogKeyComponent, config.CompClient,
		config.LogKeyURL, safeURL)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}

	var h healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, config.MaxErrorBodySize)).Decode(&h); err != nil {
		return fmt.Errorf("%s: %w", config.ErrReadBody, err)
	}
	if h.Status != config.HealthStatusOK {
		return fmt.Errorf("%s: %q", config.ErrHealthStatus, h.Status)
	}
	return nil
}

// ParseEndpoint checks that raw is an absolute http(s) base URL.
func ParseEndpoint(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New(config.ErrEndpointEmpty)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%s: missing host", config.ErrInvalidURL)
	}
	return u, nil
}

// endpoint joins route onto the configured base URL and returns it together with
// a copy stripped of query parameters and credentials for logging.
func (c *HTTPClient) endpoint(route string) (string, string, error) {
	u, err := ParseEndpoint(c.Config.BaseURL)
	if err != nil {
		return "", "", err
	}

	u = u.JoinPath(route)
	safeURL := u.Scheme + "://" + u.Host + u.Path
	return u.String(), safeURL, nil
}

func (c *HTTPClient) decorate(req *http.Request) {
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	if c.Config.Username != "" || c.Config.Password != "" {
		req.SetBasicAuth(c.Config.Username, c.Config.Password)
	}
}

// statusText returns the reason phrase without the numeric code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
