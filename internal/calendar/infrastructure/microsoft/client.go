package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"

	"github.com/aawohq/aawo/internal/calendar/domain"
	"github.com/aawohq/aawo/pkg/observability"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

const maxAttempts = 4

// DefaultScopes are the Graph scopes the mirror needs.
var DefaultScopes = []string{
	"https://graph.microsoft.com/Calendars.ReadWrite",
	"https://graph.microsoft.com/Tasks.ReadWrite",
	"https://graph.microsoft.com/User.Read",
	"offline_access",
}

// Endpoints builds the Microsoft identity endpoints for a tenant.
func Endpoints(tenant string) oauth2.Endpoint {
	if tenant == "" {
		tenant = "common"
	}
	return oauth2.Endpoint{
		AuthURL:  fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/authorize", tenant),
		TokenURL: fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenant),
	}
}

// APIError is a non-2xx Graph answer.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api failed: status=%d body=%s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a Graph 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func asAPIError(err error, target **APIError) bool {
	for err != nil {
		if apiErr, ok := err.(*APIError); ok {
			*target = apiErr
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// Client is a Graph HTTP client with token refresh, throttle backoff
// and a circuit breaker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *tokenManager
	status     domain.SyncStatusRepository
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
	metrics    observability.Metrics
	sleep      func(time.Duration)
}

// NewClient creates the Graph client.
func NewClient(
	oauthConfig *oauth2.Config,
	connections domain.ConnectionRepository,
	status domain.SyncStatusRepository,
	baseURL string,
	logger *slog.Logger,
	metrics observability.Metrics,
) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "graph",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		tokens:     newTokenManager(oauthConfig, connections),
		status:     status,
		breaker:    breaker,
		logger:     logger,
		metrics:    metrics,
		sleep:      time.Sleep,
	}
}

// IsConnected reports whether a usable connection exists.
func (c *Client) IsConnected(ctx context.Context) bool {
	return c.tokens.Connected(ctx)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPatch, path, nil, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Do runs one Graph request through the breaker with up to four
// attempts: a single 401-triggered refresh and Retry-After honoring
// backoff on 429.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		return c.doWithRetry(ctx, method, path, query, body)
	})
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	forceRefresh := false
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		token, err := c.tokens.AccessToken(ctx, forceRefresh)
		forceRefresh = false
		if err != nil {
			return nil, err
		}

		resp, err := c.request(ctx, method, path, query, body, token)
		if err != nil {
			lastErr = err
			continue
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized && attempt == 1:
			forceRefresh = true
			continue

		case resp.StatusCode == http.StatusTooManyRequests:
			c.recordThrottle(ctx, resp)
			c.sleep(retryAfter(resp, attempt))
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: string(payload)}
			continue

		case resp.StatusCode >= 400:
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(payload)}
			c.recordError(ctx, apiErr)
			return nil, apiErr

		default:
			c.recordSuccess(ctx)
			return payload, nil
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("graph request exhausted %d attempts", maxAttempts)
	}
	return nil, lastErr
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any, token string) (*http.Response, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// retryAfter honors the server's Retry-After header when present.
// Without one the wait doubles per attempt, 1s..10s.
func retryAfter(resp *http.Response, attempt int) time.Duration {
	seconds := 0
	if v := resp.Header.Get("Retry-After"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			seconds = parsed
		}
	}
	if seconds <= 0 {
		seconds = 1 << (attempt - 1)
	}
	if seconds > 10 {
		seconds = 10
	}
	return time.Duration(seconds) * time.Second
}

func (c *Client) recordSuccess(ctx context.Context) {
	c.updateStatus(ctx, func(s *domain.SyncStatus) {
		s.RecordSuccess(time.Now().UTC())
	})
}

func (c *Client) recordThrottle(ctx context.Context, resp *http.Response) {
	c.metrics.Counter(observability.MetricMirrorThrottles, 1)
	c.updateStatus(ctx, func(s *domain.SyncStatus) {
		s.RecordThrottle(time.Now().UTC())
	})
}

func (c *Client) recordError(ctx context.Context, apiErr *APIError) {
	authFailure := apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	c.updateStatus(ctx, func(s *domain.SyncStatus) {
		s.RecordError(apiErr.Error(), authFailure)
	})
}

func (c *Client) updateStatus(ctx context.Context, apply func(*domain.SyncStatus)) {
	if c.status == nil {
		return
	}
	status, err := c.status.Load(ctx)
	if err != nil {
		c.logger.Warn("failed to load sync status", "error", err)
		return
	}
	apply(status)
	if err := c.status.Save(ctx, status); err != nil {
		c.logger.Warn("failed to save sync status", "error", err)
	}
}
