package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/metrics"
)

// API reads and writes tags for one resource type. WriteTags replaces the
// resource's full tag mapping; partial changes are composed by the caller.
type API interface {
	Type() resource.Type
	Get(ctx context.Context, id string) (*resource.Resource, error)
	List(ctx context.Context) ([]resource.Resource, error)
	WriteTags(ctx context.Context, id string, tags map[string]string) error
}

// Config holds workspace connection settings. AccountHost and AccountID
// are optional; they unlock the account-level budget policy API.
type Config struct {
	Host           string // workspace URL
	Token          string // personal access token
	AccountHost    string // account console URL
	AccountID      string // account ID for account-level APIs
	Timeout        time.Duration
	RatePerSecond  float64
	RateBurst      int
	MaxRetries     int
	RetryBaseDelay time.Duration
	HTTPClient     *http.Client
}

// Client is an authenticated client for the Databricks workspace REST API.
// All calls pass through a shared token-bucket limiter.
type Client struct {
	host        string
	token       string
	accountHost string
	accountID   string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	retryBase   time.Duration
	logger      *logger.Logger

	apis map[resource.Type]API
}

// NewClient creates a workspace client
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		host:        strings.TrimSuffix(cfg.Host, "/"),
		token:       cfg.Token,
		accountHost: strings.TrimSuffix(cfg.AccountHost, "/"),
		accountID:   cfg.AccountID,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		maxRetries:  cfg.MaxRetries,
		retryBase:   cfg.RetryBaseDelay,
		logger:      log,
	}

	c.apis = map[resource.Type]API{
		resource.TypeCluster:         &clusterAPI{client: c},
		resource.TypeWarehouse:       &warehouseAPI{client: c},
		resource.TypeJob:             &jobAPI{client: c},
		resource.TypePipeline:        &pipelineAPI{client: c},
		resource.TypeServingEndpoint: &servingEndpointAPI{client: c},
	}

	return c
}

// ForType returns the API for a resource type. Unknown types are rejected
// before any remote call.
func (c *Client) ForType(t resource.Type) (API, error) {
	api, ok := c.apis[t]
	if !ok {
		return nil, errors.Validation(fmt.Sprintf("unsupported resource type: %q", t), map[string]interface{}{
			"supported": resource.Types(),
		})
	}
	return api, nil
}

// APIs returns every per-type API in the stable type order
func (c *Client) APIs() []API {
	out := make([]API, 0, len(c.apis))
	for _, t := range resource.Types() {
		out = append(out, c.apis[t])
	}
	return out
}

// Ping verifies workspace connectivity and credentials
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Clusters []json.RawMessage `json:"clusters"`
	}
	return c.do(ctx, http.MethodGet, "/api/2.0/clusters/list", nil, nil, &out)
}

type apiErrorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// do performs one workspace API call with rate limiting and retries.
// 429 responses are retried with exponential backoff honoring Retry-After;
// 5xx and transport failures get one bounded retry.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, result interface{}) error {
	return c.doBase(ctx, method, c.host, path, query, body, result)
}

// doAccount performs one account-console API call with the same rate
// limiting and retry behavior as workspace calls
func (c *Client) doAccount(ctx context.Context, method, path string, query url.Values, body interface{}, result interface{}) error {
	return c.doBase(ctx, method, c.accountHost, path, query, body, result)
}

func (c *Client) doBase(ctx context.Context, method, base, path string, query url.Values, body interface{}, result interface{}) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Internal("failed to marshal request body", err)
		}
		payload = data
	}

	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Internal("rate limiter wait cancelled", err)
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
		if err != nil {
			return errors.Internal("failed to create request", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Remote(path, ctx.Err())
			}
			// One extra attempt on transport failure
			lastErr = errors.Remote(path, err)
			if attempt == 0 {
				continue
			}
			return lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return errors.Remote(path, readErr)
		}

		switch {
		case resp.StatusCode < 300:
			if result != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, result); err != nil {
					return errors.Remote(path, fmt.Errorf("failed to parse response: %w", err))
				}
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			delay := c.backoffDelay(attempt, resp.Header.Get("Retry-After"))
			lastErr = errors.RateLimited(fmt.Sprintf("workspace rate limit on %s", path))
			if attempt < c.maxRetries {
				c.logger.WithFields(map[string]interface{}{
					"path":    path,
					"attempt": attempt + 1,
					"delay":   delay.String(),
				}).Warn("workspace rate limited, backing off")
				if err := sleepCtx(ctx, delay); err != nil {
					return lastErr
				}
				continue
			}
			return lastErr

		case resp.StatusCode >= 500:
			lastErr = errors.Remote(path, fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(respBody)))
			if attempt == 0 {
				if err := sleepCtx(ctx, c.retryBase); err != nil {
					return lastErr
				}
				continue
			}
			return lastErr

		default:
			return c.mapError(resp.StatusCode, respBody, path)
		}
	}
	return lastErr
}

// mapError converts a non-retryable workspace error response
func (c *Client) mapError(status int, body []byte, path string) error {
	var parsed apiErrorBody
	_ = json.Unmarshal(body, &parsed)
	msg := parsed.Message
	if msg == "" {
		msg = truncateBody(body)
	}

	switch status {
	case http.StatusNotFound:
		return errors.NotFound("resource")
	case http.StatusUnauthorized:
		return errors.Unauthorized("workspace token rejected: " + msg)
	case http.StatusForbidden:
		return errors.Unauthorized(fmt.Sprintf("token lacks permission for %s: %s", path, msg))
	case http.StatusBadRequest:
		return errors.Validation(msg, map[string]interface{}{"error_code": parsed.ErrorCode})
	default:
		return errors.Remote(path, fmt.Errorf("status %d: %s", status, msg))
	}
}

func (c *Client) backoffDelay(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(float64(c.retryBase) * math.Pow(2, float64(attempt)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncateBody(b []byte) string {
	s := string(b)
	if len(s) > 256 {
		return s[:256] + "..."
	}
	return s
}

// observe records one workspace call for metrics
func observe(t resource.Type, operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = errors.CodeOf(err)
	}
	metrics.RecordWorkspaceRequest(string(t), operation, status, time.Since(start))
}

// tagPair is the key/value shape used by the SQL warehouse and serving
// endpoint APIs
type tagPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func pairsToMap(pairs []tagPair) map[string]string {
	tags := make(map[string]string, len(pairs))
	for _, p := range pairs {
		tags[p.Key] = p.Value
	}
	return tags
}

func mapToPairs(tags map[string]string) []tagPair {
	pairs := make([]tagPair, 0, len(tags))
	for k, v := range tags {
		pairs = append(pairs, tagPair{Key: k, Value: v})
	}
	return pairs
}
