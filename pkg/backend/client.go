// Package backend is the client for the bxl comparison backend: reference
// data (countries, brands, models), stored user comparisons, and the save
// endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// Client talks to the comparison backend.
type Client interface {
	GetCountries(ctx context.Context) ([]Country, error)
	GetBrands(ctx context.Context, countryID string) ([]Brand, error)
	GetModels(ctx context.Context, brandID string) ([]Model, error)
	AddBrand(ctx context.Context, countryID, brandName string) (*Brand, error)
	AddModel(ctx context.Context, brandID, modelName string) (*Model, error)
	GetUsers(ctx context.Context) ([]User, error)
	GetComparison(ctx context.Context, userID, modelID string) (*ComparisonPayload, error)
	SaveComparison(ctx context.Context, payload *SavePayload) error
}

// Country is one selectable market.
type Country struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Brand is one car brand within a country.
type Brand struct {
	ID   string `json:"_id"`
	Name string `json:"brandName"`
}

// Model is one car model within a brand.
type Model struct {
	ID   string `json:"_id"`
	Name string `json:"modelName"`
}

// User owns stored comparisons on the backend.
type User struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RemoteFeature is one feature of a stored comparison: the display label
// plus one raw value per source file.
type RemoteFeature struct {
	Label      string   `json:"label"`
	FileValues []string `json:"fileValues"`
}

// ComparisonPayload is a stored comparison, grouped by feature category.
type ComparisonPayload struct {
	Country  string                     `json:"country"`
	Brand    string                     `json:"brand"`
	Model    string                     `json:"model"`
	Features map[string][]RemoteFeature `json:"features"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMaxRetries sets how many times 5xx responses are retried.
func WithMaxRetries(n int) Option {
	return func(c *httpClient) {
		c.maxRetries = n
	}
}

type httpClient struct {
	baseURL    string
	token      string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient creates a backend client for the given base URL and bearer
// token.
func NewClient(baseURL, token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GetCountries(ctx context.Context) ([]Country, error) {
	var out []Country
	err := c.getJSON(ctx, "/api/v1/comparison-tool/get-countries", nil, &out)
	return out, err
}

func (c *httpClient) GetBrands(ctx context.Context, countryID string) ([]Brand, error) {
	var out []Brand
	err := c.getJSON(ctx, "/api/v1/comparison-tool/get-brands", url.Values{"countryId": {countryID}}, &out)
	return out, err
}

func (c *httpClient) GetModels(ctx context.Context, brandID string) ([]Model, error) {
	var out []Model
	err := c.getJSON(ctx, "/api/v1/comparison-tool/get-models", url.Values{"brandId": {brandID}}, &out)
	return out, err
}

func (c *httpClient) AddBrand(ctx context.Context, countryID, brandName string) (*Brand, error) {
	var out Brand
	body := map[string]string{"brandName": brandName, "countryId": countryID}
	if err := c.postJSON(ctx, "/api/v1/comparison-tool/add-brand", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) AddModel(ctx context.Context, brandID, modelName string) (*Model, error) {
	var out Model
	body := map[string]string{"modelName": modelName, "brandId": brandID}
	if err := c.postJSON(ctx, "/api/v1/comparison-tool/add-model", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) GetUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.getJSON(ctx, "/api/v1/users", nil, &out)
	return out, err
}

func (c *httpClient) GetComparison(ctx context.Context, userID, modelID string) (*ComparisonPayload, error) {
	var out ComparisonPayload
	q := url.Values{"userId": {userID}, "modelId": {modelID}}
	if err := c.getJSON(ctx, "/api/v1/comparison-tool/get-comparison", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) SaveComparison(ctx context.Context, payload *SavePayload) error {
	return c.postJSON(ctx, "/api/v1/comparison-tool/save-comparison", payload, nil)
}

func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, u, nil, out)
}

func (c *httpClient) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return eris.Wrapf(err, "backend: marshal %s", path)
	}
	return c.do(ctx, http.MethodPost, c.baseURL+path, data, out)
}

// envelope is the backend's standard response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *httpClient) do(ctx context.Context, method, url string, body []byte, out any) error {
	// One request ID spans all retry attempts so the backend can
	// deduplicate replays.
	requestID := uuid.NewString()

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "backend: rate limit wait")
			}
		}
		if attempt > 0 {
			zap.L().Debug("retrying backend request",
				zap.String("url", url),
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt+1))
		}

		retryable, err := c.once(ctx, method, url, requestID, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}

		select {
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "backend: request cancelled")
		case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
		}
	}
	return lastErr
}

func (c *httpClient) once(ctx context.Context, method, url, requestID string, body []byte, out any) (retryable bool, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return false, eris.Wrap(err, "backend: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, eris.Wrap(err, "backend: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, eris.Wrap(err, "backend: read response")
	}

	if resp.StatusCode >= 500 {
		return true, eris.Errorf("backend: %s: status %d: %s", url, resp.StatusCode, truncate(respBody))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return false, eris.Errorf("backend: %s: status %d: %s", url, resp.StatusCode, truncate(respBody))
	}
	if out == nil {
		return false, nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil || env.Data == nil {
		// Some endpoints respond bare, without the data wrapper.
		if err := json.Unmarshal(respBody, out); err != nil {
			return false, eris.Wrapf(err, "backend: %s: unmarshal response", url)
		}
		return false, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return false, eris.Wrapf(err, "backend: %s: unmarshal data", url)
	}
	return false, nil
}

func truncate(b []byte) string {
	const max = 256
	if len(b) > max {
		return fmt.Sprintf("%s... (%d bytes)", b[:max], len(b))
	}
	return string(b)
}
