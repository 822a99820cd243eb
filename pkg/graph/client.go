package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stopsum/pkg/config"
	"stopsum/pkg/errors"
	"stopsum/pkg/logger"
	"stopsum/pkg/retry"
)

// Defaults for the public Graph API
const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v2.5"
	DefaultTimeout    = 5 * time.Second
	DefaultPageSize   = 100
	DefaultFields     = config.DefaultFields
)

// Options configures a Client
type Options struct {
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	// Retry is applied to every call; nil means a single attempt
	Retry *retry.Config
}

// OptionsFromConfig maps the graph config section onto client options
func OptionsFromConfig(cfg config.GraphConfig, retryCfg *retry.Config) Options {
	return Options{
		BaseURL:    cfg.BaseURL,
		APIVersion: cfg.APIVersion,
		Timeout:    cfg.Timeout,
		Retry:      retryCfg,
	}
}

// PostsQuery selects a window of a profile's posts connection
type PostsQuery struct {
	ProfileID string
	Since     time.Time
	Until     time.Time
	Limit     int
	Fields    string
}

// Client talks to the Graph REST API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	version     string
	accessToken string
	retry       *retry.Config
	logger      logger.Logger
}

// NewClient creates a Graph client
func NewClient(opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		version:    strings.Trim(opts.APIVersion, "/"),
		retry:      opts.Retry,
		logger:     log,
	}
}

// SetAccessToken sets the token sent with every object and connection call
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// AccessToken returns the current token
func (c *Client) AccessToken() string {
	return c.accessToken
}

// AppAccessToken exchanges app credentials for an app access token and
// stores it on the client
func (c *Client) AppAccessToken(ctx context.Context, appID, appSecret string) (string, error) {
	q := url.Values{}
	q.Set("client_id", appID)
	q.Set("client_secret", appSecret)
	q.Set("grant_type", "client_credentials")
	endpoint := c.baseURL + "/oauth/access_token?" + q.Encode()

	body, err := c.getWithRetry(ctx, endpoint, "/oauth/access_token")
	if err != nil {
		return "", err
	}

	token, err := parseToken(body)
	if err != nil {
		return "", err
	}
	c.accessToken = token

	c.logger.DebugWithFields("obtained app access token", map[string]interface{}{
		"app_id": appID,
	})
	return token, nil
}

// parseToken accepts the JSON response of current API versions and the
// form-encoded body older versions return
func parseToken(body []byte) (string, error) {
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err == nil && tr.AccessToken != "" {
		return tr.AccessToken, nil
	}
	if values, err := url.ParseQuery(strings.TrimSpace(string(body))); err == nil {
		if token := values.Get("access_token"); token != "" {
			return token, nil
		}
	}
	return "", errors.New(errors.ErrorTypeParsing, http.StatusOK, "access token missing from response")
}

// GetObject resolves a node by id or vanity name
func (c *Client) GetObject(ctx context.Context, id string) (*Object, error) {
	endpoint := c.versioned(url.PathEscape(id), url.Values{})

	var obj Object
	if err := c.getJSON(ctx, endpoint, "/"+id, &obj); err != nil {
		return nil, err
	}
	if obj.ID == "" {
		return nil, errors.New(errors.ErrorTypeParsing, http.StatusOK, fmt.Sprintf("object %q has no id", id))
	}
	return &obj, nil
}

// Posts fetches the first page of a profile's posts connection
func (c *Client) Posts(ctx context.Context, q PostsQuery) (*Page, error) {
	if q.ProfileID == "" {
		return nil, errors.New(errors.ErrorTypeInvalid, 0, "profile id is required")
	}

	params := url.Values{}
	fields := q.Fields
	if fields == "" {
		fields = DefaultFields
	}
	params.Set("fields", fields)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	params.Set("limit", strconv.Itoa(limit))
	if !q.Since.IsZero() {
		params.Set("since", strconv.FormatInt(q.Since.Unix(), 10))
	}
	if !q.Until.IsZero() {
		params.Set("until", strconv.FormatInt(q.Until.Unix(), 10))
	}

	endpoint := c.versioned(url.PathEscape(q.ProfileID)+"/posts", params)

	var page Page
	if err := c.getJSON(ctx, endpoint, "/"+q.ProfileID+"/posts", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// NextPage follows an absolute paging.next URL. The URL already carries the
// access token and cursor.
func (c *Client) NextPage(ctx context.Context, next string) (*Page, error) {
	u, err := url.Parse(next)
	if err != nil || !u.IsAbs() {
		return nil, errors.New(errors.ErrorTypeInvalid, 0, fmt.Sprintf("invalid next page url %q", next))
	}

	// cursors restored from disk carry no token
	if q := u.Query(); q.Get("access_token") == "" && c.accessToken != "" {
		q.Set("access_token", c.accessToken)
		u.RawQuery = q.Encode()
	}

	var page Page
	if err := c.getJSON(ctx, u.String(), u.Path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// StripAccessToken removes the access_token parameter from a paging URL so it
// can be stored. Unparsable input is returned unchanged.
func StripAccessToken(next string) string {
	return withoutParams(next, "access_token")
}

// redactURL drops every credential parameter before a URL reaches a log or
// an error message
func redactURL(raw string) string {
	return withoutParams(raw, "access_token", "client_secret")
}

func withoutParams(raw string, names ...string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	found := false
	for _, name := range names {
		if q.Has(name) {
			q.Del(name)
			found = true
		}
	}
	if !found {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) versioned(path string, params url.Values) string {
	if c.accessToken != "" {
		params.Set("access_token", c.accessToken)
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, path)
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return endpoint
}

func (c *Client) getJSON(ctx context.Context, endpoint, label string, target interface{}) error {
	body, err := c.getWithRetry(ctx, endpoint, label)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"endpoint":     label,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    http.StatusOK,
			Err:     err,
		}
	}
	return nil
}

func (c *Client) getWithRetry(ctx context.Context, endpoint, label string) ([]byte, error) {
	cfg := &retry.Config{MaxAttempts: 1, Logger: c.logger}
	if c.retry != nil {
		copied := *c.retry
		cfg = &copied
	}
	cfg.Context = ctx

	return retry.DoWithResult(func() ([]byte, error) {
		return c.get(ctx, endpoint, label)
	}, cfg)
}

// get performs one GET and maps failures onto typed errors
func (c *Client) get(ctx context.Context, endpoint, label string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInvalid, err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "stopsum/"+logger.Version)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if uerr, ok := err.(*url.Error); ok {
			uerr.URL = redactURL(uerr.URL)
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"endpoint": label,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "network error")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	logger.LogRequest(c.logger, req.Method, label, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := responseError(resp.StatusCode, body)
		if apiErr.Type == errors.ErrorTypeRateLimit {
			logger.LogRateLimit(c.logger, label, retryAfter(resp))
		}
		return nil, apiErr
	}
	return body, nil
}

// responseError builds a typed error from a non-200 response, preferring the
// Graph error envelope when the body carries one
func responseError(status int, body []byte) *errors.Error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return &errors.Error{
			Type:      errors.TypeFromGraphCode(status, env.Error.Code),
			Message:   env.Error.Message,
			Code:      status,
			GraphCode: env.Error.Code,
		}
	}
	return &errors.Error{
		Type:    errors.TypeFromStatus(status),
		Message: fmt.Sprintf("unexpected status code: %d", status),
		Code:    status,
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
