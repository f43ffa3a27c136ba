package usersapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-userboard/components/userboard"
)

const (
	usersPath  = "/users"
	statsPath  = "/users/stats/age-group"
	uploadPath = "/users/upload"

	maxErrorBody = 64 << 10
)

// HTTPConfig configures the HTTP users client.
type HTTPConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPClient talks to the users REST API. It never retries.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

var _ userboard.DataSource = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the users API at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("usersapi: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("usersapi: invalid base url %q: %w", cfg.BaseURL, err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{baseURL: base, client: httpClient}, nil
}

// BaseURL returns the resolved API origin.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// ListUsers fetches every user.
func (c *HTTPClient) ListUsers(ctx context.Context) ([]userboard.User, error) {
	var users []userboard.User
	if err := c.do(ctx, "list users", http.MethodGet, usersPath, "", nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []userboard.User{}
	}
	return users, nil
}

// AgeGroupStats fetches average age per group. Numeric strings are accepted.
func (c *HTTPClient) AgeGroupStats(ctx context.Context) (userboard.AgeGroupStats, error) {
	var raw map[string]json.Number
	if err := c.do(ctx, "age group stats", http.MethodGet, statsPath, "", nil, &raw); err != nil {
		return nil, err
	}
	stats := make(userboard.AgeGroupStats, len(raw))
	for group, value := range raw {
		avg, err := strconv.ParseFloat(value.String(), 64)
		if err != nil {
			return nil, &Error{Kind: KindGeneric, Op: "age group stats", Message: fmt.Sprintf("group %q has non-numeric average %q", group, value), Err: err}
		}
		stats[group] = avg
	}
	return stats, nil
}

// CreateUser posts a new user.
func (c *HTTPClient) CreateUser(ctx context.Context, user userboard.User) error {
	body, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("usersapi: encode user: %w", err)
	}
	return c.do(ctx, "create user", http.MethodPost, usersPath, "application/json", bytes.NewReader(body), nil)
}

// DeleteUser deletes a user by name.
func (c *HTTPClient) DeleteUser(ctx context.Context, name string) error {
	return c.do(ctx, "delete user", http.MethodDelete, usersPath+"/"+url.PathEscape(name), "", nil, nil)
}

// UploadCSV posts the file as the multipart field "file".
func (c *HTTPClient) UploadCSV(ctx context.Context, upload userboard.CSVUpload) (userboard.UploadResult, error) {
	if upload.Content == nil {
		return userboard.UploadResult{}, userboard.ErrNoFileSelected
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", upload.Filename)
	if err != nil {
		return userboard.UploadResult{}, fmt.Errorf("usersapi: build upload: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return userboard.UploadResult{}, fmt.Errorf("usersapi: read upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return userboard.UploadResult{}, fmt.Errorf("usersapi: build upload: %w", err)
	}
	var result userboard.UploadResult
	if err := c.do(ctx, "upload csv", http.MethodPost, uploadPath, writer.FormDataContentType(), &body, &result); err != nil {
		return userboard.UploadResult{}, err
	}
	return result, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path, contentType string, body io.Reader, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("usersapi: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(op, resp.StatusCode, data)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &Error{Kind: KindGeneric, Op: op, StatusCode: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	return nil
}

// statusError translates a non-2xx response into a typed failure.
func statusError(op string, status int, body []byte) *Error {
	detail := parseDetail(body)
	switch status {
	case http.StatusConflict:
		if detail == "" {
			detail = "duplicate name"
		}
		return &Error{Kind: KindConflict, Op: op, StatusCode: status, Message: detail}
	case http.StatusUnprocessableEntity:
		if detail == "" {
			detail = strings.TrimSpace(string(body))
		}
		return &Error{Kind: KindValidation, Op: op, StatusCode: status, Message: detail}
	default:
		if detail == "" {
			detail = http.StatusText(status)
		}
		return &Error{Kind: KindGeneric, Op: op, StatusCode: status, Message: detail}
	}
}

// parseDetail reads {"detail": "..."} or {"detail": [{"msg": "..."}]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}
	var fields []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &fields); err == nil && len(fields) > 0 {
		return fields[0].Msg
	}
	return ""
}
