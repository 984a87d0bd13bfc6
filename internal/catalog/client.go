package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"library-converter/internal/logging"
	"library-converter/internal/mediatypes"
	"library-converter/internal/metrics"
)

// Defaults for HTTPClient.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 2 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 300 * time.Second
)

// Options configures an HTTPClient.
type Options struct {
	BaseURL string
	APIKey  string

	MaxRetries     int
	InitialBackoff time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// HTTPClient overrides the transport entirely. Timeouts are ignored when set.
	HTTPClient *http.Client
}

// HTTPClient talks to an Immich-compatible catalog API.
type HTTPClient struct {
	base           *url.URL
	apiKey         string
	http           *http.Client
	maxRetries     int
	initialBackoff time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewHTTPClient creates a client for opts.BaseURL. A missing trailing slash
// on the base URL is added so relative endpoint paths resolve under it.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid catalog base URL %q", opts.BaseURL)
	}

	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		transport.TLSHandshakeTimeout = opts.ConnectTimeout
		transport.ResponseHeaderTimeout = opts.ReadTimeout
		httpClient = &http.Client{Transport: transport}
	}

	return &HTTPClient{
		base:           base,
		apiKey:         opts.APIKey,
		http:           httpClient,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		sleep:          sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *HTTPClient) endpoint(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

// requestFactory builds a fresh request for every attempt, since bodies are
// consumed by the previous one.
type requestFactory func(ctx context.Context) (*http.Request, error)

func (c *HTTPClient) jsonRequest(method, path string, body interface{}) requestFactory {
	return func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request: %w", err)
			}
			reader = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}
}

// do sends the request with retry on transport errors, 429 and 5xx, using
// exponential backoff. 401 and 403 are returned as fatal errors without retry.
// Any other response is handed back to the caller, who owns its body.
func (c *HTTPClient) do(ctx context.Context, op string, newRequest requestFactory) (*http.Response, error) {
	start := time.Now()
	defer func() {
		metrics.CatalogRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.CatalogRetriesTotal.WithLabelValues(op).Inc()
			logging.Debug("Catalog %s: retrying in %v (attempt %d/%d): %v", op, backoff, attempt, c.maxRetries, lastErr)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, &Error{Op: op, Kind: KindTransport, Err: err}
			}
			backoff *= 2
		}

		req, err := newRequest(ctx)
		if err != nil {
			return nil, &Error{Op: op, Kind: KindTransport, Err: err}
		}
		req.Header.Set("x-api-key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.CatalogRequestsTotal.WithLabelValues(op, "transport_error").Inc()
			if ctx.Err() != nil {
				return nil, &Error{Op: op, Kind: KindTransport, Err: ctx.Err()}
			}
			lastErr = err
			continue
		}

		metrics.CatalogRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			drain(resp)
			return nil, &Error{Op: op, Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode}
		case retryable(resp.StatusCode) && attempt < c.maxRetries:
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			drain(resp)
			continue
		}

		return resp, nil
	}

	logging.Warn("Catalog %s failed after %d retries: %v", op, c.maxRetries, lastErr)
	return nil, &Error{Op: op, Kind: KindTransport, Err: lastErr}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	if err := resp.Body.Close(); err != nil {
		logging.Debug("failed to close response body: %v", err)
	}
}

// statusError consumes resp and describes an unexpected status.
func statusError(op string, resp *http.Response) error {
	defer drain(resp)

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(body))

	var detail struct {
		Message interface{} `json:"message"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Message != nil {
		message = fmt.Sprint(detail.Message)
	}

	return &Error{Op: op, Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode, Message: message}
}

type searchResponse struct {
	Assets struct {
		Items []Asset `json:"items"`
	} `json:"assets"`
}

// Search implements Client.
func (c *HTTPClient) Search(ctx context.Context, q SearchQuery) ([]Asset, error) {
	assetType := q.Type
	if kind, ok := mediatypes.ParseKind(q.Type); ok {
		assetType = kind.CatalogType()
	}

	body := map[string]interface{}{
		"type":         assetType,
		"page":         q.Page,
		"size":         q.Size,
		"order":        "asc",
		"withArchived": q.WithArchived,
		"withDeleted":  q.WithDeleted,
	}
	if q.TakenAfter != "" {
		body["takenAfter"] = q.TakenAfter
	}
	if q.TakenBefore != "" {
		body["takenBefore"] = q.TakenBefore
	}

	resp, err := c.do(ctx, "search", c.jsonRequest(http.MethodPost, "search/metadata", body))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("search", resp)
	}
	defer drain(resp)

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &Error{Op: "search", Kind: KindTransport, Err: fmt.Errorf("invalid response: %w", err)}
	}
	return result.Assets.Items, nil
}

// Download implements Client.
func (c *HTTPClient) Download(ctx context.Context, assetID, dest string) (int64, error) {
	path := "assets/" + assetID + "/original"
	resp, err := c.do(ctx, "download", c.jsonRequest(http.MethodGet, path, nil))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, statusError("download", resp)
	}
	defer drain(resp)

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return n, &Error{Op: "download", Kind: KindTransport, Err: copyErr}
	}
	if closeErr != nil {
		return n, fmt.Errorf("failed to write %s: %w", dest, closeErr)
	}

	metrics.CatalogTransferBytesTotal.WithLabelValues("download").Add(float64(n))
	return n, nil
}

type uploadResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// uploadRequest streams the multipart form through a pipe so large videos
// are never held in memory.
func (c *HTTPClient) uploadRequest(r UploadRequest) requestFactory {
	return func(ctx context.Context) (*http.Request, error) {
		file, err := os.Open(r.FilePath)
		if err != nil {
			return nil, err
		}

		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)

		go func() {
			defer func() {
				if err := file.Close(); err != nil {
					logging.Debug("failed to close %s: %v", r.FilePath, err)
				}
			}()
			pw.CloseWithError(writeUploadForm(mw, file, r))
		}()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("assets"), pr)
		if err != nil {
			_ = pr.Close()
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Accept", "application/json")
		return req, nil
	}
}

func writeUploadForm(mw *multipart.Writer, file io.Reader, r UploadRequest) error {
	fields := []struct{ name, value string }{
		{"deviceAssetId", r.DeviceAssetID},
		{"deviceId", r.DeviceID},
		{"fileCreatedAt", r.FileCreatedAt},
		{"fileModifiedAt", r.FileModifiedAt},
	}
	if r.Filename != "" {
		fields = append(fields, struct{ name, value string }{"filename", r.Filename})
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}

	name := r.Filename
	if name == "" {
		name = filepath.Base(r.FilePath)
	}
	part, err := mw.CreateFormFile("assetData", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return mw.Close()
}

// Upload implements Client.
func (c *HTTPClient) Upload(ctx context.Context, r UploadRequest) (Uploaded, error) {
	resp, err := c.do(ctx, "upload", c.uploadRequest(r))
	if err != nil {
		return Uploaded{}, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Uploaded{}, statusError("upload", resp)
	}
	defer drain(resp)

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Uploaded{}, &Error{Op: "upload", Kind: KindTransport, Err: fmt.Errorf("invalid response: %w", err)}
	}
	if result.ID == "" {
		return Uploaded{}, &Error{Op: "upload", Kind: KindRejected, Status: resp.StatusCode, Message: "response has no asset id"}
	}
	uploaded := Uploaded{ID: result.ID, Duplicate: result.Status == "duplicate"}
	if uploaded.Duplicate {
		logging.Warn("Upload of %s matched existing asset %s", r.Filename, result.ID)
	}

	if info, err := os.Stat(r.FilePath); err == nil {
		metrics.CatalogTransferBytesTotal.WithLabelValues("upload").Add(float64(info.Size()))
	}
	return uploaded, nil
}

// CopyRelations implements Client.
func (c *HTTPClient) CopyRelations(ctx context.Context, fromID, toID string) error {
	body := map[string]interface{}{
		"sourceId":    fromID,
		"targetId":    toID,
		"albums":      true,
		"favorite":    true,
		"sharedLinks": true,
		"sidecar":     true,
		"stack":       true,
	}
	resp, err := c.do(ctx, "copy", c.jsonRequest(http.MethodPut, "assets/copy", body))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return statusError("copy", resp)
	}
	drain(resp)
	return nil
}

// Exists implements Client.
func (c *HTTPClient) Exists(ctx context.Context, assetID string) (bool, error) {
	resp, err := c.do(ctx, "get", c.jsonRequest(http.MethodGet, "assets/"+assetID, nil))
	if err != nil {
		return false, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		drain(resp)
		return true, nil
	case http.StatusNotFound:
		drain(resp)
		return false, nil
	default:
		return false, statusError("get", resp)
	}
}

// Delete implements Client.
func (c *HTTPClient) Delete(ctx context.Context, ids ...string) error {
	body := map[string]interface{}{"ids": ids}
	resp, err := c.do(ctx, "delete", c.jsonRequest(http.MethodDelete, "assets", body))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return statusError("delete", resp)
	}
	drain(resp)
	return nil
}

// Ping implements Client by searching for a single image.
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.Search(ctx, SearchQuery{Type: mediatypes.KindImage.CatalogType(), Page: 1, Size: 1})
	return err
}
