package discit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

const (
	// DefaultURL is the public discit endpoint serving the whole catalog.
	DefaultURL = "https://discit-api.fly.dev/disc"

	// DefaultTimeout bounds one catalog request.
	DefaultTimeout = 15 * time.Second

	// maxBodyBytes caps the catalog payload read from the network.
	maxBodyBytes = 32 << 20
)

// Fetcher retrieves the full disc catalog.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.Disc, error)
}

// Options configures NewFetcher.
type Options struct {
	// URL is either an http(s) endpoint or a file:// path to a JSON or YAML dump.
	URL string

	// Timeout for HTTP requests (default: DefaultTimeout)
	Timeout time.Duration

	// MinInterval is the minimum spacing between outbound HTTP fetches (0 disables pacing).
	MinInterval time.Duration

	// HTTPClient allows a custom HTTP client
	HTTPClient *http.Client
}

// NewFetcher picks the HTTP or file implementation from the URL scheme.
func NewFetcher(opts Options, log logger.Logger) (Fetcher, error) {
	raw := strings.TrimSpace(opts.URL)
	if raw == "" {
		raw = DefaultURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog url %q: %w", raw, err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewHTTPFetcher(raw, opts, log), nil
	case "file":
		return NewFileFetcher(FilePath(u), log), nil
	default:
		return nil, fmt.Errorf("unsupported catalog url scheme %q", u.Scheme)
	}
}

// FilePath returns the local path named by a file:// URL, accepting both
// file:///abs/path and the relative file://data/discs.json form.
func FilePath(u *url.URL) string {
	if u.Host != "" && u.Host != "localhost" {
		return u.Host + u.Path
	}
	return u.Path
}

// ─────────────────────────────
// HTTP
// ─────────────────────────────

// HTTPFetcher loads the catalog from the discit API.
type HTTPFetcher struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	mapper     *Mapper
	log        logger.Logger
}

// NewHTTPFetcher creates an HTTP catalog client.
func NewHTTPFetcher(endpoint string, opts Options, log logger.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	return &HTTPFetcher{
		url:        endpoint,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		mapper:     NewMapper(),
		log:        log,
	}
}

// Fetch performs a GET on the catalog endpoint. Any non-2xx status is a failure.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]domain.Disc, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("catalog request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	return decode(body, f.mapper, f.log, f.url)
}

// ─────────────────────────────
// File
// ─────────────────────────────

// FileFetcher loads the catalog from a local JSON or YAML file.
type FileFetcher struct {
	path   string
	mapper *Mapper
	log    logger.Logger
}

// NewFileFetcher creates a file-backed catalog source.
func NewFileFetcher(path string, log logger.Logger) *FileFetcher {
	return &FileFetcher{path: path, mapper: NewMapper(), log: log}
}

// Path returns the watched file path.
func (f *FileFetcher) Path() string { return f.path }

// Fetch reads and parses the catalog file.
func (f *FileFetcher) Fetch(ctx context.Context) ([]domain.Disc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return decode(data, f.mapper, f.log, f.path)
}

// decode parses a catalog payload: a JSON array, or a YAML sequence for local dumps.
func decode(data []byte, mapper *Mapper, log logger.Logger, origin string) ([]domain.Disc, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty catalog payload")
	}

	var records Catalog
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to parse catalog json: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	discs, skipped := mapper.MapDiscs(records)
	if skipped > 0 {
		log.Debug("skipped invalid catalog records",
			logger.String("source", origin),
			logger.Int("skipped", skipped),
			logger.Int("kept", len(discs)),
		)
	}
	return discs, nil
}
