// Package transport fetches registry documents from the upstream asset
// registry using If-Modified-Since revalidation.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"asset-registry-api/internal/models"
	"asset-registry-api/internal/versioned"
)

// ErrNoEndpoint is returned for networks without a configured registry url.
var ErrNoEndpoint = errors.New("no registry endpoint configured")

// maxBodySize bounds the size of a registry document.
const maxBodySize = 64 << 20

// Result is the outcome of a fetch. When Modified is false the upstream
// answered 304 and Entry is the zero value: the caller keeps what it has.
type Result struct {
	Entry    versioned.Entry
	Modified bool
}

// Fetcher retrieves a document, passing lastModified for revalidation.
type Fetcher interface {
	Fetch(ctx context.Context, network models.Network, kind models.Kind, lastModified string) (Result, error)
}

// StatusError is an unexpected upstream status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// FetchError wraps every failure of a fetch.
type FetchError struct {
	Network models.Network
	Kind    models.Kind
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s/%s: %v", e.Network, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPFetcher talks to one registry base url per network.
type HTTPFetcher struct {
	client    *http.Client
	endpoints map[models.Network]string
}

// NewHTTPFetcher builds a fetcher. A nil client gets a default with timeout.
func NewHTTPFetcher(endpoints map[models.Network]string, client *http.Client, timeout time.Duration) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	eps := make(map[models.Network]string, len(endpoints))
	for n, u := range endpoints {
		eps[n] = strings.TrimRight(u, "/")
	}
	return &HTTPFetcher{client: client, endpoints: eps}
}

// Path returns the document path for a kind.
func Path(kind models.Kind) string {
	if kind == models.KindIcons {
		return "/icons.json"
	}
	return "/index.json"
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, network models.Network, kind models.Kind, lastModified string) (Result, error) {
	wrap := func(err error) (Result, error) {
		return Result{}, &FetchError{Network: network, Kind: kind, Err: err}
	}

	base, ok := f.endpoints[network]
	if !ok || base == "" {
		return wrap(ErrNoEndpoint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+Path(kind), nil)
	if err != nil {
		return wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return wrap(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return Result{Modified: false}, nil
	case http.StatusOK:
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return wrap(&StatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return wrap(fmt.Errorf("read body: %w", err))
	}
	value, err := versioned.ParseValue(body)
	if err != nil {
		return wrap(fmt.Errorf("decode body: %w", err))
	}

	return Result{
		Entry:    versioned.New(value, resp.Header.Get("Last-Modified")),
		Modified: true,
	}, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
