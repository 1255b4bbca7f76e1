package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"asset-registry-api/internal/models"
	"asset-registry-api/internal/versioned"

	"github.com/stretchr/testify/require"
)

const stamp = "Wed, 21 Oct 2015 07:28:00 GMT"

type requestLog struct {
	mu   sync.Mutex
	seen []string
}

func (l *requestLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, s)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.seen...)
}

func newUpstream(t *testing.T) (*httptest.Server, *requestLog) {
	t.Helper()
	seen := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r.URL.Path + "|" + r.Header.Get("If-Modified-Since"))
		switch r.URL.Path {
		case "/index.json":
			if r.Header.Get("If-Modified-Since") == stamp {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set("Last-Modified", stamp)
			_, _ = w.Write([]byte(`{"abc": {"asset_id": "abc", "name": "Token", "precision": 2}}`))
		case "/icons.json":
			_, _ = w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestHTTPFetcher_Modified(t *testing.T) {
	srv, seen := newUpstream(t)
	f := NewHTTPFetcher(map[models.Network]string{models.NetworkLiquid: srv.URL + "/"}, nil, time.Second)

	res, err := f.Fetch(context.Background(), models.NetworkLiquid, models.KindAssets, "")
	require.NoError(t, err)
	require.True(t, res.Modified)
	require.Equal(t, stamp, res.Entry.LastModified())
	require.Equal(t, []string{"/index.json|"}, seen.all())

	want, err := versioned.ParseValue([]byte(`{"abc": {"asset_id": "abc", "name": "Token", "precision": 2}}`))
	require.NoError(t, err)
	require.True(t, res.Entry.Equal(versioned.New(want, stamp)))
}

func TestHTTPFetcher_NotModified(t *testing.T) {
	srv, seen := newUpstream(t)
	f := NewHTTPFetcher(map[models.Network]string{models.NetworkLiquid: srv.URL}, nil, time.Second)

	res, err := f.Fetch(context.Background(), models.NetworkLiquid, models.KindAssets, stamp)
	require.NoError(t, err)
	require.False(t, res.Modified)
	require.True(t, res.Entry.IsZero())
	require.Equal(t, []string{"/index.json|" + stamp}, seen.all())
}

func TestHTTPFetcher_BadBody(t *testing.T) {
	srv, _ := newUpstream(t)
	f := NewHTTPFetcher(map[models.Network]string{models.NetworkLiquid: srv.URL}, nil, time.Second)

	_, err := f.Fetch(context.Background(), models.NetworkLiquid, models.KindIcons, "")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, models.KindIcons, fe.Kind)

	var de *versioned.DeserializationError
	require.False(t, errors.As(err, &de))
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv, _ := newUpstream(t)
	f := NewHTTPFetcher(map[models.Network]string{models.NetworkLiquid: srv.URL + "/missing"}, nil, time.Second)

	_, err := f.Fetch(context.Background(), models.NetworkLiquid, models.KindAssets, "")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestHTTPFetcher_NoEndpoint(t *testing.T) {
	f := NewHTTPFetcher(nil, nil, time.Second)
	_, err := f.Fetch(context.Background(), models.NetworkElementsRegtest, models.KindAssets, "")
	require.ErrorIs(t, err, ErrNoEndpoint)
}

func TestHTTPFetcher_ContextCanceled(t *testing.T) {
	srv, _ := newUpstream(t)
	f := NewHTTPFetcher(map[models.Network]string{models.NetworkLiquid: srv.URL}, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, models.NetworkLiquid, models.KindAssets, "")
	require.ErrorIs(t, err, context.Canceled)
}
