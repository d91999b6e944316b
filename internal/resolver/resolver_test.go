package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genricoloni/walltz/internal/cache"
	"github.com/genricoloni/walltz/internal/domain"
	"github.com/genricoloni/walltz/internal/domain/mocks"
	"github.com/genricoloni/walltz/internal/fetcher"
	"github.com/genricoloni/walltz/internal/supplier"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type stubConfig struct {
	domain.Config
}

func (stubConfig) MaxImageSize() int64        { return 1 << 20 }
func (stubConfig) HTTPTimeout() time.Duration { return 0 }

// imageServer serves fixed bytes and counts the requests it receives
func imageServer(t *testing.T, body []byte) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newResolver(t *testing.T, f domain.Fetcher) (*Resolver, *cache.Cache) {
	t.Helper()
	c, err := cache.Open(zap.NewNop(), t.TempDir())
	require.NoError(t, err)
	return NewResolver(zap.NewNop(), c, f), c
}

func TestFetchReference_CacheIdempotence(t *testing.T) {
	body := []byte("png-bytes")
	srv, hits := imageServer(t, body)
	r, _ := newResolver(t, fetcher.NewHTTPFetcher(zap.NewNop(), stubConfig{}))

	src, err := url.Parse(srv.URL + "/pics/42.png")
	require.NoError(t, err)
	ref := domain.ImageReference{Stem: "42", Source: src, Format: domain.FormatPNG}

	first, err := r.FetchReference(context.Background(), ref)
	require.NoError(t, err)
	require.Nil(t, first.Stored())
	saved, err := r.Cache(first)
	require.NoError(t, err)

	second, err := r.FetchReference(context.Background(), ref)
	require.NoError(t, err)
	require.NotNil(t, second.Stored(), "second resolution must be a cache hit")
	require.Equal(t, saved.Path(), second.Stored().Path())

	again, err := r.Cache(second)
	require.NoError(t, err)
	require.Equal(t, saved.Path(), again.Path())

	require.Equal(t, int32(1), atomic.LoadInt32(hits), "exactly one network fetch")

	got, err := os.ReadFile(saved.Path())
	require.NoError(t, err)
	require.Equal(t, body, got)
}

type fakeSearcher struct {
	ref    domain.ImageReference
	err    error
	cached supplier.CachedFunc
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(_ context.Context, _ domain.SearchParameters, cached supplier.CachedFunc) (domain.ImageReference, error) {
	f.cached = cached
	return f.ref, f.err
}

func TestResolve(t *testing.T) {
	src, _ := url.Parse("https://example.com/a.jpg")
	ref := domain.ImageReference{Stem: "a", Source: src, Format: domain.FormatJPEG}

	tests := []struct {
		name          string
		searchErr     error
		setupMock     func(*mocks.MockFetcher)
		expectedError string
	}{
		{
			name: "Success - Downloads On Miss",
			setupMock: func(m *mocks.MockFetcher) {
				m.EXPECT().FetchImage(gomock.Any(), "https://example.com/a.jpg").Return([]byte("jpeg"), nil)
			},
		},
		{
			name:          "Error - Supplier Fails",
			searchErr:     domain.E(domain.KindDecode, "supplier.decode", errors.New("no value for key: url")),
			setupMock:     func(m *mocks.MockFetcher) {},
			expectedError: "supplier fake",
		},
		{
			name: "Error - Network Fails",
			setupMock: func(m *mocks.MockFetcher) {
				m.EXPECT().FetchImage(gomock.Any(), gomock.Any()).
					Return(nil, domain.E(domain.KindNetwork, "fetcher.get", errors.New("connection refused")))
			},
			expectedError: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := mocks.NewMockFetcher(ctrl)
			tt.setupMock(m)
			r, _ := newResolver(t, m)
			s := &fakeSearcher{ref: ref, err: tt.searchErr}

			img, err := r.Resolve(context.Background(), s, domain.SearchParameters{SkipCache: true})
			require.NotNil(t, s.cached, "the cache predicate is always passed")
			if tt.expectedError != "" {
				require.ErrorContains(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "a.jpg", img.FileName())
		})
	}
}

func TestResolve_KindsSurvive(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockFetcher(ctrl)
	r, _ := newResolver(t, m)

	_, err := r.Resolve(context.Background(), &fakeSearcher{
		err: domain.E(domain.KindDecode, "supplier.decode", errors.New("bad")),
	}, domain.SearchParameters{})
	require.True(t, domain.IsKind(err, domain.KindDecode))
	require.False(t, domain.IsKind(err, domain.KindNetwork))
}

func TestLoadExternal(t *testing.T) {
	srv, hits := imageServer(t, []byte("remote"))
	r, c := newResolver(t, fetcher.NewHTTPFetcher(zap.NewNop(), stubConfig{}))

	local := filepath.Join(t.TempDir(), "local.png")
	require.NoError(t, os.WriteFile(local, []byte("local"), 0o644))

	t.Run("Local File", func(t *testing.T) {
		saved, err := r.LoadExternal(context.Background(), local)
		require.NoError(t, err)
		require.Equal(t, "local", saved.Name())
	})

	t.Run("URL Is Cached", func(t *testing.T) {
		saved, err := r.LoadExternal(context.Background(), srv.URL+"/remote.png")
		require.NoError(t, err)
		require.True(t, c.Has("remote"))

		again, err := r.LoadExternal(context.Background(), srv.URL+"/remote.png")
		require.NoError(t, err)
		require.Equal(t, saved.Path(), again.Path())
		require.Equal(t, int32(1), atomic.LoadInt32(hits))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := r.LoadExternal(context.Background(), "does/not/exist.png")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.Equal(t, domain.KindFs, domain.KindOf(err))
	})
}
