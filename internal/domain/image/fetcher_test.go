package image

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"plant-diagnosis-server/internal/platform/config"
	"plant-diagnosis-server/internal/platform/errors"
	platformtesting "plant-diagnosis-server/internal/platform/testing"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Download(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if data := args.Get(0); data != nil {
		return data.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) PresignGet(ctx context.Context, path string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, path, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, prefix string, max int32) ([]string, error) {
	args := m.Called(ctx, prefix, max)
	if keys := args.Get(0); keys != nil {
		return keys.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestFetcher(t *testing.T, store ObjectStore) *Fetcher {
	t.Helper()
	logger := platformtesting.SetupTestLogger(t)
	validator := NewValidator(testSecurityConfig(), logger)
	return NewFetcher(store, config.StorageConfig{
		SignedURLTTL:    time.Hour,
		DownloadTimeout: 5 * time.Second,
	}, validator, logger)
}

func TestFetchDirectSuccess(t *testing.T) {
	store := &mockStore{}
	store.On("Download", mock.Anything, "img/1.jpg").Return(tinyGIF, nil)

	fetcher := newTestFetcher(t, store)
	data, err := fetcher.Fetch(context.Background(), "img/1.jpg")

	require.NoError(t, err)
	assert.Equal(t, tinyGIF, data)
	store.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchFallsBackToSignedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tinyGIF)
	}))
	defer server.Close()

	store := &mockStore{}
	store.On("Download", mock.Anything, "img/1.jpg").
		Return(nil, errors.New(errors.KindStorage, "store.download", "access denied"))
	store.On("PresignGet", mock.Anything, "img/1.jpg", time.Hour).Return(server.URL, nil)

	fetcher := newTestFetcher(t, store)
	data, err := fetcher.Fetch(context.Background(), "img/1.jpg")

	require.NoError(t, err)
	assert.Equal(t, tinyGIF, data)
	store.AssertExpectations(t)
}

func TestFetchEmptyObjectFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tinyGIF)
	}))
	defer server.Close()

	store := &mockStore{}
	store.On("Download", mock.Anything, "img/empty.jpg").Return([]byte{}, nil)
	store.On("PresignGet", mock.Anything, "img/empty.jpg", time.Hour).Return(server.URL, nil)

	fetcher := newTestFetcher(t, store)
	data, err := fetcher.Fetch(context.Background(), "img/empty.jpg")

	require.NoError(t, err)
	assert.Equal(t, tinyGIF, data)
}

func TestFetchBothStrategiesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	store := &mockStore{}
	store.On("Download", mock.Anything, "img/1.jpg").
		Return(nil, errors.New(errors.KindStorage, "store.download", "access denied"))
	store.On("PresignGet", mock.Anything, "img/1.jpg", time.Hour).Return(server.URL, nil)

	fetcher := newTestFetcher(t, store)
	data, err := fetcher.Fetch(context.Background(), "img/1.jpg")

	require.Error(t, err)
	assert.Nil(t, data)
	assert.True(t, errors.IsKind(err, errors.KindDownload))
}

func TestFetchPresignFailure(t *testing.T) {
	store := &mockStore{}
	store.On("Download", mock.Anything, "img/1.jpg").Return(nil, assert.AnError)
	store.On("PresignGet", mock.Anything, "img/1.jpg", time.Hour).Return("", assert.AnError)

	fetcher := newTestFetcher(t, store)
	_, err := fetcher.Fetch(context.Background(), "img/1.jpg")

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDownload))
}

func TestFetchNonImageSignedURLBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	store := &mockStore{}
	store.On("Download", mock.Anything, "img/1.jpg").Return(nil, assert.AnError)
	store.On("PresignGet", mock.Anything, "img/1.jpg", time.Hour).Return(server.URL, nil)

	fetcher := newTestFetcher(t, store)
	_, err := fetcher.Fetch(context.Background(), "img/1.jpg")

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDownload))
}

func TestTestConnection(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, "", int32(5)).Return([]string{"img/1.jpg"}, nil).Once()

	fetcher := newTestFetcher(t, store)
	assert.True(t, fetcher.TestConnection(context.Background()))

	store.On("List", mock.Anything, "", int32(5)).Return(nil, assert.AnError).Once()
	assert.False(t, fetcher.TestConnection(context.Background()))
}
