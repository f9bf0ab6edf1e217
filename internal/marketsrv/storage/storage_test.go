package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreDeterministic(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	h1, err := s.Put(ctx, "a.bin", strings.NewReader("same bytes"))
	require.Nil(t, err)
	h2, err := s.Put(ctx, "b.bin", strings.NewReader("same bytes"))
	require.Nil(t, err)
	assert.Equal(t, h1, h2, "identical bytes must yield the identical hash")
	assert.Equal(t, 1, s.Len())

	h3, err := s.Put(ctx, "c.bin", strings.NewReader("different bytes"))
	require.Nil(t, err)
	assert.NotEqual(t, h1, h3)

	data, ok := s.Get(h1)
	require.True(t, ok)
	assert.Equal(t, "same bytes", string(data))
}

func TestPinClientPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key", r.Header.Get("pin_api_key"))
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		w.Write([]byte(`{"hash":"Qm123"}`))
	}))
	defer srv.Close()

	c := NewPinClient(srv.URL, "key", "secret")
	hash, err := c.Put(context.Background(), "clip.mp4", strings.NewReader("payload"))
	require.Nil(t, err)
	assert.Equal(t, "Qm123", hash)
}

func TestPinClientRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"hash":"Qm456"}`))
	}))
	defer srv.Close()

	c := NewPinClient(srv.URL, "key", "secret")
	hash, err := c.Put(context.Background(), "clip.mp4", strings.NewReader("payload"))
	require.Nil(t, err)
	assert.Equal(t, "Qm456", hash)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPinClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewPinClient(srv.URL, "key", "secret")
	_, err := c.Put(context.Background(), "clip.mp4", strings.NewReader("payload"))
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
