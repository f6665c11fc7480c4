package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/1399", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "name": "Game of Thrones",
            "poster_path": "/poster.jpg",
            "backdrop_path": "",
            "overview": "Winter is coming.",
            "first_air_date": "2011-04-17",
            "number_of_seasons": 8,
            "genres": [{"id": 18, "name": "Drama"}, {"id": 10765, "name": "Sci-Fi & Fantasy"}]
        }`))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "test-key", 2*time.Second, zerolog.Nop())
	require.NoError(t, err)

	snapshot, err := client.Lookup(context.Background(), 1399)
	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", snapshot.Name)
	require.NotNil(t, snapshot.PosterPath)
	assert.Equal(t, "/poster.jpg", *snapshot.PosterPath)
	assert.Nil(t, snapshot.BackdropPath)
	require.NotNil(t, snapshot.Genre)
	assert.Equal(t, "Drama", *snapshot.Genre)
	require.NotNil(t, snapshot.FirstAirDate)
	assert.Equal(t, 2011, snapshot.FirstAirDate.Year())
	require.NotNil(t, snapshot.SeasonCount)
	assert.Equal(t, 8, *snapshot.SeasonCount)
}

func TestHTTPClientLookup_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "", 2*time.Second, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), 999999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClientLookup_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "", 2*time.Second, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestConvertToSnapshot_Minimal(t *testing.T) {
	snapshot := convertToSnapshot(apiResponse{Name: "Untitled"})
	assert.Equal(t, "Untitled", snapshot.Name)
	assert.Nil(t, snapshot.PosterPath)
	assert.Nil(t, snapshot.Genre)
	assert.Nil(t, snapshot.FirstAirDate)
	assert.Nil(t, snapshot.SeasonCount)
}
