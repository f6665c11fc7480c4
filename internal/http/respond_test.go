package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundToOneDecimal(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{name: "already exact", input: 3.5, want: 3.5},
		{name: "rounds down", input: 3.44, want: 3.4},
		{name: "rounds up", input: 3.45, want: 3.5},
		{name: "repeating third", input: 11.0 / 3.0, want: 3.7},
		{name: "zero", input: 0, want: 0},
		{name: "max score", input: 5, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, roundToOneDecimal(tt.input), 1e-9)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "missing", header: "", want: ""},
		{name: "well formed", header: "Bearer abc-123", want: "abc-123"},
		{name: "wrong scheme", header: "Basic abc-123", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
		{name: "extra whitespace", header: "Bearer    abc-123", want: "abc-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(req))
		})
	}
}

func TestIDParam(t *testing.T) {
	newRequest := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		routeCtx := chi.NewRouteContext()
		if value != "" {
			routeCtx.URLParams.Add("seriesID", value)
		}
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}

	id, err := idParam(newRequest("42"), "seriesID")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = idParam(newRequest(""), "seriesID")
	assert.Error(t, err)

	_, err = idParam(newRequest("0"), "seriesID")
	assert.Error(t, err)

	_, err = idParam(newRequest("-7"), "seriesID")
	assert.Error(t, err)

	_, err = idParam(newRequest("abc"), "seriesID")
	assert.Error(t, err)
}
