package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seriesbox/seriesbox/internal/domain"
)

// ErrNotFound is returned when upstream cannot find the requested series.
var ErrNotFound = errors.New("tmdb: not found")

// Client defines the contract for looking up TV series metadata. It is a
// boundary: lookups only backfill display snapshots and are never on the
// critical path of a rating write.
type Client interface {
	Lookup(ctx context.Context, seriesID int64) (*domain.SeriesSnapshot, error)
}

// HTTPClient implements Client over HTTP against a TMDB-shaped API.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient constructs a new HTTP-backed metadata client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Lookup retrieves the display snapshot for a TV series by its TMDB id.
func (c *HTTPClient) Lookup(ctx context.Context, seriesID int64) (*domain.SeriesSnapshot, error) {
	rel := &url.URL{Path: fmt.Sprintf("/tv/%d", seriesID)}
	if c.apiKey != "" {
		q := rel.Query()
		q.Set("api_key", c.apiKey)
		rel.RawQuery = q.Encode()
	}
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode tmdb response: %w", err)
		}
		return convertToSnapshot(payload), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Warn().Int("status", resp.StatusCode).Int64("series_id", seriesID).Msg("tmdb: unexpected status")
		return nil, fmt.Errorf("tmdb: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	Name            string  `json:"name"`
	PosterPath      *string `json:"poster_path"`
	BackdropPath    *string `json:"backdrop_path"`
	Overview        *string `json:"overview"`
	FirstAirDate    *string `json:"first_air_date"`
	NumberOfSeasons *int    `json:"number_of_seasons"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

func convertToSnapshot(payload apiResponse) *domain.SeriesSnapshot {
	snapshot := &domain.SeriesSnapshot{
		Name:         payload.Name,
		PosterPath:   emptyToNil(payload.PosterPath),
		BackdropPath: emptyToNil(payload.BackdropPath),
		Overview:     emptyToNil(payload.Overview),
		SeasonCount:  payload.NumberOfSeasons,
	}

	if len(payload.Genres) > 0 && payload.Genres[0].Name != "" {
		genre := payload.Genres[0].Name
		snapshot.Genre = &genre
	}

	if payload.FirstAirDate != nil && *payload.FirstAirDate != "" {
		if parsed, err := time.Parse("2006-01-02", *payload.FirstAirDate); err == nil {
			snapshot.FirstAirDate = &parsed
		}
	}

	return snapshot
}

func emptyToNil(ptr *string) *string {
	if ptr == nil || *ptr == "" {
		return nil
	}
	return ptr
}
