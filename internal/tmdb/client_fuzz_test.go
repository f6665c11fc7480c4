package tmdb

import (
	"testing"
)

func FuzzConvertToSnapshot(f *testing.F) {
	f.Add("Breaking Bad", "/poster.jpg", "2008-01-20", "Drama", 5)
	f.Add("", "", "not-a-date", "", -1)

	f.Fuzz(func(t *testing.T, name, poster, airDate, genre string, seasons int) {
		payload := apiResponse{
			Name:         name,
			PosterPath:   optionalString(poster),
			FirstAirDate: optionalString(airDate),
		}
		if seasons >= 0 {
			payload.NumberOfSeasons = &seasons
		}
		if genre != "" {
			payload.Genres = []struct {
				Name string `json:"name"`
			}{{Name: genre}}
		}

		snapshot := convertToSnapshot(payload)
		if snapshot == nil {
			t.Fatalf("convertToSnapshot returned nil")
		}
		if snapshot.PosterPath != nil && *snapshot.PosterPath == "" {
			t.Fatalf("empty poster path should collapse to nil")
		}
		if snapshot.Genre != nil && *snapshot.Genre == "" {
			t.Fatalf("empty genre should collapse to nil")
		}
	})
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
