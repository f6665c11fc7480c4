package repository

import (
	"testing"
)

func FuzzDecodeActivityCursor(f *testing.F) {
	seeds := []string{
		"",
		"eyJ1cGRhdGVkQXQiOiIyMDI0LTAxLTAxVDAwOjAwOjAwWiIsImlkIjo3fQ==",
		"not-base64!!!",
		"aGVsbG8=",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, token string) {
		cursor, err := DecodeActivityCursor(token)
		if err != nil && cursor != nil {
			t.Fatalf("non-nil cursor alongside error for %q", token)
		}
		if token == "" && (cursor != nil || err != nil) {
			t.Fatalf("empty token must decode to nil, nil")
		}
	})
}
