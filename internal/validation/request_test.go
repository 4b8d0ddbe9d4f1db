package validation

import (
	"testing"

	"freebies/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePost struct {
	Title     string   `json:"title" validate:"required,max=10"`
	Category  string   `json:"category" validate:"required,category"`
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	PhotoURL  string   `json:"photo_url" validate:"omitempty,url"`
	Kind      string   `json:"type" validate:"omitempty,message_type"`
	Untracked string   `json:"-"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	lat := 12.5
	tooFar := 91.0
	zero := 0.0

	tests := []struct {
		name    string
		input   samplePost
		wantMsg string
	}{
		{name: "valid", input: samplePost{Title: "Soup", Category: "leftovers", Latitude: &lat}},
		{name: "zero latitude is present", input: samplePost{Title: "Soup", Category: "new", Latitude: &zero}},
		{name: "missing title", input: samplePost{Category: "new", Latitude: &lat}, wantMsg: "title is required"},
		{name: "long title", input: samplePost{Title: "a very long title", Category: "new", Latitude: &lat}, wantMsg: "title must be at most 10 characters"},
		{name: "unknown category", input: samplePost{Title: "Soup", Category: "furniture", Latitude: &lat}, wantMsg: "Invalid category"},
		{name: "missing latitude", input: samplePost{Title: "Soup", Category: "new"}, wantMsg: "latitude is required"},
		{name: "latitude out of range", input: samplePost{Title: "Soup", Category: "new", Latitude: &tooFar}, wantMsg: "latitude must be at most 90"},
		{name: "bad photo url", input: samplePost{Title: "Soup", Category: "new", Latitude: &lat, PhotoURL: "not a url"}, wantMsg: "photo_url must be a valid URL"},
		{name: "bad message type", input: samplePost{Title: "Soup", Category: "new", Latitude: &lat, Kind: "poke"}, wantMsg: "Invalid message type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.input)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}
