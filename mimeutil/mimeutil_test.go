package mimeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		mimeType string
		want     bool
	}{
		{"exact match", "image/tiff", "image/tiff", true},
		{"exact mismatch", "image/tiff", "image/png", false},
		{"subtype wildcard", "image/*", "image/png", true},
		{"subtype wildcard mismatch", "image/*", "application/zip", false},
		{"full wildcard", "*/*", "application/x-netcdf4", true},
		{"case insensitive", "Image/TIFF", "image/tiff", true},
		{"parameters ignored", "text/plain", "text/plain; charset=utf-8", true},
		{"malformed pattern", "not-a-mime", "image/tiff", false},
		{"empty mime type", "image/*", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.mimeType))
		})
	}
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"application/zip", "image/*"}

	assert.True(t, MatchAny(patterns, "image/png"))
	assert.True(t, MatchAny(patterns, "application/zip"))
	assert.False(t, MatchAny(patterns, "text/csv"))
	assert.False(t, MatchAny(nil, "text/csv"))
}
