package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCutoff(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	loc := time.FixedZone("BST", 3600)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"", now},
		{"48h", now.Add(-48 * time.Hour)},
		{"2024-01-10T09:00:00Z", time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)},
		{"2024-01-10", time.Date(2024, 1, 10, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		got, err := parseCutoff(tt.in, now, loc)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	_, err := parseCutoff("last tuesday", now, loc)
	assert.Error(t, err)
}
