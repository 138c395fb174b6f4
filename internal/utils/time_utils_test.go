package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryDate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 2024-03-02 05:30 in UTC+7 is still March 1st in UTC
	got := EntryDate(time.Date(2024, 3, 2, 5, 30, 0, 0, jakarta))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "2024-03-01", FormatEntryDate(got))

	parsed, err := ParseEntryDate("2024-03-01")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(got))

	_, err = ParseEntryDate("03/01/2024")
	assert.Error(t, err)
}

func TestIsForexOpen(t *testing.T) {
	if GetLocation() == time.UTC {
		t.Skip("tzdata not available")
	}
	ny := GetLocation()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"wednesday noon", time.Date(2024, 3, 6, 12, 0, 0, 0, ny), true},
		{"saturday", time.Date(2024, 3, 9, 12, 0, 0, 0, ny), false},
		{"sunday before open", time.Date(2024, 3, 10, 16, 59, 0, 0, ny), false},
		{"sunday after open", time.Date(2024, 3, 10, 17, 0, 0, 0, ny), true},
		{"friday before close", time.Date(2024, 3, 8, 16, 0, 0, 0, ny), true},
		{"friday after close", time.Date(2024, 3, 8, 17, 30, 0, 0, ny), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsForexOpen(tt.at))
		})
	}
}
