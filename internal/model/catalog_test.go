package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 9, 14, 5, 7, 123456000, time.Local)
	assert.Equal(t, "2025-03-09T14:05:07.123456", FormatTimestamp(ts))
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"microseconds", "2025-03-09T14:05:07.123456", time.Date(2025, 3, 9, 14, 5, 7, 123456000, time.Local)},
		{"no fraction", "2025-03-09T14:05:07", time.Date(2025, 3, 9, 14, 5, 7, 0, time.Local)},
		{"utc offset", "2025-03-09T14:05:07Z", time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestCatalog_Names(t *testing.T) {
	t.Parallel()

	c := Catalog{
		"Zotac 4070": {},
		"AMD 7800X3D": {},
		"Corsair RAM": {},
	}
	assert.Equal(t, []string{"AMD 7800X3D", "Corsair RAM", "Zotac 4070"}, c.Names())
}

func TestProduct_SourceNames(t *testing.T) {
	t.Parallel()

	p := &Product{Sources: map[string]*Source{
		"shopblt":     {},
		"microcenter": {},
		"newegg":      {},
	}}
	assert.Equal(t, []string{"microcenter", "newegg", "shopblt"}, p.SourceNames())
}

func TestCatalog_SourceCount(t *testing.T) {
	t.Parallel()

	c := Catalog{
		"a": {Sources: map[string]*Source{"x": {}, "y": {}}},
		"b": {Sources: map[string]*Source{"z": {}}},
		"c": nil,
	}
	assert.Equal(t, 3, c.SourceCount())
}

func TestListing_Observation(t *testing.T) {
	t.Parallel()

	l := Listing{Price: 409.99, Currency: "USD", Brand: "Corsair", Model: "CMH32GX5M2M6000Z36"}
	obs := l.Observation("2025-03-09T14:05:07.000000")
	assert.Equal(t, Observation{Price: 409.99, Timestamp: "2025-03-09T14:05:07.000000", Currency: "USD"}, obs)
}
