package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEntryNumber(t *testing.T) {
	tests := []struct {
		year, seq int
		want      string
	}{
		{2024, 1, "2024-000001"},
		{2024, 999, "2024-000999"},
		{2025, 123456, "2025-123456"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatEntryNumber(tt.year, tt.seq))
	}
}

func TestParseEntryNumber(t *testing.T) {
	year, seq, err := ParseEntryNumber("2024-000042")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 42, seq)
}

func TestParseEntryNumber_Invalid(t *testing.T) {
	for _, in := range []string{"", "2024", "24-000001", "2024-", "2024-abc", "abcd-000001", "2024-000000"} {
		_, _, err := ParseEntryNumber(in)
		assert.Error(t, err, "ParseEntryNumber(%q)", in)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, seq := range []int{1, 10, 999999} {
		year, got, err := ParseEntryNumber(FormatEntryNumber(2030, seq))
		require.NoError(t, err)
		assert.Equal(t, 2030, year)
		assert.Equal(t, seq, got)
	}
}

func TestNew(t *testing.T) {
	a, b := New(), New()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
