package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC)

	ddmm, err := ParseDate("05-06-2024")
	require.NoError(t, err)
	assert.Equal(t, want, ddmm)

	iso, err := ParseDate("2024-06-05")
	require.NoError(t, err)
	assert.Equal(t, want, iso)
}

func TestParseDateInvalid(t *testing.T) {
	for _, input := range []string{"", "not-a-date", "2024-13-40", "05/06/2024"} {
		_, err := ParseDate(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, IsValidation(err), "input %q should be a validation error", input)
	}
}
