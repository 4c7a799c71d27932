// internal/datetime/datetime_test.go
package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github-repo-sync/internal/errors"
)

func TestParseExternal(t *testing.T) {
	want := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)

	t.Run("accepts Z suffix", func(t *testing.T) {
		got, err := ParseExternal("2024-03-10T12:30:00Z")
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("normalizes explicit offsets to UTC", func(t *testing.T) {
		got, err := ParseExternal("2024-03-10T14:30:00+02:00")
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
		assert.Equal(t, time.UTC, got.Location())
		assert.Equal(t, 12, got.Hour())
	})

	t.Run("treats a missing offset as UTC", func(t *testing.T) {
		got, err := ParseExternal("2024-03-10T12:30:00")
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
	})

	t.Run("accepts fractional seconds and a space separator", func(t *testing.T) {
		got, err := ParseExternal("2024-03-10 12:30:00.250")
		require.NoError(t, err)
		assert.True(t, want.Add(250*time.Millisecond).Equal(got))
	})

	t.Run("rejects text that is not ISO-8601", func(t *testing.T) {
		_, err := ParseExternal("last tuesday")
		require.Error(t, err)
		var tsErr *custom_errors.MalformedTimestampError
		require.ErrorAs(t, err, &tsErr)
		assert.Equal(t, "last tuesday", tsErr.Value)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParseExternal("")
		assert.Error(t, err)
	})
}

func TestCompare(t *testing.T) {
	utc := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tokyo := utc.In(time.FixedZone("JST", 9*60*60))

	assert.Equal(t, 0, Compare(utc, tokyo), "same instant in different zones is equal")
	assert.Equal(t, -1, Compare(utc, utc.Add(time.Second)))
	assert.Equal(t, 1, Compare(utc.Add(time.Nanosecond), tokyo))
}

func TestFormatParseRoundTrip(t *testing.T) {
	instants := []time.Time{
		time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 2, 29, 8, 15, 0, 123456789, time.FixedZone("EST", -5*60*60)),
		time.Unix(0, 0),
	}
	for _, in := range instants {
		s := Format(in)
		assert.True(t, len(s) > 0 && s[len(s)-1] == 'Z', "formatted value %q should be Z-suffixed", s)

		out, err := ParseExternal(s)
		require.NoError(t, err)
		assert.Equal(t, 0, Compare(in, out), "round trip of %s", s)
	}
}

func TestNormalize(t *testing.T) {
	assert.True(t, Normalize(time.Time{}).IsZero())
	local := time.Date(2024, 5, 1, 9, 0, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, time.UTC, Normalize(local).Location())
	assert.Equal(t, time.UTC, Now().Location())
}
