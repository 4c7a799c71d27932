// internal/credentials/credentials_test.go
package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github-repo-sync/internal/errors"
)

func TestStatic_Token(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the account token, matching case-insensitively", func(t *testing.T) {
		s := NewStatic(map[string]string{"Alice": "alice-token"}, "default-token")

		token, err := s.Token(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice-token", token)
	})

	t.Run("falls back to the default token", func(t *testing.T) {
		s := NewStatic(map[string]string{"alice": "alice-token"}, "default-token")

		token, err := s.Token(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "default-token", token)
	})

	t.Run("fails when no token is known", func(t *testing.T) {
		s := NewStatic(nil, "")

		_, err := s.Token(ctx, "bob")
		var missing *custom_errors.MissingCredentialsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "bob", missing.Owner)
	})
}

func TestFixed(t *testing.T) {
	token, err := Fixed("request-token").Token(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Equal(t, "request-token", token)

	_, err = Fixed("").Token(context.Background(), "anyone")
	var missing *custom_errors.MissingCredentialsError
	assert.ErrorAs(t, err, &missing)
}
