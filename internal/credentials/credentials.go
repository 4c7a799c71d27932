// internal/credentials/credentials.go

// Package credentials resolves the GitHub token used for one account's sync pass.
package credentials

import (
	"context"

	custom_errors "github-repo-sync/internal/errors"
	"github-repo-sync/internal/model"
)

// Source looks up the token for an owning account. Implementations are passed
// into a reconciliation at call time.
type Source interface {
	Token(ctx context.Context, owner string) (string, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context, owner string) (string, error)

func (f SourceFunc) Token(ctx context.Context, owner string) (string, error) {
	return f(ctx, owner)
}

// Static serves tokens from a fixed per-account table, falling back to a
// default token for accounts without an entry.
type Static struct {
	tokens   map[string]string
	fallback string
}

// NewStatic copies tokens; account names match case-insensitively.
func NewStatic(tokens map[string]string, fallback string) *Static {
	s := &Static{
		tokens:   make(map[string]string, len(tokens)),
		fallback: fallback,
	}
	for owner, token := range tokens {
		s.tokens[model.CanonicalOwner(owner)] = token
	}
	return s
}

func (s *Static) Token(_ context.Context, owner string) (string, error) {
	if token, ok := s.tokens[model.CanonicalOwner(owner)]; ok && token != "" {
		return token, nil
	}
	if s.fallback != "" {
		return s.fallback, nil
	}
	return "", &custom_errors.MissingCredentialsError{Owner: owner}
}

// Fixed returns a Source that hands out token for every account, e.g. a token
// supplied with a single API request.
func Fixed(token string) Source {
	return SourceFunc(func(_ context.Context, owner string) (string, error) {
		if token == "" {
			return "", &custom_errors.MissingCredentialsError{Owner: owner}
		}
		return token, nil
	})
}
