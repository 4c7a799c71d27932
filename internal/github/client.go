// internal/github/client.go
package github

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github-repo-sync/internal/datetime"
	custom_errors "github-repo-sync/internal/errors"
	"github-repo-sync/internal/model"
)

const (
	// PerPage is the page size requested from the listing endpoint (the API maximum).
	PerPage = 100

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second
)

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// Option customizes a Client at construction.
type Option func(*http.Client)

// WithTimeout bounds every HTTP request; zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(hc *http.Client) {
		if d > 0 {
			hc.Timeout = d
		}
	}
}

// NewClient creates and configures a new Client instance.
// A non-empty token is sent as a bearer token on every request.
func NewClient(token string, logger *slog.Logger, opts ...Option) *Client {
	var tc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc = oauth2.NewClient(context.Background(), ts)
	} else {
		tc = &http.Client{}
	}
	tc.Timeout = DefaultTimeout
	for _, opt := range opts {
		opt(tc)
	}

	return &Client{
		gh:     github.NewClient(tc),
		logger: logger,
	}
}

// WithBaseURL points the client at a different API root, e.g. a GitHub Enterprise
// instance or a test server.
func (c *Client) WithBaseURL(rawURL string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse GitHub API URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c.gh.BaseURL = u
	return c, nil
}

// repoPayload is the subset of a listing item we read. Timestamps stay raw so a
// single malformed record does not fail the whole page.
type repoPayload struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	HTMLURL         string   `json:"html_url"`
	Description     *string  `json:"description"`
	Language        *string  `json:"language"`
	Topics          []string `json:"topics"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
}

// ListAll walks every page of the owner's public, owned repositories.
//
// Pages are requested in order until one comes back empty; a short page does not
// end the walk. A page failure yields a *errors.PageFetchError and ends the
// sequence. A record with an unparseable timestamp yields a
// *errors.MalformedTimestampError alongside a record carrying only ID and Name,
// and the walk continues. Each call starts again from page 1.
func (c *Client) ListAll(ctx context.Context, owner string) iter.Seq2[model.UpstreamRepository, error] {
	return func(yield func(model.UpstreamRepository, error) bool) {
		for page := 1; ; page++ {
			c.logger.Debug("Fetching repositories page", "owner", owner, "page", page)

			repos, err := c.listPage(ctx, owner, page)
			if err != nil {
				yield(model.UpstreamRepository{}, err)
				return
			}
			if len(repos) == 0 {
				return
			}

			for _, r := range repos {
				rec, err := toUpstreamRepository(r)
				if !yield(rec, err) {
					return
				}
			}
		}
	}
}

func (c *Client) listPage(ctx context.Context, owner string, page int) ([]repoPayload, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(PerPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("type", "owner")
	q.Set("visibility", "public")

	u := fmt.Sprintf("users/%s/repos?%s", url.PathEscape(owner), q.Encode())
	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, &custom_errors.PageFetchError{Owner: owner, Page: page, Err: err}
	}

	var repos []repoPayload
	resp, err := c.gh.Do(ctx, req, &repos)
	if err != nil {
		pageErr := &custom_errors.PageFetchError{Owner: owner, Page: page, Err: err}
		if resp != nil {
			pageErr.StatusCode = resp.StatusCode
		}
		return nil, pageErr
	}
	return repos, nil
}

// FetchContent returns the decoded README of a repository, or nil when there is
// none or it cannot be decoded as UTF-8 text.
func (c *Client) FetchContent(ctx context.Context, owner, name string) *string {
	readme, _, err := c.gh.Repositories.GetReadme(ctx, owner, name, nil)
	if err != nil {
		c.unavailable(owner, name, "readme", err)
		return nil
	}
	if readme.Content == nil || *readme.Content == "" {
		return nil
	}

	text, err := readme.GetContent()
	if err != nil {
		c.unavailable(owner, name, "readme", err)
		return nil
	}
	if !utf8.ValidString(text) {
		c.unavailable(owner, name, "readme", errors.New("content is not valid UTF-8"))
		return nil
	}
	return &text
}

// FetchLanguages returns the languages GitHub reports for a repository, largest
// first. It returns an empty slice when the breakdown is unavailable.
func (c *Client) FetchLanguages(ctx context.Context, owner, name string) []string {
	breakdown, _, err := c.gh.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		c.unavailable(owner, name, "languages", err)
		return []string{}
	}

	langs := make([]string, 0, len(breakdown))
	for lang := range breakdown {
		langs = append(langs, lang)
	}
	slices.SortFunc(langs, func(a, b string) int {
		if n := cmp.Compare(breakdown[b], breakdown[a]); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})
	return langs
}

func (c *Client) unavailable(owner, name, kind string, err error) {
	c.logger.Debug("Enrichment unavailable, continuing without it",
		"error", &custom_errors.EnrichmentUnavailableError{Owner: owner, Repo: name, Kind: kind, Err: err})
}

// toUpstreamRepository translates a listing item to our internal model.UpstreamRepository.
func toUpstreamRepository(r repoPayload) (model.UpstreamRepository, error) {
	created, err := datetime.ParseExternal(r.CreatedAt)
	if err != nil {
		return model.UpstreamRepository{ID: r.ID, Name: r.Name}, withRepoID(err, r.ID)
	}
	updated, err := datetime.ParseExternal(r.UpdatedAt)
	if err != nil {
		return model.UpstreamRepository{ID: r.ID, Name: r.Name}, withRepoID(err, r.ID)
	}

	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}

	return model.UpstreamRepository{
		ID:          r.ID,
		Name:        r.Name,
		URL:         r.HTMLURL,
		Description: r.Description,
		Language:    r.Language,
		Topics:      topics,
		CreatedAt:   created,
		UpdatedAt:   updated,
		Stars:       r.StargazersCount,
		Forks:       r.ForksCount,
	}, nil
}

func withRepoID(err error, id int64) error {
	var tsErr *custom_errors.MalformedTimestampError
	if errors.As(err, &tsErr) {
		tsErr.RepoID = id
	}
	return err
}
