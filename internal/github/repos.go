package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Last-emo-boy/github-bot/internal/errors"
	"github.com/Last-emo-boy/github-bot/internal/models"
	"github.com/Last-emo-boy/github-bot/internal/store"
)

// Lister queries the authenticated user's repositories. Tokens are read from
// the store per call and never cached here.
type Lister struct {
	tokens  store.TokenStore
	baseURL string
	client  *http.Client
}

// ListerOptions configures a Lister.
type ListerOptions struct {
	// BaseURL overrides the GitHub API base, for tests.
	BaseURL string
	// HTTPClient overrides the outbound client.
	HTTPClient *http.Client
	// Timeout applies when no HTTPClient is given.
	Timeout time.Duration
}

const defaultAPIBaseURL = "https://api.github.com"

// NewLister creates a repository lister backed by the given token store.
func NewLister(tokens store.TokenStore, opts *ListerOptions) *Lister {
	l := &Lister{
		tokens:  tokens,
		baseURL: defaultAPIBaseURL,
	}

	timeout := 15 * time.Second
	if opts != nil {
		if opts.BaseURL != "" {
			l.baseURL = strings.TrimRight(opts.BaseURL, "/")
		}
		if opts.HTTPClient != nil {
			l.client = opts.HTTPClient
		}
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
	}
	if l.client == nil {
		l.client = NewHTTPClient(timeout)
	}

	return l
}

// ListRepos returns the full names (owner/name) of the identity's
// repositories in the order GitHub returns them. Pagination is not followed;
// only the first page is reported.
func (l *Lister) ListRepos(ctx context.Context, identity models.CallerIdentity) ([]string, error) {
	token, ok := l.tokens.Get(identity)
	if !ok {
		return nil, &errors.ErrUnauthorized{Identity: identity.String()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/user/repos", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+string(token))
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &errors.ErrUpstreamUnavailable{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Error bodies are not guaranteed to be JSON; forward the raw text.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &errors.ErrUpstreamStatus{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var repos []models.Repository
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, &errors.ErrUpstreamUnavailable{Err: err}
	}

	names := make([]string, 0, len(repos))
	for _, repo := range repos {
		names = append(names, repo.FullName)
	}
	return names, nil
}
