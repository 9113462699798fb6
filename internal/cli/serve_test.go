package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Last-emo-boy/github-bot/internal/github"
	"github.com/Last-emo-boy/github-bot/internal/metrics"
	"github.com/Last-emo-boy/github-bot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherMetrics(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return w.Body.String()
}

func TestListReposWithMetrics(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"full_name":"octocat/hello-world"}]`))
	}))
	defer apiServer.Close()

	tokens := store.NewMemoryTokenStore()
	tokens.Put("12345", "gho_abc123")

	lister := github.NewLister(tokens, &github.ListerOptions{BaseURL: apiServer.URL})
	m := metrics.NewMetrics("githubbot")
	listRepos := listReposWithMetrics(lister, m)

	repos, err := listRepos(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, []string{"octocat/hello-world"}, repos)

	// An identity without a stored token counts as unauthorized
	_, err = listRepos(context.Background(), "99999")
	require.Error(t, err)

	body := gatherMetrics(t, m)
	assert.Contains(t, body, `githubbot_repo_listings_total{outcome="success"} 1`)
	assert.Contains(t, body, `githubbot_repo_listings_total{outcome="unauthorized"} 1`)
}

func TestListReposWithMetricsUpstreamError(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Bad credentials"))
	}))
	defer apiServer.Close()

	tokens := store.NewMemoryTokenStore()
	tokens.Put("12345", "gho_stale")

	m := metrics.NewMetrics("githubbot")
	listRepos := listReposWithMetrics(github.NewLister(tokens, &github.ListerOptions{BaseURL: apiServer.URL}), m)

	_, err := listRepos(context.Background(), "12345")
	require.Error(t, err)

	assert.Contains(t, gatherMetrics(t, m), `githubbot_repo_listings_total{outcome="error"} 1`)
}
