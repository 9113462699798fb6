package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Last-emo-boy/github-bot/internal/errors"
	"github.com/Last-emo-boy/github-bot/internal/models"
)

// Exchanger swaps OAuth authorization codes for access tokens. It is
// stateless: storing the resulting token is the caller's responsibility,
// which keeps the exchange testable against a mock endpoint.
type Exchanger struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	authorizeURL string
	client       *http.Client
}

// ExchangerOptions configures an Exchanger beyond the OAuth app credentials.
type ExchangerOptions struct {
	// TokenURL overrides the GitHub token endpoint, for tests.
	TokenURL string
	// AuthorizeURL overrides the GitHub authorization page, for tests.
	AuthorizeURL string
	// HTTPClient overrides the outbound client.
	HTTPClient *http.Client
	// Timeout applies when no HTTPClient is given.
	Timeout time.Duration
}

const (
	defaultTokenURL     = "https://github.com/login/oauth/access_token"
	defaultAuthorizeURL = "https://github.com/login/oauth/authorize"
)

// NewExchanger creates an OAuth exchange client for one GitHub OAuth App.
func NewExchanger(clientID, clientSecret, redirectURI string, opts *ExchangerOptions) *Exchanger {
	e := &Exchanger{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenURL:     defaultTokenURL,
		authorizeURL: defaultAuthorizeURL,
	}

	timeout := 15 * time.Second
	if opts != nil {
		if opts.TokenURL != "" {
			e.tokenURL = opts.TokenURL
		}
		if opts.AuthorizeURL != "" {
			e.authorizeURL = opts.AuthorizeURL
		}
		if opts.HTTPClient != nil {
			e.client = opts.HTTPClient
		}
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
	}
	if e.client == nil {
		e.client = NewHTTPClient(timeout)
	}

	return e
}

// AuthorizeURL builds the authorization link a user follows to grant access.
// The identity rides along as the state parameter and comes back on the
// callback, where it keys the token store.
func (e *Exchanger) AuthorizeURL(identity models.CallerIdentity) string {
	q := url.Values{}
	q.Set("client_id", e.clientID)
	q.Set("redirect_uri", e.redirectURI)
	q.Set("state", identity.String())
	return e.authorizeURL + "?" + q.Encode()
}

// tokenResponse is the provider's answer to a code exchange. On rejection
// access_token is absent and error_description explains why.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ErrorDescription string `json:"error_description"`
}

// Exchange swaps an authorization code for an access token. Both code and
// state must be non-empty; state is validated here because an empty identity
// would make the token unaddressable.
func (e *Exchanger) Exchange(ctx context.Context, code string, state models.CallerIdentity) (models.AccessToken, error) {
	if strings.TrimSpace(code) == "" {
		return "", &errors.ErrMissingParameter{Name: "code"}
	}
	if !state.Valid() {
		return "", &errors.ErrMissingParameter{Name: "state"}
	}

	form := url.Values{}
	form.Set("client_id", e.clientID)
	form.Set("client_secret", e.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", e.redirectURI)
	form.Set("state", state.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &errors.ErrUpstreamUnavailable{Err: err}
	}
	defer resp.Body.Close()

	var result tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &errors.ErrUpstreamUnavailable{Err: err}
	}

	if result.AccessToken == "" {
		desc := result.ErrorDescription
		if desc == "" {
			desc = "unknown error"
		}
		return "", &errors.ErrAuthorizationDenied{Description: desc}
	}

	return models.AccessToken(result.AccessToken), nil
}
