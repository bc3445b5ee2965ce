package grant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-webauth/core"
)

const (
	defaultTokenRequestTimeout = 30 * time.Second
	maxTokenResponseBodyBytes  = 1 << 20 // 1 MiB
)

type PKCEConfig struct {
	ClientID    string
	RedirectURI string
	TokenURL    string
	// Verifier is generated when empty. It never leaves the process; only
	// the derived S256 challenge is sent in the authorize URL.
	Verifier   string
	HTTPClient core.HTTPDoer
	Timeout    time.Duration
	Now        func() time.Time
}

// PKCE implements the authorization-code grant with Proof Key for Code
// Exchange. The verifier is fixed at construction so the challenge sent in
// the authorize URL and the verifier sent to the token endpoint always pair.
type PKCE struct {
	cfg        PKCEConfig
	challenge  string
	httpClient core.HTTPDoer
}

type tokenEndpointPayload struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	IDToken          string `json:"id_token"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
	ExpiresIn        int64  `json:"expires_in"`
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func NewPKCE(cfg PKCEConfig) (*PKCE, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.RedirectURI = strings.TrimSpace(cfg.RedirectURI)
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("grant: pkce client id is required")
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("grant: pkce redirect uri is required")
	}
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("grant: pkce token url is required")
	}
	if cfg.Verifier == "" {
		verifier, err := core.RandomVerifier()
		if err != nil {
			return nil, err
		}
		cfg.Verifier = verifier
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTokenRequestTimeout
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &PKCE{
		cfg:        cfg,
		challenge:  core.Challenge(cfg.Verifier),
		httpClient: httpClient,
	}, nil
}

func (g *PKCE) Defaults() []core.Param {
	return []core.Param{
		{Key: "response_type", Value: "code"},
		{Key: "code_challenge", Value: g.challenge},
		{Key: "code_challenge_method", Value: "S256"},
	}
}

func (g *PKCE) Verifier() string {
	if g == nil {
		return ""
	}
	return g.cfg.Verifier
}

func (g *PKCE) Challenge() string {
	if g == nil {
		return ""
	}
	return g.challenge
}

// Exchange trades the authorization code plus the stored verifier for
// credentials at the token endpoint.
func (g *PKCE) Exchange(ctx context.Context, values map[string]string) (*core.Credentials, error) {
	code := readValue(values, "code")
	if code == "" {
		return nil, core.NewInvalidResponseError(encodeValues(values))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     g.cfg.ClientID,
		"code":          code,
		"code_verifier": g.cfg.Verifier,
		"redirect_uri":  g.cfg.RedirectURI,
	})
	if err != nil {
		return nil, core.NewRequestFailedError(err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, core.NewRequestFailedError(err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := g.httpClient.Do(request)
	if err != nil {
		return nil, core.NewRequestFailedError(err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxTokenResponseBodyBytes))
	if err != nil {
		return nil, core.NewRequestFailedError(err)
	}

	var token tokenEndpointPayload
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, core.NewInvalidResponseError(raw)
	}
	if token.ErrorCode != "" {
		return nil, core.NewServerError(token.ErrorCode, token.ErrorDescription, nil)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, core.NewRequestFailedError(
			fmt.Errorf("grant: token endpoint returned status %d", response.StatusCode),
		)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, core.NewInvalidResponseError(raw)
	}

	creds := &core.Credentials{
		AccessToken:  strings.TrimSpace(token.AccessToken),
		TokenType:    strings.TrimSpace(token.TokenType),
		IDToken:      strings.TrimSpace(token.IDToken),
		RefreshToken: strings.TrimSpace(token.RefreshToken),
		Scope:        strings.TrimSpace(token.Scope),
	}
	if token.ExpiresIn > 0 {
		creds.ExpiresAt = g.cfg.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return creds, nil
}

var _ core.GrantHandler = (*PKCE)(nil)
