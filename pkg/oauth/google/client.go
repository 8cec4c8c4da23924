// Package google implements the OpenID Connect authorization code flow against
// Google accounts.
package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/storedash-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
)

const (
	discoveryCacheKey = "discovery"
	jwksCacheKey      = "jwks"

	discoveryTTL = 24 * time.Hour
	jwksTTL      = time.Hour
	clockSkew    = 30 * time.Second
)

var (
	defaultScopes = []string{"openid", "email", "profile"}

	// ErrKeyNotFound is returned when the ID token names a kid missing from the JWKS.
	ErrKeyNotFound = errors.New("signing key not found")
	// ErrInvalidIDToken wraps every ID token verification failure.
	ErrInvalidIDToken = errors.New("invalid id token")
)

type discoveryDoc struct {
	Issuer        string `json:"issuer"`
	AuthEndpoint  string `json:"authorization_endpoint"`
	TokenEndpoint string `json:"token_endpoint"`
	JWKSURI       string `json:"jwks_uri"`
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// TokenResponse is the token endpoint reply for an authorization code.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// IDClaims holds the verified identity fields of a Google ID token.
type IDClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Nonce         string `json:"nonce"`
	jwt.RegisteredClaims
}

// Client talks to the provider. Discovery and JWKS documents are cached in
// process and refreshed when they expire.
type Client struct {
	clientID     string
	clientSecret string
	redirectURL  string
	discoveryURL string
	scopes       []string

	http  *http.Client
	cache *cache.Cache
	now   func() time.Time
}

// New builds a provider client from configuration.
func New(cfg config.GoogleConfig) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, fmt.Errorf("google client id, secret and redirect url are required")
	}
	if cfg.DiscoveryURL == "" {
		return nil, fmt.Errorf("google discovery url is required")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURL:  cfg.RedirectURL,
		discoveryURL: cfg.DiscoveryURL,
		scopes:       defaultScopes,
		http:         &http.Client{Timeout: timeout},
		cache:        cache.New(jwksTTL, 2*jwksTTL),
		now:          time.Now,
	}, nil
}

// AuthURL builds the consent screen URL carrying state and nonce.
func (c *Client) AuthURL(ctx context.Context, state, nonce string) (string, error) {
	disc, err := c.discovery(ctx)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(disc.AuthEndpoint)
	if err != nil {
		return "", fmt.Errorf("parse authorization endpoint: %w", err)
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("scope", strings.Join(c.scopes, " "))
	q.Set("state", state)
	q.Set("nonce", nonce)
	q.Set("prompt", "select_account")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	disc, err := c.discovery(ctx)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("redirect_uri", c.redirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, disc.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var body struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("token http %d: %s %s", resp.StatusCode, body.Error, body.ErrorDescription)
	}

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.IDToken == "" {
		return nil, fmt.Errorf("token response missing id_token")
	}
	return &tr, nil
}

// VerifyIDToken checks the RS256 signature, issuer, audience, expiry and nonce.
func (c *Client) VerifyIDToken(ctx context.Context, idToken, expectedNonce string) (*IDClaims, error) {
	disc, err := c.discovery(ctx)
	if err != nil {
		return nil, err
	}

	claims := &IDClaims{}
	_, err = jwt.ParseWithClaims(
		idToken,
		claims,
		func(token *jwt.Token) (any, error) {
			kid, _ := token.Header["kid"].(string)
			return c.keyForKid(ctx, disc.JWKSURI, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(c.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if !validIssuer(claims.Issuer, disc.Issuer) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidIDToken, claims.Issuer)
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return nil, fmt.Errorf("%w: nonce mismatch", ErrInvalidIDToken)
	}
	return claims, nil
}

// Google issues tokens with and without the scheme.
func validIssuer(got, want string) bool {
	if got == want {
		return true
	}
	return strings.TrimPrefix(got, "https://") == strings.TrimPrefix(want, "https://")
}

func (c *Client) discovery(ctx context.Context) (*discoveryDoc, error) {
	if cached, ok := c.cache.Get(discoveryCacheKey); ok {
		return cached.(*discoveryDoc), nil
	}
	var doc discoveryDoc
	if err := c.getJSON(ctx, c.discoveryURL, &doc); err != nil {
		return nil, fmt.Errorf("fetch discovery: %w", err)
	}
	if doc.AuthEndpoint == "" || doc.TokenEndpoint == "" || doc.JWKSURI == "" {
		return nil, fmt.Errorf("discovery document incomplete")
	}
	c.cache.Set(discoveryCacheKey, &doc, discoveryTTL)
	return &doc, nil
}

func (c *Client) jwks(ctx context.Context, uri string, refresh bool) (*jwkSet, error) {
	if !refresh {
		if cached, ok := c.cache.Get(jwksCacheKey); ok {
			return cached.(*jwkSet), nil
		}
	}
	var set jwkSet
	if err := c.getJSON(ctx, uri, &set); err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	c.cache.Set(jwksCacheKey, &set, jwksTTL)
	return &set, nil
}

// keyForKid looks the kid up in the cached set and refetches once on a miss
// so provider key rotation is picked up.
func (c *Client) keyForKid(ctx context.Context, uri, kid string) (*rsa.PublicKey, error) {
	for _, refresh := range []bool{false, true} {
		set, err := c.jwks(ctx, uri, refresh)
		if err != nil {
			return nil, err
		}
		for _, k := range set.Keys {
			if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
				return rsaPublicKey(k)
			}
		}
	}
	return nil, ErrKeyNotFound
}

func rsaPublicKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	e := 65537
	if len(eb) > 0 {
		e = 0
		for _, b := range eb {
			e = e<<8 | int(b)
		}
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}

func (c *Client) getJSON(ctx context.Context, uri string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
