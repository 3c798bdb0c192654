// Package gauth resolves Google OAuth2 token sources per user. Token refresh is
// left to golang.org/x/oauth2; this package only decides where tokens come from.
package gauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

var (
	ErrNoCredentials      = errors.New("gauth: no credentials for user")
	ErrUnsupportedKeyType = errors.New("gauth: unsupported credentials format")
)

// Resolver returns a token source for a user.
type Resolver interface {
	TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error)
}

// Options configures NewResolver.
type Options struct {
	// TokenDir holds one <user>.json OAuth token per user (Desktop/Web credentials).
	TokenDir string
	// Impersonate sets the service account subject to the user id (domain-wide delegation).
	Impersonate bool
	Scopes      []string
}

// NewResolverFromFile reads a credentials file and builds a Resolver for it.
func NewResolverFromFile(path string, opt Options) (Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gauth: read credentials: %w", err)
	}
	return NewResolver(data, opt)
}

// NewResolver picks a service account resolver when the JSON is a service
// account key and a token directory resolver for OAuth client credentials.
func NewResolver(credentialsJSON []byte, opt Options) (Resolver, error) {
	if cfg, err := google.JWTConfigFromJSON(credentialsJSON, opt.Scopes...); err == nil {
		return &serviceAccountResolver{cfg: cfg, impersonate: opt.Impersonate}, nil
	}

	cfg, err := google.ConfigFromJSON(credentialsJSON, opt.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKeyType, err)
	}
	if opt.TokenDir == "" {
		return nil, fmt.Errorf("gauth: token dir is required for OAuth client credentials")
	}
	return &tokenDirResolver{cfg: cfg, dir: opt.TokenDir}, nil
}

type serviceAccountResolver struct {
	cfg         *jwt.Config
	impersonate bool
}

func (r *serviceAccountResolver) TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error) {
	cfg := *r.cfg
	if r.impersonate {
		cfg.Subject = userID
	}
	return cfg.TokenSource(ctx), nil
}

type tokenDirResolver struct {
	cfg *oauth2.Config
	dir string
}

func (r *tokenDirResolver) TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error) {
	tok, err := LoadToken(r.dir, userID)
	if err != nil {
		return nil, err
	}
	return r.cfg.TokenSource(ctx, tok), nil
}

// StaticResolver serves one token source to every user. Used for single-user
// deployments and tests.
type StaticResolver struct {
	Source oauth2.TokenSource
}

func (r StaticResolver) TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error) {
	if r.Source == nil {
		return nil, ErrNoCredentials
	}
	return r.Source, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._@-]`)

// TokenPath returns the token file of userID inside dir.
func TokenPath(dir, userID string) string {
	return filepath.Join(dir, unsafeChars.ReplaceAllString(userID, "_")+".json")
}

// LoadToken reads the stored token of userID.
func LoadToken(dir, userID string) (*oauth2.Token, error) {
	data, err := os.ReadFile(TokenPath(dir, userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoCredentials, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("gauth: read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("gauth: parse token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok for userID with owner-only permissions.
func SaveToken(dir, userID string, tok *oauth2.Token) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("gauth: create token dir: %w", err)
	}
	f, err := os.OpenFile(TokenPath(dir, userID), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("gauth: create token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("gauth: write token: %w", err)
	}
	return nil
}
