// Package gmail implements the mailbox source on top of the Gmail API.
package gmail

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/oauth2"

	"intelligent-scheduler/internal/mailbox"
	"intelligent-scheduler/internal/mailbox/repository"
	"intelligent-scheduler/pkg/gauth"
	pkgGmail "intelligent-scheduler/pkg/gmail"
	pkgLog "intelligent-scheduler/pkg/log"
)

const (
	DefaultQuery       = "is:unread newer_than:1d"
	DefaultMaxMessages = 3

	clientCacheSize = 500
	clientTTL       = 30 * time.Minute
)

// ClientFactory builds a Gmail client from a user's token source.
type ClientFactory func(ctx context.Context, ts oauth2.TokenSource) (*pkgGmail.Client, error)

type Options struct {
	Query       string
	MaxMessages int64
	NewClient   ClientFactory
}

type implSource struct {
	l         pkgLog.Logger
	resolver  gauth.Resolver
	repo      repository.Repository
	newClient ClientFactory
	clients   *expirable.LRU[string, *pkgGmail.Client]
	query     string
	max       int64
}

var _ mailbox.Source = (*implSource)(nil)

// New returns a Gmail-backed mailbox source.
func New(l pkgLog.Logger, resolver gauth.Resolver, repo repository.Repository, opt Options) mailbox.Source {
	if opt.Query == "" {
		opt.Query = DefaultQuery
	}
	if opt.MaxMessages <= 0 {
		opt.MaxMessages = DefaultMaxMessages
	}
	if opt.NewClient == nil {
		opt.NewClient = pkgGmail.NewClientFromTokenSource
	}
	return &implSource{
		l:         l,
		resolver:  resolver,
		repo:      repo,
		newClient: opt.NewClient,
		clients:   expirable.NewLRU[string, *pkgGmail.Client](clientCacheSize, nil, clientTTL),
		query:     opt.Query,
		max:       opt.MaxMessages,
	}
}
