// Package google implements the calendar capability on top of Google Calendar,
// one API client per user.
package google

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/oauth2"

	"intelligent-scheduler/internal/calendar"
	"intelligent-scheduler/pkg/gauth"
	"intelligent-scheduler/pkg/gcalendar"
	"intelligent-scheduler/pkg/log"
)

const (
	defaultClientCacheSize = 500
	defaultClientTTL       = 30 * time.Minute
)

// ClientFactory builds a Calendar API client from a user's token source.
type ClientFactory func(ctx context.Context, ts oauth2.TokenSource) (*gcalendar.Client, error)

type Options struct {
	CalendarID string
	Timezone   string
	CacheSize  int
	ClientTTL  time.Duration
	NewClient  ClientFactory
}

type implCalendar struct {
	l          log.Logger
	resolver   gauth.Resolver
	newClient  ClientFactory
	clients    *expirable.LRU[string, *gcalendar.Client]
	calendarID string
	timezone   string
}

var _ calendar.Calendar = (*implCalendar)(nil)

// New returns a Calendar backed by Google Calendar.
func New(l log.Logger, resolver gauth.Resolver, opt Options) calendar.Calendar {
	if opt.CacheSize <= 0 {
		opt.CacheSize = defaultClientCacheSize
	}
	if opt.ClientTTL <= 0 {
		opt.ClientTTL = defaultClientTTL
	}
	if opt.NewClient == nil {
		opt.NewClient = gcalendar.NewClientFromTokenSource
	}
	return &implCalendar{
		l:          l,
		resolver:   resolver,
		newClient:  opt.NewClient,
		clients:    expirable.NewLRU[string, *gcalendar.Client](opt.CacheSize, nil, opt.ClientTTL),
		calendarID: opt.CalendarID,
		timezone:   opt.Timezone,
	}
}
