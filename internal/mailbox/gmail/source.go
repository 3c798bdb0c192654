package gmail

import (
	"context"
	"fmt"
	"sort"

	"intelligent-scheduler/internal/mailbox"
	"intelligent-scheduler/internal/mailbox/repository"
	pkgGmail "intelligent-scheduler/pkg/gmail"
)

func (s *implSource) FetchUnprocessed(ctx context.Context, userID string) ([]mailbox.Message, error) {
	client, err := s.client(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids, err := client.ListMessageIDs(ctx, pkgGmail.ListRequest{Query: s.query, MaxResults: s.max})
	if err != nil {
		s.l.Warnf(ctx, "mailbox.gmail.FetchUnprocessed: list: %v", err)
		return nil, fmt.Errorf("%w: %v", mailbox.ErrMailboxUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seen, err := s.repo.Processed(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	var out []mailbox.Message
	for _, id := range ids {
		if seen[id] {
			continue
		}
		m, err := client.GetMessage(ctx, id)
		if err != nil {
			s.l.Warnf(ctx, "mailbox.gmail.FetchUnprocessed: get %s: %v", id, err)
			return nil, fmt.Errorf("%w: %v", mailbox.ErrMailboxUnavailable, err)
		}
		out = append(out, mailbox.Message{
			ID:         m.ID,
			From:       m.From,
			Subject:    m.Subject,
			Body:       m.Body,
			ReceivedAt: m.ReceivedAt,
		})
	}

	// Gmail lists newest first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	return out, nil
}

func (s *implSource) MarkProcessed(ctx context.Context, in mailbox.MarkProcessedInput) error {
	return s.repo.MarkProcessed(ctx, repository.MarkProcessedOptions{
		UserID:       in.UserID,
		RunID:        in.RunID,
		MessageIDs:   in.MessageIDs,
		TasksCreated: in.TasksCreated,
	})
}

func (s *implSource) client(ctx context.Context, userID string) (*pkgGmail.Client, error) {
	if c, ok := s.clients.Get(userID); ok {
		return c, nil
	}
	ts, err := s.resolver.TokenSource(ctx, userID)
	if err != nil {
		s.l.Errorf(ctx, "mailbox.gmail.client: resolve token for %s: %v", userID, err)
		return nil, fmt.Errorf("%w: %v", mailbox.ErrMailboxUnavailable, err)
	}
	c, err := s.newClient(ctx, ts)
	if err != nil {
		s.l.Errorf(ctx, "mailbox.gmail.client: %v", err)
		return nil, fmt.Errorf("%w: %v", mailbox.ErrMailboxUnavailable, err)
	}
	s.clients.Add(userID, c)
	return c, nil
}
