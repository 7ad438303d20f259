/**
 * @description
 * The expiry sweep. On every run it queries for active memberships whose
 * expiry has passed, removes each from the channel, and reconciles the store
 * record. Members are processed independently: one failure never aborts the
 * rest of the pass, and a failed removal stays active so the next cycle
 * retries it.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nahomkasa999/MatuTG/internal/config"
	"github.com/nahomkasa999/MatuTG/internal/domain"
	"github.com/nahomkasa999/MatuTG/pkg/telegramclient"
)

// SweepRepository defines the store operations the sweep needs.
type SweepRepository interface {
	FindLapsed(ctx context.Context, now time.Time) ([]domain.Member, error)
	MarkExpired(ctx context.Context, userID string) error
}

// ChannelModerator removes members from the paid channel.
type ChannelModerator interface {
	BanChatMember(ctx context.Context, chatID, userID string) error
}

// Sweeper revokes access for lapsed memberships.
type Sweeper struct {
	repo     SweepRepository
	channel  ChannelModerator
	notifier *Notifier
	events   EventPublisher
	cfg      config.Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper creates a new sweeper.
func NewSweeper(repo SweepRepository, channel ChannelModerator, notifier *Notifier, events EventPublisher, cfg config.Config, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		channel:  channel,
		notifier: notifier,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// RemoveExpiredMembers runs one sweep pass. It never fails the process: a
// store query error is logged and the pass is retried on the next cycle.
func (s *Sweeper) RemoveExpiredMembers() {
	ctx := context.Background()
	now := s.now()

	lapsed, err := s.repo.FindLapsed(ctx, now)
	if err != nil {
		s.logger.Error("failed to query lapsed members", "error", err)
		return
	}
	if len(lapsed) == 0 {
		return
	}
	s.logger.Info("found lapsed members", "count", len(lapsed))

	for _, m := range lapsed {
		err := s.channel.BanChatMember(ctx, s.cfg.ChannelID, m.UserID)
		switch {
		case err == nil:
			if err := s.repo.MarkExpired(ctx, m.UserID); err != nil {
				s.logger.Error("failed to record expiry", "user_id", m.UserID, "error", err)
				continue
			}
			s.notifier.BestEffortSend(ctx, m.UserID, fmt.Sprintf(
				"Your access to the Matu Channel has expired. Please contact us to renew your membership: %s",
				s.cfg.SupportContact,
			))
		case telegramclient.IsNotMember(err):
			// Already gone from the channel; reconcile the record anyway.
			if err := s.repo.MarkExpired(ctx, m.UserID); err != nil {
				s.logger.Error("failed to record expiry", "user_id", m.UserID, "error", err)
				continue
			}
		default:
			// Leave the row active so the next sweep retries. A permission
			// error here usually means the bot lost its ban rights.
			s.logger.Error("failed to remove lapsed member", "user_id", m.UserID, "error", err)
			continue
		}

		s.logger.Info("membership expired", "user_id", m.UserID)
		s.publishExpired(ctx, m, now)
	}
}

func (s *Sweeper) publishExpired(ctx context.Context, m domain.Member, now time.Time) {
	if s.events == nil {
		return
	}
	event := domain.MemberEvent{
		UserID:     m.UserID,
		Status:     string(domain.StatusExpired),
		ExpiresAt:  &m.ExpiresAt,
		OccurredAt: now,
	}
	if err := s.events.Publish(ctx, domain.EventMemberExpired, event); err != nil {
		s.logger.Warn("failed to publish membership event", "routing_key", domain.EventMemberExpired, "error", err)
	}
}
