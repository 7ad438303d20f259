/**
 * @description
 * This file contains the approval/decline engine, the transactional core of
 * the membership lifecycle. Approve validates the current membership state,
 * issues a single-use invite, activates the record, and drives notifications;
 * Decline removes the record and notifies. Every failure is handled here:
 * the approver is told what failed, and nothing propagates to the caller.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nahomkasa999/MatuTG/internal/config"
	"github.com/nahomkasa999/MatuTG/internal/domain"
	"github.com/nahomkasa999/MatuTG/internal/store"
	"github.com/nahomkasa999/MatuTG/pkg/telegramclient"
)

// dateLayout renders expiry dates in user-facing messages.
const dateLayout = "02 Jan 2006"

// Repository defines the store operations the engine needs.
type Repository interface {
	FindActive(ctx context.Context, userID string) (*domain.Member, error)
	Activate(ctx context.Context, m *domain.Member) (*domain.Member, error)
	Delete(ctx context.Context, userID string) error
}

// ChannelProvider creates invite links for the paid channel.
type ChannelProvider interface {
	CreateChatInviteLink(ctx context.Context, chatID, name string, expireAt time.Time) (string, error)
}

// EventPublisher publishes membership lifecycle events. A nil publisher
// disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// Service is the approval/decline engine.
type Service struct {
	repo     Repository
	channel  ChannelProvider
	notifier *Notifier
	events   EventPublisher
	cfg      config.Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new engine.
func NewService(repo Repository, channel ChannelProvider, notifier *Notifier, events EventPublisher, cfg config.Config, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		channel:  channel,
		notifier: notifier,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Approve grants channel access to a user whose payment the approver has
// verified. Re-approving a user whose membership is still active is a no-op
// that must not issue a second invite or move the expiry.
func (s *Service) Approve(ctx context.Context, userID string, prompt *PromptRef) {
	now := s.now()

	existing, err := s.repo.FindActive(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.reportApprovalFailure(ctx, userID, prompt, err)
		return
	}
	if err == nil && existing.IsActive(now) {
		s.handleAlreadyActive(ctx, userID, prompt, existing.ExpiresAt)
		return
	}

	linkName := fmt.Sprintf("Access for user %s", userID)
	inviteLink, err := s.channel.CreateChatInviteLink(ctx, s.cfg.ChannelID, linkName, now.Add(s.cfg.InviteTTL))
	if err != nil {
		s.reportApprovalFailure(ctx, userID, prompt, err)
		return
	}

	member := &domain.Member{
		UserID:    userID,
		Status:    domain.StatusActive,
		ExpiresAt: domain.NextExpiry(now),
		JoinedAt:  now,
	}
	granted, err := s.repo.Activate(ctx, member)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyActive) {
			// Lost a race against a concurrent approval. The first grant's
			// expiry stands; the invite link just issued is single-use and
			// short-lived, so it is left to lapse on its own.
			expiry := member.ExpiresAt
			if current, findErr := s.repo.FindActive(ctx, userID); findErr == nil {
				expiry = current.ExpiresAt
			}
			s.handleAlreadyActive(ctx, userID, prompt, expiry)
			return
		}
		s.reportApprovalFailure(ctx, userID, prompt, err)
		return
	}

	escapedExpiry := telegramclient.EscapeMarkdown(granted.ExpiresAt.Format(dateLayout))
	userMessage := fmt.Sprintf(
		"Your payment has been verified! You can now join the Matu Channel using this one-time link:\n%s\nYour access will expire on *%s*. Thank you for choosing us!",
		inviteLink, escapedExpiry,
	)
	if err := s.notifier.SendMarkdownToUser(ctx, userID, userMessage); err != nil {
		s.reportApprovalFailure(ctx, userID, prompt, err)
		return
	}

	confirmation := fmt.Sprintf(
		"Invite link for user %s generated and sent: %s\nAccess expires on: %s",
		userID, inviteLink, escapedExpiry,
	)
	s.notifier.ReportToApprover(ctx, s.cfg.AdminChatID, prompt, confirmation, "APPROVED ✅")
	s.logger.Info("membership approved", "user_id", userID, "expires_at", granted.ExpiresAt)

	s.publish(ctx, domain.EventMemberApproved, domain.MemberEvent{
		UserID:     userID,
		Status:     string(domain.StatusActive),
		ExpiresAt:  &granted.ExpiresAt,
		OccurredAt: now,
	})
}

// Decline rejects a user's payment submission. Any existing membership row
// is removed; absence is not an error.
func (s *Service) Decline(ctx context.Context, userID string, prompt *PromptRef) {
	now := s.now()

	if err := s.repo.Delete(ctx, userID); err != nil {
		s.reportDeclineFailure(ctx, userID, prompt, err)
		return
	}

	rejection := fmt.Sprintf(
		"We regret to inform you that your payment could not be verified. Please ensure you have sent the correct payment confirmation screenshot or contact support.\n%s",
		s.cfg.SupportContact,
	)
	if err := s.notifier.SendToUser(ctx, userID, rejection); err != nil {
		s.reportDeclineFailure(ctx, userID, prompt, err)
		return
	}

	confirmation := fmt.Sprintf("User %s has been declined.", userID)
	s.notifier.ReportToApprover(ctx, s.cfg.AdminChatID, prompt, confirmation, "DECLINED ❌")
	s.logger.Info("membership declined", "user_id", userID)

	s.publish(ctx, domain.EventMemberDeclined, domain.MemberEvent{
		UserID:     userID,
		Status:     "declined",
		OccurredAt: now,
	})
}

// handleAlreadyActive is the idempotency branch: the user already holds an
// unexpired grant, so no invite is issued and no state moves.
func (s *Service) handleAlreadyActive(ctx context.Context, userID string, prompt *PromptRef, expiresAt time.Time) {
	escapedExpiry := telegramclient.EscapeMarkdown(expiresAt.Format(dateLayout))

	notification := fmt.Sprintf(
		"User %s already has an active subscription expiring on %s. No new invite link generated.",
		userID, escapedExpiry,
	)
	s.notifier.ReportToApprover(ctx, s.cfg.AdminChatID, prompt, notification, "ALREADY ACTIVE")

	s.notifier.BestEffortSendMarkdown(ctx, userID, fmt.Sprintf(
		"It seems your subscription to the Matu Channel is still active and expires on *%s*. If you believe this is an error, please contact support: %s",
		escapedExpiry, s.cfg.SupportContact,
	))
}

func (s *Service) reportApprovalFailure(ctx context.Context, userID string, prompt *PromptRef, err error) {
	s.logger.Error("failed to approve user", "user_id", userID, "error", err)
	text := fmt.Sprintf("Failed to approve user %s. Error: %v", userID, err)
	s.notifier.ReportToApprover(ctx, s.cfg.AdminChatID, prompt, text, "APPROVAL FAILED ❌")
}

func (s *Service) reportDeclineFailure(ctx context.Context, userID string, prompt *PromptRef, err error) {
	s.logger.Error("failed to decline user", "user_id", userID, "error", err)
	text := fmt.Sprintf("Failed to decline user %s. Error: %v", userID, err)
	s.notifier.ReportToApprover(ctx, s.cfg.AdminChatID, prompt, text, "DECLINE FAILED ❌")
}

func (s *Service) publish(ctx context.Context, routingKey string, event domain.MemberEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		s.logger.Warn("failed to publish membership event", "routing_key", routingKey, "error", err)
	}
}
