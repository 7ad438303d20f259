/**
 * @description
 * Notification dispatch for membership lifecycle outcomes. The Notifier is
 * the only component that talks to the messaging transport on behalf of the
 * approval engine and the expiry sweep. It owns the edit-in-place handling
 * for review prompts and the best-effort delivery policy for messages whose
 * failure must not affect state correctness.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nahomkasa999/MatuTG/pkg/telegramclient"
)

// Messenger defines the transport operations the dispatcher needs.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string) error
	SendMarkdownMessage(ctx context.Context, chatID, text string) error
	EditMessageCaption(ctx context.Context, chatID string, messageID int64, caption string) error
	ClearReplyMarkup(ctx context.Context, chatID string, messageID int64) error
}

// PromptRef identifies the review prompt a decision was taken from, so the
// outcome can be written back into that message instead of a new one.
type PromptRef struct {
	ChatID    string
	MessageID int64
}

// Notifier sends lifecycle outcomes to requesters and the approver.
type Notifier struct {
	msg    Messenger
	logger *slog.Logger
}

// NewNotifier creates a new notifier.
func NewNotifier(msg Messenger, logger *slog.Logger) *Notifier {
	return &Notifier{msg: msg, logger: logger}
}

// SendToUser delivers a plain text message to a user and reports failure to
// the caller, for sends whose failure the approver must hear about.
func (n *Notifier) SendToUser(ctx context.Context, userID, text string) error {
	return n.msg.SendMessage(ctx, userID, text)
}

// SendMarkdownToUser delivers a Markdown message to a user and reports
// failure to the caller.
func (n *Notifier) SendMarkdownToUser(ctx context.Context, userID, text string) error {
	return n.msg.SendMarkdownMessage(ctx, userID, text)
}

// BestEffortSend delivers a plain text message and swallows any failure
// after one attempt. Users who have blocked the bot land here.
func (n *Notifier) BestEffortSend(ctx context.Context, userID, text string) {
	if err := n.msg.SendMessage(ctx, userID, text); err != nil {
		n.logger.Warn("best-effort notification not delivered", "user_id", userID, "error", err)
	}
}

// BestEffortSendMarkdown is BestEffortSend with Markdown rendering.
func (n *Notifier) BestEffortSendMarkdown(ctx context.Context, userID, text string) {
	if err := n.msg.SendMarkdownMessage(ctx, userID, text); err != nil {
		n.logger.Warn("best-effort notification not delivered", "user_id", userID, "error", err)
	}
}

// ReportToApprover reflects a decision outcome in the approver's view. When
// the decision came from a review prompt, the prompt's caption is rewritten
// with a status line and its buttons are removed so the action reads as
// consumed; otherwise a fresh message is sent. A redundant edit (content
// already identical) is a benign no-op.
func (n *Notifier) ReportToApprover(ctx context.Context, adminChatID string, prompt *PromptRef, text, status string) {
	if prompt == nil {
		if err := n.msg.SendMessage(ctx, adminChatID, text); err != nil {
			n.logger.Error("failed to notify approver", "error", err)
		}
		return
	}

	caption := fmt.Sprintf("%s\n\n*STATUS: %s*", text, status)
	if err := n.msg.EditMessageCaption(ctx, prompt.ChatID, prompt.MessageID, caption); err != nil {
		if !telegramclient.IsNotModified(err) {
			n.logger.Error("failed to edit review prompt caption", "message_id", prompt.MessageID, "error", err)
		}
	}
	if err := n.msg.ClearReplyMarkup(ctx, prompt.ChatID, prompt.MessageID); err != nil {
		if !telegramclient.IsNotModified(err) {
			n.logger.Error("failed to clear review prompt buttons", "message_id", prompt.MessageID, "error", err)
		}
	}
}
