/**
 * @description
 * The Telegram-facing boundary of the membership bot. This package owns the
 * long-poll update loop and turns raw updates into engine calls: text
 * commands, payment screenshot submissions, and inline keyboard decisions.
 * Callback payloads are decoded exactly once here and unknown tags are
 * rejected; authorization for approver actions is enforced here by comparing
 * the caller's chat ID to the configured approver.
 */
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/nahomkasa999/MatuTG/internal/app"
	"github.com/nahomkasa999/MatuTG/internal/config"
	"github.com/nahomkasa999/MatuTG/internal/domain"
	"github.com/nahomkasa999/MatuTG/pkg/telegramclient"
)

// pollTimeoutSeconds is the long-poll window for getUpdates.
const pollTimeoutSeconds = 30

// pollRetryDelay spaces out retries after a polling error.
const pollRetryDelay = 3 * time.Second

const welcomeText = `Welcome to the Matu Channel! Get access to exclusive, up-to-date worksheets that are almost identical to real exam questions.

This channel includes
  - past exams 2017, 2016, 2015 ...
  - currently focus on mathematics only
  - guaranted A-, A, and A+ -> we will return your money if you didn't get one,
  - class room lecture videos
  - 10/7 access to teachers and mentors
  - live exams
  - and more

To join, its 200birr per month.

Once you've paid, send a screenshot of your payment confirmation (the transaction slip) directly to this chat. We'll review it manually and grant you immediate access.`

const helpText = `To get access:
1. Make your payment.
2. Send a clear screenshot of your payment confirmation (transaction slip) to this chat.
3. An admin will review it and grant you access.`

var (
	approveCommand = regexp.MustCompile(`^/approve_user (\d+)$`)
	declineCommand = regexp.MustCompile(`^/decline_user (\d+)$`)
)

// Engine is the approval/decline engine the bot dispatches decisions to.
type Engine interface {
	Approve(ctx context.Context, userID string, prompt *app.PromptRef)
	Decline(ctx context.Context, userID string, prompt *app.PromptRef)
}

// TransportClient defines the Telegram operations the update loop needs.
type TransportClient interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegramclient.Update, error)
	SendMessage(ctx context.Context, chatID, text string) error
	SendPhoto(ctx context.Context, chatID, fileID, caption string, keyboard [][]telegramclient.InlineKeyboardButton) (int64, error)
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error
}

// Bot receives updates and routes them.
type Bot struct {
	client TransportClient
	engine Engine
	cfg    config.Config
	logger *slog.Logger
}

// New creates a new bot.
func New(client TransportClient, engine Engine, cfg config.Config, logger *slog.Logger) *Bot {
	return &Bot{
		client: client,
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

// Run long-polls for updates until ctx is cancelled. Inbound events are
// processed one at a time in arrival order.
func (b *Bot) Run(ctx context.Context) {
	var offset int64
	for {
		updates, err := b.client.GetUpdates(ctx, offset, pollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("polling error", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.handleUpdate(ctx, update)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update telegramclient.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && len(update.Message.Photo) > 0:
		b.handlePhoto(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleCommand(ctx, update.Message)
	}
}

// handleCommand routes text commands. /start and /help answer any caller;
// the approval commands are approver-only.
func (b *Bot) handleCommand(ctx context.Context, msg *telegramclient.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	switch {
	case msg.Text == "/start":
		b.send(ctx, chatID, welcomeText)
	case msg.Text == "/help":
		b.send(ctx, chatID, helpText)
	case approveCommand.MatchString(msg.Text):
		if !b.authorize(ctx, chatID, "You are not authorized to use this command.") {
			return
		}
		userID := approveCommand.FindStringSubmatch(msg.Text)[1]
		b.engine.Approve(ctx, userID, nil)
	case declineCommand.MatchString(msg.Text):
		if !b.authorize(ctx, chatID, "You are not authorized to use this command.") {
			return
		}
		userID := declineCommand.FindStringSubmatch(msg.Text)[1]
		b.engine.Decline(ctx, userID, nil)
	}
}

// handlePhoto receives a payment screenshot, acknowledges the requester, and
// forwards the largest rendition to the approver with a review keyboard.
func (b *Bot) handlePhoto(ctx context.Context, msg *telegramclient.Message) {
	if msg.From == nil {
		return
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	userID := strconv.FormatInt(msg.From.ID, 10)

	username := msg.From.FirstName
	if msg.From.Username != "" {
		username = "@" + msg.From.Username
	}

	b.send(ctx, chatID, "Thank you for sending your payment screenshot! We have received it and an admin will review it shortly. Please await our confirmation.")

	fileID := msg.Photo[len(msg.Photo)-1].FileID
	caption := fmt.Sprintf(
		"New payment screenshot from %s (ID: %s).\nPlease verify payment and click a button below.\nOriginal message ID: %d in chat %s",
		username, userID, msg.MessageID, chatID,
	)
	keyboard := [][]telegramclient.InlineKeyboardButton{{
		{Text: "✅ Approve", CallbackData: domain.Action{Kind: domain.ActionApprove, UserID: userID}.Encode()},
		{Text: "❌ Decline", CallbackData: domain.Action{Kind: domain.ActionDecline, UserID: userID}.Encode()},
	}}

	if _, err := b.client.SendPhoto(ctx, b.cfg.AdminChatID, fileID, caption, keyboard); err != nil {
		b.logger.Error("failed to forward screenshot to approver", "user_id", userID, "error", err)
		b.send(ctx, chatID, "Apologies, but there was an issue forwarding your screenshot to the admin. Please try again or contact support directly.")
	}
}

// handleCallback processes a review button press. The press is acknowledged
// immediately so Telegram's spinner clears regardless of how long the
// resulting decision takes.
func (b *Bot) handleCallback(ctx context.Context, query *telegramclient.CallbackQuery) {
	if err := b.client.AnswerCallbackQuery(ctx, query.ID); err != nil {
		b.logger.Warn("failed to acknowledge callback", "callback_id", query.ID, "error", err)
	}
	if query.Message == nil {
		return
	}

	chatID := strconv.FormatInt(query.Message.Chat.ID, 10)
	if !b.authorize(ctx, chatID, "You are not authorized to use these buttons.") {
		return
	}

	action, err := domain.ParseAction(query.Data)
	if err != nil {
		b.logger.Warn("rejected callback payload", "data", query.Data, "error", err)
		b.send(ctx, chatID, "Unknown action.")
		return
	}

	prompt := &app.PromptRef{ChatID: chatID, MessageID: query.Message.MessageID}
	switch action.Kind {
	case domain.ActionApprove:
		b.engine.Approve(ctx, action.UserID, prompt)
	case domain.ActionDecline:
		b.engine.Decline(ctx, action.UserID, prompt)
	}
}

// authorize checks that the caller is the configured approver. Unauthorized
// callers get a rejection message and nothing else happens.
func (b *Bot) authorize(ctx context.Context, chatID, rejection string) bool {
	if chatID == b.cfg.AdminChatID {
		return true
	}
	b.send(ctx, chatID, rejection)
	return false
}

func (b *Bot) send(ctx context.Context, chatID, text string) {
	if err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}
