package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/nahomkasa999/MatuTG/internal/app"
	"github.com/nahomkasa999/MatuTG/internal/config"
	"github.com/nahomkasa999/MatuTG/pkg/telegramclient"
)

type sentText struct {
	chatID string
	text   string
}

type sentPhoto struct {
	chatID   string
	fileID   string
	caption  string
	keyboard [][]telegramclient.InlineKeyboardButton
}

type transportStub struct {
	messages []sentText
	photos   []sentPhoto
	acked    []string
}

func (t *transportStub) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegramclient.Update, error) {
	return nil, nil
}

func (t *transportStub) SendMessage(ctx context.Context, chatID, text string) error {
	t.messages = append(t.messages, sentText{chatID: chatID, text: text})
	return nil
}

func (t *transportStub) SendPhoto(ctx context.Context, chatID, fileID, caption string, keyboard [][]telegramclient.InlineKeyboardButton) (int64, error) {
	t.photos = append(t.photos, sentPhoto{chatID: chatID, fileID: fileID, caption: caption, keyboard: keyboard})
	return 77, nil
}

func (t *transportStub) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
	t.acked = append(t.acked, callbackQueryID)
	return nil
}

type engineCall struct {
	action string
	userID string
	prompt *app.PromptRef
}

type engineStub struct {
	calls []engineCall
}

func (e *engineStub) Approve(ctx context.Context, userID string, prompt *app.PromptRef) {
	e.calls = append(e.calls, engineCall{action: "approve", userID: userID, prompt: prompt})
}

func (e *engineStub) Decline(ctx context.Context, userID string, prompt *app.PromptRef) {
	e.calls = append(e.calls, engineCall{action: "decline", userID: userID, prompt: prompt})
}

func newTestBot(transport *transportStub, engine *engineStub) *Bot {
	cfg := config.Config{AdminChatID: "999", ChannelID: "-1001234"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(transport, engine, cfg, logger)
}

func messageUpdate(chatID int64, text string) telegramclient.Update {
	return telegramclient.Update{
		Message: &telegramclient.Message{
			MessageID: 1,
			Chat:      telegramclient.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func TestApproveCommandFromApprover(t *testing.T) {
	transport := &transportStub{}
	engine := &engineStub{}
	b := newTestBot(transport, engine)

	b.handleUpdate(context.Background(), messageUpdate(999, "/approve_user 123"))

	if len(engine.calls) != 1 {
		t.Fatalf("expected one engine call, got %d", len(engine.calls))
	}
	call := engine.calls[0]
	if call.action != "approve" || call.userID != "123" || call.prompt != nil {
		t.Fatalf("unexpected engine call %+v", call)
	}
}

func TestApproveCommandFromStrangerIsRejected(t *testing.T) {
	transport := &transportStub{}
	engine := &engineStub{}
	b := newTestBot(transport, engine)

	b.handleUpdate(context.Background(), messageUpdate(111, "/approve_user 123"))

	if len(engine.calls) != 0 {
		t.Fatalf("expected no engine call, got %+v", engine.calls)
	}
	if len(transport.messages) != 1 || !strings.Contains(transport.messages[0].text, "not authorized") {
		t.Fatalf("expected authorization rejection, got %v", transport.messages)
	}
	if transport.messages[0].chatID != "111" {
		t.Fatalf("expected rejection sent to caller, got %q", transport.messages[0].chatID)
	}
}

func TestDeclineCommandFromApprover(t *testing.T) {
	transport := &transportStub{}
	engine := &engineStub{}
	b := newTestBot(transport, engine)

	b.handleUpdate(context.Background(), messageUpdate(999, "/decline_user 456"))

	if len(engine.calls) != 1 || engine.calls[0].action != "decline" || engine.calls[0].userID != "456" {
		t.Fatalf("unexpected engine calls %+v", engine.calls)
	}
}

func TestStartAndHelpAnswerAnyCaller(t *testing.T) {
	transport := &transportStub{}
	engine := &engineStub{}
	b := newTestBot(transport, engine)

	b.handleUpdate(context.Background(), messageUpdate(111, "/start"))
	b.handleUpdate(context.Background(), messageUpdate(111, "/help"))

	if len(transport.messages) != 2 {
		t.Fatalf("expected two replies, got %v", transport.messages)
	}
	if !strings.Contains(transport.messages[0].text, "Matu Channel") {
		t.Fatalf("expected welcome text, got %q", transport.messages[0].text)
	}
	if !strings.Contains(transport.messages[1].text, "To get access") {
		t.Fatalf("expected help text, got %q", transport.messages[1].text)
	}
	if len(engine.calls) != 0 {
		t.Fatalf("expected no engine calls, got %+v", engine.calls)
	}
}

func TestPhotoSubmissionForwardsToApprover(t *testing.T) {
	transport := &transportStub{}
	engine := &engineStub{}
	b := newTestBot(transport, engine)

	update := telegramclient.Update{
		Message: &telegramclient.Message{
			MessageID: 12,
			Chat:      telegramclient.Chat{ID: 222},
			From:      &telegramclient.User{ID: 222, Username: "payer"},
			Photo: []telegramclient.PhotoSize{
				{FileID: "small", Width: 90},
				{FileID: "large", Width: 800},
			},
		},
	}
	b.handleUpdate(context.Background(), update)

	if len(transport.messages) != 1 || !strings.Contains(transport.messages[0].text, "received it") {
		t.Fatalf("expected receipt acknowledgement to requester, got %v", transport.messages)
	}
	if len(transport.photos) != 1 {
		t.Fatalf("expected one forwarded photo, got %d", len(transport.photos))
	}
	photo := transport.photos[0]
	if photo.chatID != "999" || photo.fileID != "large" {
		t.Fatalf("expected largest rendition forwarded to approver, got %+v", photo)
	}
	if !strings.Contains(photo.caption, "@payer") || !strings.Contains(photo.caption, "ID: 222") {
		t.Fatalf("unexpected caption %q", photo.caption)
	}
	if len(photo.keyboard) != 1 || len(photo.keyboard[0]) != 2 {
		t.Fatalf("expected a two-button review keyboard, got %+v", photo.keyboard)
	}
	if photo.keyboard[0][0].CallbackData != "approve_user 222" || photo.keyboard[0][1].CallbackData != "decline_user 222" {
		t.Fatalf("unexpected callback payloads %+v", photo.keyboard[0])
	}
}

func callbackUpdate(chatID int64, data string) telegramclient.Update {
	return telegramclient.Update{
		CallbackQuery: &telegramclient.CallbackQuery{
			ID:   "cb1",
			From: telegramclient.User{ID: chatID},
			Message: &telegramclient.Message{
				MessageID: 55,
				Chat:      telegramclient.Chat{ID: chatID},
			},
			Data: data,
		},
	}
}

func TestCallbackApproveDispatchesWithPrompt(t *testing.T) {
	transport := &transportStub{}
	engine := &engineStub{}
	b := newTestBot(transport, engine)

	b.handleUpdate(context.Background(), callbackUpdate(999, "approve_user 123"))

	if len(transport.acked) != 1 || transport.acked[0] != "cb1" {
		t.Fatalf("expected callback acknowledged first, got %v", transport.acked)
	}
	if len(engine.calls) != 1 {
		t.Fatalf("expected one engine call, got %+v", engine.calls)
	}
	call := engine.calls[0]
	if call.action != "approve" || call.userID != "123" {
		t.Fatalf("unexpected engine call %+v", call)
	}
	if call.prompt == nil || call.prompt.MessageID != 55 || call.prompt.ChatID != "999" {
		t.Fatalf("expected prompt reference to the review message, got %+v", call.prompt)
	}
}

func TestCallbackFromStrangerIsRejectedAfterAck(t *testing.T) {
	transport := &transportStub{}
	engine := &engineStub{}
	b := newTestBot(transport, engine)

	b.handleUpdate(context.Background(), callbackUpdate(111, "approve_user 123"))

	if len(transport.acked) != 1 {
		t.Fatal("expected callback to be acknowledged even when unauthorized")
	}
	if len(engine.calls) != 0 {
		t.Fatalf("expected no engine call, got %+v", engine.calls)
	}
	if len(transport.messages) != 1 || !strings.Contains(transport.messages[0].text, "not authorized") {
		t.Fatalf("expected authorization rejection, got %v", transport.messages)
	}
}

func TestCallbackWithUnknownTagIsRejected(t *testing.T) {
	transport := &transportStub{}
	engine := &engineStub{}
	b := newTestBot(transport, engine)

	b.handleUpdate(context.Background(), callbackUpdate(999, "ban_user 123"))

	if len(engine.calls) != 0 {
		t.Fatalf("expected no engine call for unknown tag, got %+v", engine.calls)
	}
	if len(transport.messages) != 1 || transport.messages[0].text != "Unknown action." {
		t.Fatalf("expected unknown action reply, got %v", transport.messages)
	}
}
