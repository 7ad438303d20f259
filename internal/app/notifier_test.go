package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/nahomkasa999/MatuTG/pkg/telegramclient"
)

func newTestNotifier(msg *messengerStub) *Notifier {
	return NewNotifier(msg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReportToApprover_EditsPromptInPlace(t *testing.T) {
	msg := &messengerStub{}
	n := newTestNotifier(msg)

	prompt := &PromptRef{ChatID: "999", MessageID: 55}
	n.ReportToApprover(context.Background(), "999", prompt, "User 42 has been declined.", "DECLINED ❌")

	if len(msg.sent) != 0 {
		t.Fatalf("expected no new message when a prompt is given, got %v", msg.sent)
	}
	if len(msg.captionEdits) != 1 {
		t.Fatalf("expected one caption edit, got %d", len(msg.captionEdits))
	}
	edit := msg.captionEdits[0]
	if edit.messageID != 55 || !strings.Contains(edit.caption, "*STATUS: DECLINED ❌*") {
		t.Fatalf("unexpected caption edit %+v", edit)
	}
	if len(msg.markupCleared) != 1 || msg.markupCleared[0] != 55 {
		t.Fatalf("expected buttons cleared on message 55, got %v", msg.markupCleared)
	}
}

func TestReportToApprover_FallsBackToMessage(t *testing.T) {
	msg := &messengerStub{}
	n := newTestNotifier(msg)

	n.ReportToApprover(context.Background(), "999", nil, "User 42 has been declined.", "DECLINED ❌")

	texts := msg.textsTo("999")
	if len(texts) != 1 || texts[0] != "User 42 has been declined." {
		t.Fatalf("expected plain approver message without status suffix, got %v", texts)
	}
}

func TestReportToApprover_RedundantEditIsBenign(t *testing.T) {
	msg := &messengerStub{
		editErr: &telegramclient.APIError{Code: 400, Description: "Bad Request: message is not modified"},
	}
	n := newTestNotifier(msg)

	prompt := &PromptRef{ChatID: "999", MessageID: 55}
	n.ReportToApprover(context.Background(), "999", prompt, "User 42 has been declined.", "DECLINED ❌")

	if len(msg.sent) != 0 {
		t.Fatalf("expected redundant edit to stay silent, got %v", msg.sent)
	}
}

func TestBestEffortSendSwallowsFailure(t *testing.T) {
	msg := &messengerStub{sendErr: map[string]error{"42": errors.New("bot was blocked by the user")}}
	n := newTestNotifier(msg)

	n.BestEffortSend(context.Background(), "42", "Your access has expired.")

	if len(msg.sent) != 0 {
		t.Fatalf("expected nothing recorded after a failed best-effort send, got %v", msg.sent)
	}
}
