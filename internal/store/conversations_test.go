package store

import (
	"strings"
	"testing"

	"github.com/civicpulse/legichat/internal/chat"
)

func TestDeriveTitleFromFirstUserTurn(t *testing.T) {
	conv := &chat.Conversation{Turns: []chat.Turn{
		{Role: "assistant", Content: "How can I help?"},
		{Role: "user", Content: "What did Senator Warren say about banks?"},
		{Role: "user", Content: "Second message should be ignored"},
	}}
	if got := DeriveTitle(conv); got != "What did Senator Warren say about banks?" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestDeriveTitleTruncatesOnWordBoundary(t *testing.T) {
	long := "What did the Senate commerce committee conclude about broadband infrastructure funding in rural areas?"
	conv := &chat.Conversation{Turns: []chat.Turn{{Role: "user", Content: long}}}

	got := DeriveTitle(conv)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	trimmed := strings.TrimSuffix(got, "…")
	if len(trimmed) > maxTitleLen {
		t.Fatalf("title too long: %d chars", len(trimmed))
	}
	if strings.HasSuffix(trimmed, " ") || !strings.HasPrefix(long, trimmed) {
		t.Fatalf("truncation must end on a word boundary: %q", got)
	}
}

func TestDeriveTitleFallback(t *testing.T) {
	if got := DeriveTitle(&chat.Conversation{}); got != "New conversation" {
		t.Fatalf("expected fallback title, got %q", got)
	}
	conv := &chat.Conversation{Turns: []chat.Turn{{Role: "user", Content: "   "}}}
	if got := DeriveTitle(conv); got != "New conversation" {
		t.Fatalf("expected fallback for blank message, got %q", got)
	}
}
