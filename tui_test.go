package main

import (
	"strings"
	"testing"

	"github.com/kir-gadjello/ikoi/chat"
	"github.com/kir-gadjello/ikoi/kv"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "00:00"},
		{7, "00:07"},
		{65, "01:05"},
		{600, "10:00"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLastAssistantText(t *testing.T) {
	errMsg := chat.NewMessage(chat.AuthorAssistant, "boom")
	errMsg.IsError = true
	msgs := []chat.Message{
		chat.NewMessage(chat.AuthorAssistant, "first"),
		chat.NewMessage(chat.AuthorUser, "question"),
		chat.NewMessage(chat.AuthorAssistant, "answer"),
		errMsg,
		chat.NewMessage(chat.AuthorUser, "another"),
	}

	text, ok := lastAssistantText(msgs)
	if !ok || text != "answer" {
		t.Errorf("got (%q, %v), want (answer, true)", text, ok)
	}

	if _, ok := lastAssistantText(nil); ok {
		t.Error("empty log should report no assistant text")
	}
	if _, ok := lastAssistantText([]chat.Message{errMsg}); ok {
		t.Error("error messages are not copyable assistant text")
	}
}

func TestRenderLogOffsets(t *testing.T) {
	ledger := chat.NewLedger(kv.NewMemory())
	ledger.Load()

	msgs := []chat.Message{
		chat.NewMessage(chat.AuthorUser, "one line"),
		chat.NewMessage(chat.AuthorUser, "two\nlines"),
		chat.NewMessage(chat.AuthorUser, "last"),
	}

	theme := themes["mono"]
	out, offsets := renderLog(msgs, ledger, theme, 80, false, -1)

	if len(offsets) != len(msgs) {
		t.Fatalf("got %d offsets, want %d", len(offsets), len(msgs))
	}
	// Each message: header + content lines + blank separator.
	if offsets[0] != 0 {
		t.Errorf("first message starts at %d", offsets[0])
	}
	if offsets[1] != 3 {
		t.Errorf("second message starts at %d, want 3", offsets[1])
	}
	if offsets[2] != 7 {
		t.Errorf("third message starts at %d, want 7", offsets[2])
	}

	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[offsets[2]], "#2") {
		t.Errorf("offset 2 does not point at its header: %q", lines[offsets[2]])
	}
}

func TestRenderLogReactionsAndAttachments(t *testing.T) {
	ledger := chat.NewLedger(kv.NewMemory())
	ledger.Load()
	if err := ledger.Add(0, "👍"); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Add(0, "👍"); err != nil {
		t.Fatal(err)
	}

	msg := chat.NewMessage(chat.AuthorUser, "see attached")
	msg.Attachments = []chat.Attachment{{Name: "notes.md", SizeBytes: 2048, MimeType: "text/markdown"}}

	out, _ := renderLog([]chat.Message{msg}, ledger, themes["mono"], 80, false, -1)

	if !strings.Contains(out, "📎 notes.md (2.00 KB)") {
		t.Errorf("attachment line missing:\n%s", out)
	}
	if !strings.Contains(out, "👍 2") {
		t.Errorf("reaction count missing:\n%s", out)
	}
}

func TestRenderLogEmpty(t *testing.T) {
	ledger := chat.NewLedger(kv.NewMemory())
	ledger.Load()
	out, offsets := renderLog(nil, ledger, themes["mono"], 80, false, -1)
	if out != "<conversation is empty>" {
		t.Errorf("unexpected empty render %q", out)
	}
	if len(offsets) != 0 {
		t.Errorf("expected no offsets, got %v", offsets)
	}
}

func TestHeaderMeta(t *testing.T) {
	msg := chat.NewMessage(chat.AuthorUser, "hi")
	msg.Voice = &chat.Voice{DurationSeconds: 65}
	msg.Edited = true

	meta := headerMeta(msg)
	if !strings.Contains(meta, "🎤 01:05") {
		t.Errorf("voice duration missing from %q", meta)
	}
	if !strings.Contains(meta, "edited") {
		t.Errorf("edited marker missing from %q", meta)
	}
}

func TestHighlightExcerpt(t *testing.T) {
	theme := themes["mono"]

	r := chat.Result{Excerpt: "...find the needle here...", MatchOffset: 12, MatchLen: 6}
	got := highlightExcerpt(r, theme)
	if !strings.Contains(got, "needle") {
		t.Errorf("match text lost: %q", got)
	}
	if !strings.HasPrefix(got, "...find the ") {
		t.Errorf("prefix mangled: %q", got)
	}

	// Out-of-range offsets fall back to the raw excerpt.
	bad := chat.Result{Excerpt: "short", MatchOffset: 10, MatchLen: 3}
	if got := highlightExcerpt(bad, theme); got != "short" {
		t.Errorf("expected raw excerpt, got %q", got)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("alpha beta gamma delta", 11)
	want := "alpha beta\ngamma delta"
	if got != want {
		t.Errorf("wrapText = %q, want %q", got, want)
	}

	// Existing newlines are preserved.
	got = wrapText("one\ntwo three", 20)
	if got != "one\ntwo three" {
		t.Errorf("newlines not preserved: %q", got)
	}

	if got := wrapText("short", 0); got != "short" {
		t.Errorf("non-positive width should pass through, got %q", got)
	}
}
