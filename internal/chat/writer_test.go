package chat

import (
	"bytes"
	"context"
	"testing"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	ctx := context.Background()

	id, err := w.Send(ctx, 42, "Time to review your cards!", Inline(Row(NewButton("📚 Learn", RemindLearn{}))))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id != 1 {
		t.Errorf("Send() id = %d, want 1", id)
	}
	if err := w.Edit(ctx, 42, id, "apple", nil); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if err := w.Delete(ctx, 42, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	want := "[chat 42 #1] Time to review your cards!\n" +
		"  [📚 Learn]\n" +
		"[chat 42 #1 edited] apple\n" +
		"[chat 42 #1 deleted]\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
