package authui

import (
	"bytes"
	"context"
	"testing"
)

func TestWriterNotifierFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)

	n.Notify(context.Background(), Notification{Level: LevelError, Title: "Error", Message: "Invalid credentials"})
	n.Notify(context.Background(), Notification{Level: LevelSuccess, Title: "Done!", Message: "Welcome back!"})

	want := "Error: Invalid credentials\nDone!: Welcome back!\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestNotifierFuncAndLevels(t *testing.T) {
	var got Notification
	var n Notifier = NotifierFunc(func(_ context.Context, note Notification) { got = note })
	n.Notify(context.Background(), Notification{Level: LevelError, Message: "x"})

	if got.Message != "x" || got.Level.String() != "error" || LevelSuccess.String() != "success" {
		t.Fatalf("unexpected notification %+v", got)
	}

	var nilWriter *WriterNotifier
	nilWriter.Notify(context.Background(), got)
	NoOpNotifier{}.Notify(context.Background(), got)
}
