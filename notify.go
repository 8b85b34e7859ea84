package authui

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// NotificationLevel distinguishes success notices from errors.
type NotificationLevel int

const (
	// LevelSuccess marks a completed operation.
	LevelSuccess NotificationLevel = iota
	// LevelError marks a failure shown to the user.
	LevelError
)

func (l NotificationLevel) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notification is a transient user-facing message, already localized.
type Notification struct {
	Level   NotificationLevel
	Title   string
	Message string
}

// Notifier presents notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NoOpNotifier discards every notification.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, Notification) {}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// WriterNotifier prints one line per notification, "Title: Message".
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier returns a Notifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(_ context.Context, note Notification) {
	if n == nil || n.w == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s: %s\n", note.Title, note.Message)
}
