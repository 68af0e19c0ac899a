package ui

import "sync"

// Notifier shows transient messages to the viewer.
type Notifier interface {
	Error(message string)
}

// Toasts collects notifications to render with the next page.
type Toasts struct {
	mu       sync.Mutex
	messages []string
}

func (t *Toasts) Error(message string) {
	t.mu.Lock()
	t.messages = append(t.messages, message)
	t.mu.Unlock()
}

// Messages returns the collected messages in order.
func (t *Toasts) Messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.messages...)
}
