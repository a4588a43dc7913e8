package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier sends a desktop notification when a batch ends
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform; other platforms get none
func NewNotifier() *Notifier {
	switch runtime.GOOS {
	case "linux":
		return &Notifier{sender: &LinuxNotificationSender{}}
	case "darwin":
		return &Notifier{sender: &MacOSNotificationSender{}}
	default:
		return &Notifier{}
	}
}

// NewNotifierWithSender creates a Notifier using sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// BatchFinished notifies about the totals of a batch. Delivery errors are ignored.
func (n *Notifier) BatchFinished(t Totals) {
	if n == nil || n.sender == nil {
		return
	}
	title := "igfetch finished"
	if t.Unsuccessful() {
		title = "igfetch failed"
	}
	msg := fmt.Sprintf("%d files from %d posts", t.Produced, t.Posts)
	if t.Failed+t.PostErrors > 0 {
		msg += fmt.Sprintf(", %d failures", t.Failed+t.PostErrors)
	}
	_ = n.sender.Send(title, msg)
}
