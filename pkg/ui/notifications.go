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

type commandSender struct {
	build func(title, message string) *exec.Cmd
}

func (c commandSender) Send(title, message string) error {
	return c.build(title, message).Run()
}

// Notifier reports finished long-running commands on the desktop and the
// console
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform. Unsupported
// platforms only print to the console.
func NewNotifier() *Notifier {
	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = commandSender{build: func(title, message string) *exec.Cmd {
			return exec.Command("notify-send", title, message)
		}}
	case "darwin":
		sender = commandSender{build: func(title, message string) *exec.Cmd {
			script := fmt.Sprintf("display notification %q with title %q", message, title)
			return exec.Command("osascript", "-e", script)
		}}
	}
	return &Notifier{sender: sender}
}

// NewNotifierWithSender creates a notifier using sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// Notify prints the message and sends it to the desktop. Delivery errors
// are ignored.
func (n *Notifier) Notify(title, message string) {
	fmt.Fprintf(Stdout(), "%s: %s\n", Cyan(title), Yellow(message))
	if n.sender != nil {
		_ = n.sender.Send(title, message)
	}
}

// NotifyError is Notify for failures
func (n *Notifier) NotifyError(title, message string) {
	fmt.Fprintf(stderr(), "%s: %s\n", Red(title), Red(message))
	if n.sender != nil {
		_ = n.sender.Send(title, message)
	}
}
