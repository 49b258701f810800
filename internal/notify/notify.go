// Package notify delivers best-effort desktop notifications when a run
// completes. Notification failure is never allowed to affect the run.
package notify

import (
	"os/exec"
	"runtime"

	"go.uber.org/zap"

	"github.com/HartreeWorks/bestofn/internal/ports"
)

// Desktop sends notifications through the platform's notifier: notify-send
// on Linux, osascript on macOS. Platforms without a notifier are silently
// skipped.
type Desktop struct{}

var _ ports.Notifier = Desktop{}

// Notify fires the notification and forgets it.
func (Desktop) Notify(title, body string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("notify-send", title, body)
	case "darwin":
		cmd = exec.Command("osascript", "-e",
			`display notification "`+escape(body)+`" with title "`+escape(title)+`"`)
	default:
		return
	}

	if err := cmd.Run(); err != nil {
		zap.L().Debug("notify: delivery failed", zap.Error(err))
	}
}

// escape quotes for embedding in an AppleScript string literal.
func escape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Nop is a Notifier that does nothing, used when notifications are
// disabled.
type Nop struct{}

var _ ports.Notifier = Nop{}

// Notify discards the notification.
func (Nop) Notify(title, body string) {}
