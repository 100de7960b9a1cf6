package notify

import (
	"fmt"
	"log"
	"os/exec"

	"github.com/mindscribe/mindscribe/internal/config"
)

type Notifier interface {
	RecordingChanged(on bool)
	Warning(msg string)
	Error(msg string)
}

// New picks the notifier implied by the notifications config.
func New(cfg config.NotificationsConfig) Notifier {
	if !cfg.Enabled {
		return Nop{}
	}
	switch cfg.Type {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

type Desktop struct{}

func (Desktop) RecordingChanged(on bool) {
	state := "Stopped"
	if on {
		state = "Started"
	}
	send(fmt.Sprintf("Mindscribe: %s Recording", state), false)
}

func (Desktop) Warning(msg string) { send(msg, false) }
func (Desktop) Error(msg string)   { send(msg, true) }

func send(msg string, critical bool) {
	args := []string{"-a", "Mindscribe"}
	if critical {
		args = append(args, "-u", "critical")
	}
	args = append(args, msg)
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		log.Printf("notify: failed to send notification: %v", err)
	}
}

// Log writes notifications to the daemon log.
type Log struct{}

func (Log) RecordingChanged(on bool) { log.Printf("notify: recording=%v", on) }
func (Log) Warning(msg string)       { log.Printf("notify: warning: %s", msg) }
func (Log) Error(msg string)         { log.Printf("notify: error: %s", msg) }

// Nop does nothing. Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) RecordingChanged(on bool) {}
func (Nop) Warning(msg string)       {}
func (Nop) Error(msg string)         {}
