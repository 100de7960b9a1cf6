package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/muesli/termenv"

	"github.com/mindscribe/mindscribe/internal/config"
)

// SetupResult holds the configuration produced by the wizard.
type SetupResult struct {
	Config    *config.Config
	Cancelled bool
}

// RunSetup walks the user through an initial configuration. Everything is
// optional: leaving cloud and summarizer credentials empty keeps the system
// on its mock paths.
func RunSetup(existing *config.Config) (*SetupResult, error) {
	clearScreen()
	fmt.Println(StyleHeader.Render("mindscribe setup"))
	fmt.Println(StyleMuted.Render("Leave credentials empty to run with mock data."))
	fmt.Println()

	cfg := existing
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var notifyType string
	switch {
	case !cfg.Notifications.Enabled:
		notifyType = "none"
	case cfg.Notifications.Type != "":
		notifyType = cfg.Notifications.Type
	default:
		notifyType = "none"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Capture engine").
				Description("How live speech becomes transcript entries").
				Options(
					huh.NewOption("Scripted (demo transcript, no service needed)", "scripted"),
					huh.NewOption("Websocket (realtime recognition service)", "websocket"),
				).
				Value(&cfg.Capture.Engine),
			huh.NewInput().
				Title("Recognition endpoint").
				Description("Websocket engine only, e.g. wss://stt.example.com/v1/listen").
				Value(&cfg.Capture.Endpoint),
			huh.NewInput().
				Title("Recognition API key").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Capture.APIKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Cloud region").
				Value(&cfg.Cloud.Region),
			huh.NewInput().
				Title("Object storage bucket").
				Value(&cfg.Cloud.Bucket),
			huh.NewInput().
				Title("Access key id").
				Value(&cfg.Cloud.AccessKeyID),
			huh.NewInput().
				Title("Secret access key").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Cloud.SecretAccessKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Summarizer API key").
				Description("OpenAI-compatible; falls back to mock insights when empty").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Summarizer.APIKey),
			huh.NewInput().
				Title("User id").
				Description("Meetings are stored per user; empty means local-only").
				Value(&cfg.Storage.UserID),
			huh.NewSelect[string]().
				Title("Notifications").
				Options(
					huh.NewOption("None", "none"),
					huh.NewOption("Desktop", "desktop"),
					huh.NewOption("Log", "log"),
				).
				Value(&notifyType),
		),
	)

	if err := form.Run(); err != nil {
		return &SetupResult{Cancelled: true}, nil
	}

	cfg.Notifications.Enabled = notifyType != "none"
	cfg.Notifications.Type = notifyType
	if !cfg.Notifications.Enabled {
		cfg.Notifications.Type = ""
	}

	return &SetupResult{Config: cfg}, nil
}

func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}
