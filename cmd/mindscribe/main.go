package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindscribe/mindscribe/internal/bus"
	"github.com/mindscribe/mindscribe/internal/config"
	"github.com/mindscribe/mindscribe/internal/daemon"
	"github.com/mindscribe/mindscribe/internal/export"
	"github.com/mindscribe/mindscribe/internal/meeting"
	"github.com/mindscribe/mindscribe/internal/store"
	"github.com/mindscribe/mindscribe/internal/transcribe"
	"github.com/mindscribe/mindscribe/internal/tui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mindscribe",
	Short: "Record meetings, transcribe them, and extract key points",
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		toggleCmd(),
		statusCmd(),
		saveCmd(),
		stopCmd(),
		versionCmd(),
		setupCmd(),
		listCmd(),
		showCmd(),
		exportCmd(),
		transcribeCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the meeting daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := daemon.New()
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run()
		},
	}
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Start or stop recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdToggle, "")
			if err != nil {
				return fmt.Errorf("failed to toggle recording: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get current session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdStatus, "")
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save [title]",
		Short: "Persist the finished session as a meeting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) > 0 {
				title = args[0]
			}
			resp, err := bus.SendCommand(bus.CmdSave, title)
			if err != nil {
				return fmt.Errorf("failed to save meeting: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdQuit, "")
			if err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdVer, "")
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive configuration wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := config.Load()
			if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
				return err
			}

			result, err := tui.RunSetup(existing)
			if err != nil {
				return err
			}
			if result.Cancelled {
				fmt.Println(tui.StyleMuted.Render("Setup cancelled, nothing written."))
				return nil
			}

			if err := config.Save(result.Config); err != nil {
				return err
			}
			fmt.Println(tui.StyleSuccess.Render("Configuration saved."))
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved meetings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, cleanup, err := openGateway()
			if err != nil {
				return err
			}
			defer cleanup()

			meetings, err := gateway.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(meetings) == 0 {
				fmt.Println(tui.StyleMuted.Render("No saved meetings."))
				return nil
			}

			for _, m := range meetings {
				fmt.Printf("%s  %s  %s\n",
					tui.StyleMuted.Render(m.Date.Format("2006-01-02 15:04")),
					tui.StyleHeader.Render(m.Title),
					tui.StyleMuted.Render(m.ID))
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved meeting's transcript and insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, cleanup, err := openGateway()
			if err != nil {
				return err
			}
			defer cleanup()

			m, err := gateway.Load(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				fmt.Println(tui.StyleError.Render("Meeting not found."))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Println(export.FormatTranscript(m))
			fmt.Println(export.FormatNotes(m))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var output string
	var notes bool
	var share bool

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a meeting transcript or notes to a file or clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, cleanup, err := openGateway()
			if err != nil {
				return err
			}
			defer cleanup()

			m, err := gateway.Load(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				fmt.Println(tui.StyleError.Render("Meeting not found."))
				return nil
			}
			if err != nil {
				return err
			}

			content := export.FormatTranscript(m)
			if notes {
				content = export.FormatNotes(m)
			}

			if share {
				if err := export.Share(content); err != nil {
					return err
				}
				fmt.Println(tui.StyleSuccess.Render("Copied to clipboard."))
				return nil
			}

			path := output
			if path == "" {
				path = m.ID + ".txt"
			}
			if err := export.WriteFile(path, content); err != nil {
				return err
			}
			fmt.Println(tui.StyleSuccess.Render("Wrote " + path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&notes, "notes", false, "export key points and action items instead of the transcript")
	cmd.Flags().BoolVar(&share, "share", false, "copy to clipboard instead of writing a file")
	return cmd
}

func transcribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Run a recorded audio file through the cloud transcription job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read audio file: %w", err)
			}

			if err := transcribe.Preflight(cfg); err != nil {
				if !errors.Is(err, transcribe.ErrNotConfigured) {
					return err
				}
				fmt.Println(tui.StyleWarning.Render("AWS credentials not configured. Using mock data."))
				printTranscript(transcribe.MockTranscript())
				return nil
			}

			adapter := transcribe.New(cfg.Cloud,
				transcribe.NewHTTPObjectStore(cfg.Cloud),
				transcribe.NewHTTPJobClient(cfg.Cloud))
			if err := adapter.Start(); err != nil {
				return err
			}
			if err := adapter.AddChunk(data); err != nil {
				return err
			}

			fmt.Println(tui.StyleMuted.Render("Uploading and transcribing, this can take a while..."))
			entries, err := adapter.StopAndTranscribe(cmd.Context())
			if err != nil {
				log.Printf("cmd: cloud transcription failed: %v", err)
				fmt.Println(tui.StyleWarning.Render("Transcription failed. Using mock data."))
				entries = transcribe.MockTranscript()
			}

			printTranscript(entries)
			return nil
		},
	}
}

func printTranscript(entries []meeting.TranscriptEntry) {
	for _, e := range entries {
		if e.Speaker != "" {
			fmt.Printf("%s %s\n", tui.StyleHeader.Render(e.Speaker+":"), e.Text)
		} else {
			fmt.Println(e.Text)
		}
	}
}

// openGateway builds a read-side persistence gateway from config, degrading
// to local-only when the database cannot be opened.
func openGateway() (*store.Gateway, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	local, err := store.NewLocal(cfg.Storage.LocalDir)
	if err != nil {
		return nil, nil, err
	}

	var remote *store.Remote
	cleanup := func() {}
	if cfg.Storage.UserID != "" {
		remote, err = store.OpenRemote(cfg.Storage.DatabasePath)
		if err != nil {
			log.Printf("store: remote unavailable, using local only: %v", err)
			remote = nil
		} else {
			cleanup = func() { remote.Close() }
		}
	}

	return store.NewGateway(remote, local, cfg.Storage.UserID), cleanup, nil
}
