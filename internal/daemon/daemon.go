package daemon

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/mindscribe/mindscribe/internal/bus"
	"github.com/mindscribe/mindscribe/internal/capture"
	"github.com/mindscribe/mindscribe/internal/config"
	"github.com/mindscribe/mindscribe/internal/notify"
	"github.com/mindscribe/mindscribe/internal/session"
	"github.com/mindscribe/mindscribe/internal/store"
	"github.com/mindscribe/mindscribe/internal/summarize"
)

// Daemon constructs every service once at startup and owns the meeting
// orchestrator. Clients drive it over the control socket.
type Daemon struct {
	mu       sync.Mutex
	manager  *config.Manager
	notifier notify.Notifier
	gateway  *store.Gateway
	orch     *session.Orchestrator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New() (*Daemon, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, err
	}
	cfg := manager.GetConfig()

	notifier := notify.New(cfg.Notifications)

	gateway, err := buildGateway(cfg)
	if err != nil {
		return nil, err
	}

	orch, err := buildOrchestrator(cfg, notifier)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		manager:  manager,
		notifier: notifier,
		gateway:  gateway,
		orch:     orch,
		ctx:      ctx,
		cancel:   cancel,
	}

	d.wg.Add(1)
	go d.consumeEvents()

	return d, nil
}

func buildGateway(cfg *config.Config) (*store.Gateway, error) {
	local, err := store.NewLocal(cfg.Storage.LocalDir)
	if err != nil {
		return nil, err
	}

	var remote *store.Remote
	if cfg.Storage.UserID != "" {
		remote, err = store.OpenRemote(cfg.Storage.DatabasePath)
		if err != nil {
			// Remote being down never blocks local persistence.
			log.Printf("daemon: remote store unavailable, running local-only: %v", err)
			remote = nil
		}
	}

	return store.NewGateway(remote, local, cfg.Storage.UserID), nil
}

// buildOrchestrator selects the capture engine and summarizer from config,
// downgrading unconfigured cloud paths to mocks with a warning rather than
// silently hanging.
func buildOrchestrator(cfg *config.Config, notifier notify.Notifier) (*session.Orchestrator, error) {
	captureCfg := cfg.Capture
	if captureCfg.Engine == "websocket" && captureCfg.APIKey == "" {
		notifier.Warning("Capture engine not configured. Using scripted transcript.")
		log.Printf("daemon: websocket engine unconfigured, using scripted transcript")
		captureCfg.Engine = "scripted"
	}
	engine, err := capture.NewEngine(captureCfg)
	if err != nil {
		return nil, err
	}
	adapter := capture.New(engine, captureCfg)

	mock := summarize.NewMockAdapter(42)
	var summarizer summarize.Adapter = mock
	if cfg.SummarizerConfigured() {
		summarizer = summarize.NewOpenAIAdapter(cfg.Summarizer)
	} else {
		notifier.Warning("Summarizer credentials not configured. Using mock insights.")
		log.Printf("daemon: summarizer unconfigured, using mock insights")
	}

	debounce := summarize.NewDebounce(cfg.Summarizer.MinEntries, cfg.Summarizer.MaxInterval)
	return session.New(adapter, summarizer, mock, debounce), nil
}

func (d *Daemon) consumeEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case ev := <-d.orch.Events():
			switch ev.Kind {
			case session.EventStatus:
				d.notifier.RecordingChanged(ev.Recording)
			case session.EventError:
				d.notifier.Error(ev.Err)
			case session.EventComplete:
				log.Printf("daemon: recording complete, %d entries", len(ev.Transcript))
			case session.EventAnalysis:
				log.Printf("daemon: analysis updated: %d key points, %d action items",
					len(ev.Insights.KeyPoints), len(ev.Insights.ActionItems))
			}
		}
	}
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	if err := d.manager.StartWatching(d.ctx); err != nil {
		log.Printf("daemon: config watching disabled: %v", err)
	}
	defer d.manager.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		log.Printf("daemon: received signal %v, shutting down", sig)
		d.cancel()
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("daemon: listening on control socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.shutdown()
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) shutdown() {
	d.orch.Stop()
	d.orch.WaitAnalysis()
	d.wg.Wait()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	line = strings.TrimRight(line, "\n")
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd, arg := line[0], strings.TrimSpace(line[1:])

	switch cmd {
	case bus.CmdToggle:
		d.toggle(c)
	case bus.CmdStatus:
		fmt.Fprintf(c, "STATUS state=%s elapsed=%s entries=%d err=%q\n",
			d.orch.State(), d.orch.Elapsed(), len(d.orch.Snapshot()), d.orch.LastError())
	case bus.CmdSave:
		d.save(c, arg)
	case bus.CmdVer:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func (d *Daemon) toggle(c net.Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.orch.State() == session.Recording {
		d.orch.Stop()
		fmt.Fprint(c, "OK stopped\n")
		return
	}

	if err := d.orch.Start(d.ctx); err != nil {
		fmt.Fprintf(c, "ERR start: %v\n", err)
		return
	}
	fmt.Fprint(c, "OK recording\n")
}

func (d *Daemon) save(c net.Conn, title string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.orch.State() == session.Recording {
		fmt.Fprint(c, "ERR still recording, stop first\n")
		return
	}
	if title == "" {
		title = "Untitled Meeting"
	}

	m := d.orch.Finalize(title)
	if err := d.gateway.Save(d.ctx, m); err != nil {
		fmt.Fprintf(c, "ERR save: %v\n", err)
		return
	}
	fmt.Fprintf(c, "OK saved id=%s\n", m.ID)
}
