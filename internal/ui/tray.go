package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/heimdex/heimdex-timeline/internal/project"
)

//go:embed icon.png
var iconBytes []byte

const refreshInterval = 2 * time.Second

// Autosaver is the part of the autosave runner the tray controls.
type Autosaver interface {
	Pause()
	Resume()
	IsPaused() bool
	SaveCount() int64
	Flush(ctx context.Context) error
}

// OpenCounter reports how many projects have a live session.
type OpenCounter interface {
	OpenCount() int
}

type Tray struct {
	projects OpenCounter
	runner   Autosaver
	logger   *slog.Logger

	statusItem   *systray.MenuItem
	projectsItem *systray.MenuItem
	pauseItem    *systray.MenuItem

	mu sync.Mutex

	onQuit func()
	done   chan struct{}
}

type TrayConfig struct {
	Projects OpenCounter
	Runner   Autosaver
	Logger   *slog.Logger
	OnQuit   func()
}

var _ Autosaver = (*project.Runner)(nil)

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		projects: cfg.Projects,
		runner:   cfg.Runner,
		logger:   cfg.Logger,
		onQuit:   cfg.OnQuit,
		done:     make(chan struct{}),
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Heimdex")
	systray.SetTooltip("Heimdex Timeline")

	t.statusItem = systray.AddMenuItem("Autosave: On", "Autosave status")
	t.statusItem.Disable()

	t.projectsItem = systray.AddMenuItem("Open projects: 0", "Projects with a live editing session")
	t.projectsItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause Autosave", "Stop writing edits to disk")
	saveItem := systray.AddMenuItem("Save Now", "Write all unsaved edits")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Timeline")

	go t.refreshLoop()

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-saveItem.ClickedCh:
				t.saveNow()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	close(t.done)
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.projects != nil {
		t.projectsItem.SetTitle(fmt.Sprintf("Open projects: %d", t.projects.OpenCount()))
	}
	if t.runner != nil && !t.runner.IsPaused() {
		t.statusItem.SetTitle(fmt.Sprintf("Autosave: On (%d saves)", t.runner.SaveCount()))
	}
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause Autosave")
		t.statusItem.SetTitle("Autosave: On")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume Autosave")
		t.statusItem.SetTitle("Autosave: Paused")
	}
}

func (t *Tray) saveNow() {
	if t.runner == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.runner.Flush(ctx); err != nil {
		t.logger.Error("manual save failed", "error", err)
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
