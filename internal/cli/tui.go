package cli

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"hggrip/internal/commands"
	"hggrip/internal/discovery"
	"hggrip/internal/eventbus"
	"hggrip/internal/logger"
	"hggrip/internal/ui"
	"hggrip/internal/watch"
)

func runTUI(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	// the terminal belongs to the UI, so logs go to a file
	if cfg.LogFile == "" {
		logger.Disable()
	} else if closer, err := logger.ConfigureFile(logger.ParseLevel(cfg.LogLevel), cfg.LogFile); err != nil {
		logger.Disable()
	} else {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	model := ui.NewModel(a.mailbox, ui.Options{
		Dir:                absDir,
		PanelHeight:        cfg.UISettings.PanelHeight,
		ShowClosedBranches: cfg.UISettings.ShowClosedBranches,
	})
	d := commands.New(a.registry, a.exec, model, commands.WithBus(a.bus), commands.WithContext(ctx))
	model.SetDispatcher(d)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := ui.Forward(a.bus, p)
	defer unsubscribe()

	if cfg.Watch {
		w, err := watch.New(a.bus, 0)
		if err != nil {
			logger.Warnf("file watching disabled: %v", err)
		} else {
			defer w.Close()
			a.bus.Subscribe(eventbus.EventRepoDiscovered, func(e eventbus.DomainEvent) {
				if ev, ok := e.(eventbus.RepoDiscoveredEvent); ok {
					if err := w.WatchTree(ev.Repo.Path); err != nil {
						logger.Debugf("watch %s: %v", ev.Repo.Path, err)
					}
				}
			})
		}
	}

	ds := discovery.NewDiscoveryService(a.bus)
	if err := ds.StartScan(ctx, []string{absDir}); err != nil {
		return err
	}
	defer ds.StopScan()

	logger.Infof("Starting UI in %s", absDir)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	logger.Infof("UI exited normally")
	return nil
}
