package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hggrip/internal/commands"
	"hggrip/internal/logger"
)

var (
	runDir    string
	runNoEdit bool
	verbose   bool
)

var runCmd = &cobra.Command{
	Use:   "run <operation> [key=value...]",
	Short: "Run one operation without the UI",
	Long: `# Run an operation

Runs a single operation against the repository containing **--dir** and waits
for it, and for anything it triggers, to finish.

Flags of an operation are given as **key=value**, for example

- **hggrip run pull update=true**
- **hggrip run commit message="fix build" close_branch=true**
- **hggrip run update rev=tip**

The exit status is non-zero when any hg command of the run failed.

Use **hggrip ops** to list the operations.`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeOps,
	RunE:              runOperation,
}

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the operations accepted by run",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range commands.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	runCmd.Flags().StringVarP(&runDir, "dir", "d", ".", "directory inside the repository")
	runCmd.Flags().BoolVar(&runNoEdit, "no-edit", false, "commit the prepared message without opening an editor")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}

func completeOps(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return commands.Names(), cobra.ShellCompDirectiveNoFileComp
}

// parseParams turns key=value arguments into operation params. A bare key
// is a true flag.
func parseParams(args []string) (commands.Params, error) {
	p := commands.Params{}
	for _, arg := range args {
		k, v, found := strings.Cut(arg, "=")
		if k == "" {
			return nil, fmt.Errorf("invalid argument %q, want key=value", arg)
		}
		if !found {
			p[k] = true
			continue
		}
		if b, err := strconv.ParseBool(v); err == nil {
			p[k] = b
		} else {
			p[k] = v
		}
	}
	return p, nil
}

func runOperation(cmd *cobra.Command, args []string) error {
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}
	dir, err := filepath.Abs(runDir)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if verbose {
		logger.Configure(logger.ParseLevel(cfg.LogLevel), os.Stderr, true)
	} else {
		logger.Disable()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	r := newConsoleRenderer(cmd.InOrStdin(), cmd.OutOrStdout())
	if !runNoEdit {
		r.editor = externalEditor
	}
	d := commands.New(a.registry, a.tracker, r, commands.WithBus(a.bus), commands.WithContext(ctx))
	r.onClose = func(title, text string) { d.OnViewClosed(title, text) }

	return execute(ctx, a, d, args[0], commands.Target{File: dir, Folder: dir}, params)
}

func execute(ctx context.Context, a *app, d *commands.Dispatcher, op string, t commands.Target, p commands.Params) error {
	err := d.Dispatch(op, t, p)
	if errors.Is(err, commands.ErrNoServer) {
		return fmt.Errorf("%s is not inside a Mercurial repository", t.Folder)
	}
	if err != nil {
		return err
	}
	if err := a.settle(ctx); err != nil {
		return err
	}
	return a.tracker.Err()
}
