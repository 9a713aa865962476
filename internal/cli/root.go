package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"hggrip/internal/config"
	"hggrip/internal/ui"
)

var (
	configPath string
	hgPath     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "hggrip [dir]",
	Short: "Terminal front-end for Mercurial repositories",
	Long: `# hggrip

**A terminal front-end for Mercurial** that talks to one command server per repository.

- Finds every repository below **dir** (the current directory by default)
- Runs one command at a time, streaming output as it arrives
- Answers questions from Mercurial in a dialog
- Keeps the branch status of the selected repository up to date

Press **H** inside the UI for the key reference.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

// Execute runs the command line
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is the user config directory)")
	rootCmd.PersistentFlags().StringVar(&hgPath, "hg", "", "Mercurial executable")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMarkdown(helpMarkdown(cmd), terminalWidth(), ""))
	})

	rootCmd.AddCommand(runCmd, scanCmd, opsCmd)
}

// helpMarkdown describes cmd as markdown for glamour
func helpMarkdown(cmd *cobra.Command) string {
	var b strings.Builder
	if cmd.Long != "" {
		b.WriteString(cmd.Long)
	} else {
		b.WriteString("# " + cmd.Short)
	}
	b.WriteString("\n\n## Usage\n\n```\n" + cmd.UseLine() + "\n```\n\n")

	if cmd.HasAvailableSubCommands() {
		b.WriteString("## Commands\n\n")
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				fmt.Fprintf(&b, "- **%s** - %s\n", sub.Name(), sub.Short)
			}
		}
		b.WriteString("\n")
	}
	if flags := cmd.Flags().FlagUsages(); flags != "" {
		b.WriteString("## Flags\n\n```\n" + flags + "```\n")
	}
	return b.String()
}

func terminalWidth() int {
	var cols int
	if _, err := fmt.Sscan(os.Getenv("COLUMNS"), &cols); err == nil && cols > 0 {
		return cols
	}
	return 80
}

// loadConfig reads the config file and applies flag overrides
func loadConfig() (*config.Config, config.ConfigService, error) {
	svc := config.NewConfigServiceWithBus(nil, configPath)
	cfg, err := svc.Load()
	if err != nil {
		return nil, nil, err
	}
	if hgPath != "" {
		cfg.HgPath = hgPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}
