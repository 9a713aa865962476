package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"hggrip/internal/discovery"
	"hggrip/internal/logger"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "List the Mercurial repositories below a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		logger.Disable()

		repos, err := discovery.Scan(cmd.Context(), absDir)
		if err != nil {
			return err
		}
		for _, r := range repos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Name, r.Path)
		}
		return nil
	},
}
