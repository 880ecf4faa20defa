package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/credstore/internal/config"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [pattern]",
		Short: "List credential names and their newest versions",
		Long: `List stored credential names with their newest version number. Nothing is
decrypted. An optional glob pattern restricts the names.

Examples:
  # Everything
  credstore list

  # Only database credentials
  credstore list 'db-*'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}

			if err := cfg.Load(); err != nil {
				return err
			}

			svc, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			seq, err := svc.List(cmd.Context(), pattern)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			count := 0
			for nv, err := range seq {
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\tversion %s\n", nv.Name, displayVersion(nv.Version))
				count++
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if count == 0 {
				cfg.Logger.Info("no credentials found")
			}
			return nil
		},
	}

	return cmd
}

// displayVersion strips the zero padding for humans; non-numeric versions
// print as stored.
func displayVersion(version string) string {
	if n, err := strconv.ParseUint(version, 10, 64); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return version
}
