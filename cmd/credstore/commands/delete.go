package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/credstore/internal/config"
)

func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete every version of a credential",
		Long: `Remove all stored versions of a credential. Deleting a credential that
does not exist is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if err := cfg.Load(); err != nil {
				return err
			}

			svc, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if err := svc.Delete(cmd.Context(), name); err != nil {
				return err
			}

			cfg.Logger.Info("%s has been deleted", name)
			return nil
		},
	}

	return cmd
}
