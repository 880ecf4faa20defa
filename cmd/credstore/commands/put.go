package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/credstore/internal/config"
	crederrors "github.com/systmms/credstore/internal/errors"
)

func NewPutCommand(cfg *config.Config) *cobra.Command {
	var (
		version    string
		contextKVs []string
	)

	cmd := &cobra.Command{
		Use:   "put <name> <value>",
		Short: "Store a new version of a credential",
		Long: `Encrypt a credential value and store it as a new immutable version.

Without --version the next version number is assigned automatically. Use "-"
as the value to read the secret from stdin, keeping it out of shell history.

Examples:
  # Store with an auto-assigned version
  credstore put db-password hunter2

  # Read the value from stdin
  cat id_rsa | credstore put deploy-key -

  # Bind the credential to an encryption context
  credstore put db-password hunter2 --context env=prod --context app=billing`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			value := []byte(args[1])
			if args[1] == "-" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return crederrors.UserError{
						Message: "Failed to read credential value from stdin",
						Details: err.Error(),
						Err:     err,
					}
				}
				value = data
			}

			ec, err := parseContext(contextKVs)
			if err != nil {
				return err
			}

			if err := cfg.Load(); err != nil {
				return err
			}

			svc, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			written, err := svc.Put(cmd.Context(), name, value, ec, normalizeVersion(version))
			if err != nil {
				return err
			}

			cfg.Logger.Info("%s has been stored (version %s)", name, written)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Explicit version (default: auto-increment)")
	cmd.Flags().StringArrayVar(&contextKVs, "context", nil, "Encryption context entry as key=value (repeatable)")

	return cmd
}
