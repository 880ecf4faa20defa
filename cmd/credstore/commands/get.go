package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/credstore/internal/config"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		version    string
		contextKVs []string
		jsonOutput bool
		noNewline  bool
	)

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Fetch and decrypt a credential",
		Long: `Fetch one credential, decrypt it and print the plaintext to stdout.

Without --version the newest stored version is returned. A credential stored
with an encryption context can only be decrypted by supplying the same
context.

Examples:
  # Get the newest version
  credstore get db-password

  # Get a specific version
  credstore get db-password --version 2

  # Use in scripts
  export DB_PASS=$(credstore get db-password -n)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

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

			secret, err := svc.Get(cmd.Context(), name, ec, normalizeVersion(version))
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(map[string]string{
					"name":  name,
					"value": string(secret),
				})
			}

			fmt.Print(string(secret))
			if !noNewline {
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Version to fetch (default: newest)")
	cmd.Flags().StringArrayVar(&contextKVs, "context", nil, "Encryption context entry as key=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output name and value as JSON")
	cmd.Flags().BoolVarP(&noNewline, "no-newline", "n", false, "Do not append a trailing newline")

	return cmd
}
