package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/systmms/credstore/internal/config"
	crederrors "github.com/systmms/credstore/internal/errors"
)

func NewGetAllCommand(cfg *config.Config) *cobra.Command {
	var (
		version    string
		contextKVs []string
		pattern    string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "getall",
		Short: "Fetch and decrypt every credential",
		Long: `Decrypt the newest version of every credential (or every credential whose
name matches a glob pattern) and print them as a single document.

The operation fails on the first credential that cannot be decrypted, so the
output is either complete or absent.

Examples:
  # Everything, as JSON
  credstore getall

  # Only the billing service's credentials, as YAML
  credstore getall --pattern 'billing-*' --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return crederrors.UserError{
					Message:    fmt.Sprintf("Unsupported output format %q", format),
					Suggestion: "Use --format json or --format yaml",
				}
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

			seq, err := svc.Search(cmd.Context(), pattern, ec, normalizeVersion(version))
			if err != nil {
				return err
			}

			out := map[string]string{}
			for named, err := range seq {
				if err != nil {
					return err
				}
				out[named.Name] = string(named.Secret)
			}

			switch format {
			case "yaml":
				return yaml.NewEncoder(os.Stdout).Encode(out)
			default:
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Fixed version to fetch for every name (default: newest per name)")
	cmd.Flags().StringArrayVar(&contextKVs, "context", nil, "Encryption context entry as key=value (repeatable)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob pattern restricting the credential names")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")

	return cmd
}
