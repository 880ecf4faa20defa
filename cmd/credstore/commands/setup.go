package commands

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/systmms/credstore/internal/awsclient"
	"github.com/systmms/credstore/internal/config"
	crederrors "github.com/systmms/credstore/internal/errors"
)

func NewSetupCommand(cfg *config.Config) *cobra.Command {
	var (
		readCapacity  int64
		writeCapacity int64
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the credential table",
		Long: `Create the DynamoDB credential table and wait for it to become active.
Safe to run repeatedly; an existing table is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := cfg.Load(); err != nil {
				return err
			}

			// Verify the credentials resolve before touching DynamoDB, so a
			// broken profile fails with a clear message instead of a table
			// creation error.
			awsCfg, err := awsclient.Load(ctx, awsOptions(cfg))
			if err != nil {
				return err
			}
			stsClient := sts.NewFromConfig(awsCfg, func(o *sts.Options) {
				if endpoint := cfg.Endpoint(); endpoint != "" {
					o.BaseEndpoint = aws.String(endpoint)
				}
			})
			identity, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
			if err != nil {
				return crederrors.AWSError("sts", "GetCallerIdentity", err)
			}
			cfg.Logger.Debug("authenticated as %s", aws.ToString(identity.Arn))

			st, err := newStore(ctx, cfg)
			if err != nil {
				return err
			}

			cfg.Logger.Info("creating table %s if missing...", cfg.Table())
			created, err := st.Setup(ctx, readCapacity, writeCapacity)
			if err != nil {
				return err
			}

			if created {
				cfg.Logger.Info("table %s created and active", cfg.Table())
			} else {
				cfg.Logger.Info("table %s already exists", cfg.Table())
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&readCapacity, "read-capacity", 1, "Provisioned read capacity units for a new table")
	cmd.Flags().Int64Var(&writeCapacity, "write-capacity", 1, "Provisioned write capacity units for a new table")

	return cmd
}
