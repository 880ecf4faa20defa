package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/systmms/credstore/internal/awsclient"
	"github.com/systmms/credstore/internal/config"
	"github.com/systmms/credstore/internal/dynamo"
	"github.com/systmms/credstore/internal/envelope"
	crederrors "github.com/systmms/credstore/internal/errors"
	"github.com/systmms/credstore/internal/kms"
	"github.com/systmms/credstore/internal/metrics"
	"github.com/systmms/credstore/internal/secrets"
	"github.com/systmms/credstore/internal/sequence"
	"github.com/systmms/credstore/pkg/credential"
)

// normalizeVersion pads numeric versions to the stored zero-padded form so
// users can write --version 2 instead of the full sort key. Non-numeric
// versions pass through verbatim.
func normalizeVersion(version string) string {
	if version == "" {
		return ""
	}
	if n, err := strconv.ParseUint(version, 10, 64); err == nil {
		return sequence.Pad(n)
	}
	return version
}

// parseContext turns repeated key=value flags into an encryption context.
func parseContext(pairs []string) (credential.Context, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	ec := make(credential.Context, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, crederrors.UserError{
				Message:    fmt.Sprintf("Invalid encryption context entry %q", pair),
				Suggestion: "Pass context entries as --context key=value",
			}
		}
		ec[key] = value
	}
	return ec, nil
}

func awsOptions(cfg *config.Config) awsclient.Options {
	def := cfg.Definition
	return awsclient.Options{
		Region:          cfg.Region(),
		Endpoint:        cfg.Endpoint(),
		AccessKeyID:     def.AccessKeyID,
		SecretAccessKey: def.SecretAccessKey,
	}
}

// newStore builds the DynamoDB store from the loaded configuration.
func newStore(ctx context.Context, cfg *config.Config) (*dynamo.Store, error) {
	return dynamo.New(ctx, cfg.Table(), awsOptions(cfg))
}

// buildService wires configuration, KMS and DynamoDB into the credential
// service. The configuration must already be loaded.
func buildService(ctx context.Context, cfg *config.Config) (*secrets.Service, error) {
	metrics.Init()

	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	keys, err := kms.New(ctx, awsOptions(cfg))
	if err != nil {
		return nil, err
	}

	cipher := envelope.New(keys, cfg.KMSKeyID())
	return secrets.New(st, cipher, cfg.Logger), nil
}
