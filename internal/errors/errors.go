package errors

import (
	"fmt"
	"strings"
)

// UserError is an error that should be shown to the user with helpful context.
type UserError struct {
	Message    string
	Details    string
	Suggestion string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError is a configuration error with helpful context.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// AWSError wraps an AWS SDK failure with a suggestion matched to the service
// that raised it.
func AWSError(service, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s error during %s", service, operation),
		Suggestion: awsSuggestion(service, err),
		Err:        err,
	}
}

// awsSuggestion maps common AWS failures to actionable next steps.
func awsSuggestion(service string, err error) string {
	errStr := err.Error()

	switch service {
	case "kms":
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for kms:GenerateDataKey and kms:Decrypt on the master key"
		}
		if strings.Contains(errStr, "NotFoundException") {
			return "Verify the key identifier. List aliases with: 'aws kms list-aliases'"
		}
		if strings.Contains(errStr, "DisabledException") {
			return "The master key is disabled. Re-enable it or configure a different key with --key"
		}

	case "dynamodb":
		if strings.Contains(errStr, "ResourceNotFoundException") {
			return "The credential table does not exist. Run 'credstore setup' to create it"
		}
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for dynamodb:GetItem, PutItem, Query, Scan and DeleteItem on the table"
		}
		if strings.Contains(errStr, "ProvisionedThroughputExceeded") {
			return "Table throughput exceeded. Raise the table's capacity or retry with backoff"
		}

	case "sts":
		if strings.Contains(errStr, "ExpiredToken") {
			return "Your AWS session has expired. Refresh your credentials and try again"
		}
	}

	if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "no EC2 IMDS role found") {
		return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
	}
	if strings.Contains(errStr, "ThrottlingException") {
		return "AWS rate limit exceeded. Wait a moment and try again"
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to reach AWS. Check your network, region and endpoint configuration"
	}

	return ""
}
