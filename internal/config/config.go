// Package config loads the credstore.yaml definition file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	crederrors "github.com/systmms/credstore/internal/errors"
	"github.com/systmms/credstore/internal/logging"
)

// Defaults applied when the configuration file is absent or partial.
const (
	DefaultPath     = "credstore.yaml"
	DefaultTable    = "credential-store"
	DefaultKMSKeyID = "alias/credstore"
)

// Config holds the runtime configuration.
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition

	// Command line overrides taking precedence over the definition file.
	TableOverride    string
	RegionOverride   string
	KeyOverride      string
	EndpointOverride string
}

// Table resolves the table name: flag over file over default.
func (c *Config) Table() string {
	if c.TableOverride != "" {
		return c.TableOverride
	}
	return c.Definition.Table
}

// Region resolves the AWS region; empty means the SDK default chain decides.
func (c *Config) Region() string {
	if c.RegionOverride != "" {
		return c.RegionOverride
	}
	return c.Definition.Region
}

// KMSKeyID resolves the master key identifier: flag over file over default.
func (c *Config) KMSKeyID() string {
	if c.KeyOverride != "" {
		return c.KeyOverride
	}
	return c.Definition.KMSKeyID
}

// Endpoint resolves the custom AWS endpoint, if any.
func (c *Config) Endpoint() string {
	if c.EndpointOverride != "" {
		return c.EndpointOverride
	}
	return c.Definition.Endpoint
}

// Definition represents the credstore.yaml structure.
type Definition struct {
	Version         int    `yaml:"version"`
	Table           string `yaml:"table,omitempty"`
	Region          string `yaml:"region,omitempty"`
	KMSKeyID        string `yaml:"kmsKeyId,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"accessKeyId,omitempty"`
	SecretAccessKey string `yaml:"secretAccessKey,omitempty"`
}

// schema validates the credstore.yaml shape before the definition is used.
const schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "version": {"type": "integer"},
    "table": {"type": "string", "minLength": 1},
    "region": {"type": "string"},
    "kmsKeyId": {"type": "string", "minLength": 1},
    "endpoint": {"type": "string"},
    "accessKeyId": {"type": "string"},
    "secretAccessKey": {"type": "string"}
  },
  "additionalProperties": false
}`

// Load reads and parses the credstore.yaml file. A missing file at the
// default path is not an error; the defaults apply.
func (c *Config) Load() error {
	path := c.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if !explicit {
				c.Definition = withDefaults(Definition{})
				return nil
			}
			return crederrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Create a credstore.yaml or pass the table and key on the command line",
			}
		}
		return crederrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := parse(data)
	if err != nil {
		return err
	}

	c.Definition = withDefaults(*def)
	return nil
}

func parse(data []byte) (*Definition, error) {
	// Round-trip through a generic map so the schema sees the raw document,
	// unknown keys included.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, crederrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if raw == nil {
		raw = map[string]interface{}{}
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, crederrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != 0 {
		return nil, crederrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your credstore.yaml file",
		}
	}

	return &def, nil
}

func validate(raw map[string]interface{}) error {
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return crederrors.ConfigError{
			Message:    "configuration does not match the expected schema:\n  - " + strings.Join(errorMessages, "\n  - "),
			Suggestion: "Valid keys are: version, table, region, kmsKeyId, endpoint, accessKeyId, secretAccessKey",
		}
	}

	return nil
}

func withDefaults(def Definition) *Definition {
	if def.Table == "" {
		def.Table = DefaultTable
	}
	if def.KMSKeyID == "" {
		def.KMSKeyID = DefaultKMSKeyID
	}
	return &def
}
