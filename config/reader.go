package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// Read reads and validates the JSON configuration file at path. Environment variable references
// such as ${LOG_DIR} are expanded before parsing.
func Read(path string) (*Config, error) {
	data, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config file %q", path)
	}
	cfg, err := FromReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config file %q", path)
	}
	return cfg, nil
}

// FromReader decodes and validates a JSON configuration on top of the defaults. Unknown keys are
// rejected.
func FromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse config")
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromAttributes decodes and validates a configuration from a generic attribute map, as produced
// by other configuration sources, on top of the defaults. Unknown keys are rejected.
func FromAttributes(attributes map[string]interface{}) (*Config, error) {
	cfg := Default()
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           cfg,
		Metadata:         &md,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "cannot decode config attributes")
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Schema returns the JSON schema of the configuration file.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
