package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"go.viam.com/rgbd/logging"
)

// Read reads a config from the given file. Environment variables referenced as $VAR or
// ${VAR} are substituted first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
// Fields that are not present keep their factory value.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Default()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg.ConfigFilePath = originalPath
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		logger.Warnw("confidence_threshold is outside [0, 1]", "confidence_threshold", cfg.ConfidenceThreshold)
	}
	logger.Debugw("config read", "path", originalPath)
	return cfg, nil
}

// TransformAttributeMap uses an attribute map to transform attributes to the provided Go type.
// Keys are matched against json tags. Values already set in out are kept when the map does not
// mention them.
func TransformAttributeMap[T any](attributes map[string]interface{}, out T) (T, error) {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   out,
		Metadata: &md,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return out, err
	}
	if len(md.Unused) > 0 {
		return out, errors.Errorf("unknown attributes %v", md.Unused)
	}
	return out, nil
}

// FromAttributeMap builds a config from a loosely typed attribute map, such as the attributes of
// a robot component. Missing fields keep their factory value.
func FromAttributeMap(attributes map[string]interface{}) (*Config, error) {
	cfg, err := TransformAttributeMap(attributes, Default())
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode attributes")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Schema returns the JSON schema of the config file.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}

// SchemaJSON returns Schema indented as JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
