// Package config loads and validates the optional .zshscan.json file that
// controls default CLI behavior: which subcommands are enabled and whether
// debug logging is on by default.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config is the decoded, validated contents of a .zshscan.json file.
type Config struct {
	// Debug turns on the same logging init() gates via ZSHSCAN_DEBUG.
	Debug bool `json:"debug"`
	// EnabledCommands restricts cmd/zshscan to this subset when non-empty.
	// Valid entries: "tokens", "watch", "snapshot", "validate-config".
	EnabledCommands []string `json:"enabledCommands,omitempty"`
}

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "debug": {"type": "boolean"},
    "enabledCommands": {
      "type": "array",
      "items": {
        "type": "string",
        "enum": ["tokens", "watch", "snapshot", "validate-config"]
      },
      "uniqueItems": true
    }
  }
}`

var defaultCache = newValidatorCache(8)

// Load reads, schema-validates, and decodes the config file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse schema-validates and decodes config file contents already in memory.
func Parse(raw []byte) (*Config, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config json: %w", err)
	}

	v, err := getValidator()
	if err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	if err := v.Validate(doc); err != nil {
		return nil, fmt.Errorf("config does not match schema: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports the schema-validation error for raw config bytes, if
// any, without decoding into a Config. Used by `zshscan validate-config`.
func Validate(raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	v, err := getValidator()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	return v.Validate(doc)
}

// getValidator returns the compiled schema validator, using the
// content-hash cache to avoid recompiling the embedded schema on every
// call.
func getValidator() (*jsonschema.Schema, error) {
	hash := hashSchema(schemaJSON)
	if v, ok := defaultCache.get(hash); ok {
		return v, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	if err := compiler.AddResource("schema://zshscan-config.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("schema://zshscan-config.json")
	if err != nil {
		return nil, err
	}

	defaultCache.put(hash, schema)
	return schema, nil
}

func hashSchema(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
