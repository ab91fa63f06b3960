package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/jsonc"
)

const DefaultPath = "pagebridge.jsonc"

// Config carries the repo-local defaults for a publishing target. The API
// key is deliberately absent: secrets come from flags or the environment.
type Config struct {
	API         string `json:"api"`
	User        string `json:"user"`
	Space       string `json:"space"`
	Branch      string `json:"branch"`
	ContentPath string `json:"contentPath"`
	GitDir      string `json:"gitDir"`
	State       string `json:"state"`
}

const schemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"api": {"type": "string"},
		"user": {"type": "string"},
		"space": {"type": "string"},
		"branch": {"type": "string"},
		"contentPath": {"type": "string"},
		"gitDir": {"type": "string"},
		"state": {"type": "string"}
	}
}`

// Load reads a JSONC config file and validates it against the schema.
// Callers decide whether a missing file matters; the error wraps
// os.ErrNotExist in that case.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	normalized := jsonc.ToJSON(data)

	document, err := jsonschema.UnmarshalJSON(bytes.NewReader(normalized))
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	schema, err := compileSchema()
	if err != nil {
		return cfg, err
	}
	if err := schema.Validate(document); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := json.Unmarshal(normalized, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	document, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("pagebridge-config.json", document); err != nil {
		return nil, err
	}
	return compiler.Compile("pagebridge-config.json")
}
