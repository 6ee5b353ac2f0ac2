// Package schema validates the canonical command envelope and result
// wire shapes against a JSON-Schema, grounded on the JSON-Schema
// validation idiom several repos in the retrieval pack depend on
// (github.com/xeipuuv/gojsonschema) for request/response validation at
// a service boundary.
//
// Validation is on by default and gated by the NINELIVES_SCHEMA_VALIDATION
// environment variable: a value of "0" or "false" disables it, anything
// else (including unset) keeps it on, per the core's environment-toggle
// contract.
package schema

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// EnvToggle names the environment variable gating runtime schema
// validation.
const EnvToggle = "NINELIVES_SCHEMA_VALIDATION"

const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "ninelives.CommandEnvelope",
  "type": "object",
  "required": ["id", "cmd"],
  "properties": {
    "id":   { "type": "string" },
    "cmd":  { "type": "string", "minLength": 1 },
    "args": { "type": "object", "additionalProperties": { "type": "string" } },
    "auth": {}
  },
  "additionalProperties": false
}`

const resultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "ninelives.Result",
  "type": "object",
  "required": ["result"],
  "properties": {
    "result":  { "type": "string", "enum": ["ack", "value", "list", "reset", "error"] },
    "value":   { "type": "string" },
    "items":   { "type": "array", "items": { "type": "string" } },
    "message": { "type": "string" },
    "kind": {
      "type": "object",
      "required": ["kind", "msg"],
      "properties": {
        "kind": { "type": "string" },
        "msg":  { "type": "string" }
      }
    }
  },
  "additionalProperties": false
}`

var (
	once             sync.Once
	envelopeSchemaLd *gojsonschema.Schema
	resultSchemaLd   *gojsonschema.Schema
	loadErr          error
)

func load() {
	envLoader := gojsonschema.NewStringLoader(envelopeSchema)
	resLoader := gojsonschema.NewStringLoader(resultSchema)

	var err error

	envelopeSchemaLd, err = gojsonschema.NewSchema(envLoader)
	if err != nil {
		loadErr = fmt.Errorf("schema: compile envelope schema: %w", err)
		return
	}

	resultSchemaLd, err = gojsonschema.NewSchema(resLoader)
	if err != nil {
		loadErr = fmt.Errorf("schema: compile result schema: %w", err)
		return
	}
}

// Enabled reports whether runtime schema validation is currently
// switched on per [EnvToggle]. The core reads this at every validation
// point rather than caching it once, so an operator can flip the
// toggle without restarting the process.
func Enabled() bool {
	v, ok := os.LookupEnv(EnvToggle)
	if !ok {
		return true
	}

	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false":
		return false
	default:
		return true
	}
}

// ValidateEnvelope validates raw (the canonical wire JSON of a
// CommandEnvelope) against the envelope schema. It is a no-op
// succeeding validation when [Enabled] returns false.
func ValidateEnvelope(raw []byte) error {
	if !Enabled() {
		return nil
	}

	once.Do(load)

	if loadErr != nil {
		return loadErr
	}

	return validate(envelopeSchemaLd, raw)
}

// ValidateResult validates raw (the canonical wire JSON of a Result)
// against the result schema. It is a no-op succeeding validation when
// [Enabled] returns false.
func ValidateResult(raw []byte) error {
	if !Enabled() {
		return nil
	}

	once.Do(load)

	if loadErr != nil {
		return loadErr
	}

	return validate(resultSchemaLd, raw)
}

func validate(s *gojsonschema.Schema, raw []byte) error {
	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema: validate: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}

		return &ValidationError{Errors: msgs}
	}

	return nil
}

// ValidationError reports one or more schema-validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema: validation failed: %s", strings.Join(e.Errors, "; "))
}
