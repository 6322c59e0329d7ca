package skill

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema/skill.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// ValidationResult is the outcome of validating one manifest.
type ValidationResult struct {
	Valid  bool
	Issues []string
}

// getSchema compiles the embedded JSON schema once.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("skill.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("skill.schema.json")
	})
	return compiledSchema, compileErr
}

// Validate checks dir/skill.yaml against the manifest schema. The error
// return covers I/O and schema compilation; manifest problems land in
// the result's Issues.
func Validate(dir string) (*ValidationResult, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ValidateBytes(data)
}

// ValidateBytes validates raw manifest YAML.
func ValidateBytes(data []byte) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return &ValidationResult{Issues: []string{"not valid YAML: " + err.Error()}}, nil
	}

	// Round-trip through JSON so the validator sees json.Number and
	// string-keyed maps rather than YAML's native types.
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert manifest to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("prepare manifest for validation: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nil, err
		}
		return &ValidationResult{Issues: leafIssues(ve)}, nil
	}
	return &ValidationResult{Valid: true}, nil
}

// leafIssues flattens the validator's error tree into one message per
// failing leaf.
func leafIssues(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		return []string{ve.Error()}
	}
	var issues []string
	for _, cause := range ve.Causes {
		issues = append(issues, leafIssues(cause)...)
	}
	return issues
}
