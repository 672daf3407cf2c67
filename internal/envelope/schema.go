package envelope

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema names shipped with the binary.
const (
	SchemaEnvelope     = "envelope"
	SchemaFoodAnalysis = "food-analysis"
	SchemaReportDetail = "report-detail"
	SchemaWeightRecord = "weight-record"
)

// ErrSchemaMismatch wraps validation failures so callers can classify them as malformed.
var ErrSchemaMismatch = errors.New("schema mismatch")

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://apismoke.local/schema/"

// Validator holds compiled response schemas keyed by name.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
		if err := c.AddResource(schemaBaseURL+e.Name(), doc); err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		sch, err := c.Compile(schemaBaseURL + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = sch
	}
	return v, nil
}

var defaultValidator = sync.OnceValues(NewValidator)

// DefaultValidator returns a process-wide validator compiled on first use.
func DefaultValidator() (*Validator, error) {
	return defaultValidator()
}

// Names lists the available schema names in sorted order.
func (v *Validator) Names() []string {
	out := make([]string, 0, len(v.schemas))
	for n := range v.schemas {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Validate checks env's body against the named schema.
func (v *Validator) Validate(name string, env *Envelope) error {
	sch, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(env.Body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w (%s): %v", ErrSchemaMismatch, name, err)
	}
	return nil
}
