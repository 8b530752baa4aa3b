// Package schema validates activity payloads against the embedded JSON
// Schemas, one per activity tag.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"incentives/internal/domain"
)

//go:embed schemas/*.schema.json
var schemasFS embed.FS

const baseURL = "https://incentives.local/schemas/"

// Validator holds one compiled schema per activity.
type Validator struct {
	schemas map[domain.Activity]*jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	v := &Validator{schemas: map[domain.Activity]*jsonschema.Schema{}}
	for _, a := range domain.Activities {
		name := string(a) + ".schema.json"
		data, err := schemasFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", a, err)
		}
		if err := c.AddResource(baseURL+name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		s, err := c.Compile(baseURL + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[a] = s
	}
	return v, nil
}

// ValidateJSON checks raw payload JSON against the schema of activity.
func (v *Validator) ValidateJSON(activity domain.Activity, raw []byte) error {
	s, ok := v.schemas[activity]
	if !ok {
		return fmt.Errorf("no schema for activity %q", activity)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%s features are not valid JSON: %w", activity, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s features: %w", activity, err)
	}
	return nil
}

// Validate serializes e's features the way a seed script stores them and
// checks the result.
func (v *Validator) Validate(e domain.Event) error {
	if e.Features == nil {
		return fmt.Errorf("%s event has no features", e.Activity)
	}
	if e.Features.Activity() != e.Activity {
		return fmt.Errorf("features for %s stored under %s", e.Features.Activity(), e.Activity)
	}
	raw, err := domain.MarshalFeatures(e.Features)
	if err != nil {
		return err
	}
	return v.ValidateJSON(e.Activity, raw)
}
