// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"

	"github.com/xeipuuv/gojsonschema"
)

// metaSchema is the JSON Schema the raw registry document must satisfy before
// it is decoded. Structural errors are caught here; semantic rules (disjoint
// sets, weight sums) are checked in validateDocument.
const metaSchema = `{
	"type": "object",
	"required": ["schemaVersion", "schemas"],
	"properties": {
		"schemaVersion": {"type": "string", "minLength": 1},
		"lastUpdated": {"type": "string"},
		"schemas": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["visaType", "applicationType", "requiredEvaluationFields", "requiredDocuments", "categories"],
				"properties": {
					"visaType": {"type": "string", "minLength": 1},
					"applicationType": {"type": "string", "minLength": 1},
					"requiredEvaluationFields": {"type": "array", "items": {"type": "string"}},
					"optionalEvaluationFields": {"type": "array", "items": {"type": "string"}},
					"requiredAdministrativeFields": {"type": "array", "items": {"type": "string"}},
					"optionalAdministrativeFields": {"type": "array", "items": {"type": "string"}},
					"requiredDocuments": {"type": "array", "items": {"type": "string"}},
					"optionalDocuments": {"type": "array", "items": {"type": "string"}},
					"categories": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"required": ["name", "weight", "maxScore", "criteria"],
							"properties": {
								"name": {"type": "string", "minLength": 1},
								"weight": {"type": "number", "minimum": 0, "maximum": 1},
								"maxScore": {"type": "number", "minimum": 0}
							}
						}
					}
				}
			}
		}
	}
}`

// Registry holds an immutable snapshot of the visa rule document. Reload swaps
// the whole snapshot; readers never observe a half-updated rule set.
type Registry struct {
	snapshot atomic.Pointer[Snapshot]
}

// Snapshot is one fully-loaded, read-only registry state.
type Snapshot struct {
	Version     string
	LastUpdated string
	schemas     map[string]*VisaSchema
}

func key(visaType, applicationType string) string {
	return strings.ToUpper(strings.TrimSpace(visaType)) + "|" + strings.ToLower(strings.TrimSpace(applicationType))
}

// Load reads, validates and snapshots the registry file.
func Load(path string) (*Registry, error) {
	snap, err := loadSnapshot(path)
	if err != nil {
		return nil, err
	}
	r := &Registry{}
	r.snapshot.Store(snap)
	return r, nil
}

// NewFromDocument builds a registry from an in-memory document. Used by tests
// and by the registry-updater tool.
func NewFromDocument(doc *VisaRegistry) (*Registry, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	r := &Registry{}
	r.snapshot.Store(buildSnapshot(doc))
	return r, nil
}

// Reload re-reads the file and atomically swaps the snapshot.
func (r *Registry) Reload(path string) error {
	snap, err := loadSnapshot(path)
	if err != nil {
		return err
	}
	r.snapshot.Store(snap)
	return nil
}

// Snapshot returns the current immutable registry state.
func (r *Registry) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Lookup returns the schema for a (visaType, applicationType) pair.
func (s *Snapshot) Lookup(visaType, applicationType string) (*VisaSchema, bool) {
	schema, ok := s.schemas[key(visaType, applicationType)]
	return schema, ok
}

// Len returns the number of registered schemas.
func (s *Snapshot) Len() int {
	return len(s.schemas)
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(metaSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("registry schema validation: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("registry document invalid: %s", strings.Join(msgs, "; "))
	}

	var doc VisaRegistry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	if err := validateDocument(&doc); err != nil {
		return nil, err
	}

	return buildSnapshot(&doc), nil
}

func buildSnapshot(doc *VisaRegistry) *Snapshot {
	schemas := make(map[string]*VisaSchema, len(doc.Schemas))
	for i := range doc.Schemas {
		s := doc.Schemas[i]
		schemas[key(s.VisaType, s.ApplicationType)] = &s
	}
	return &Snapshot{
		Version:     doc.SchemaVersion,
		LastUpdated: doc.LastUpdated,
		schemas:     schemas,
	}
}

// validateDocument enforces the semantic invariants of the rule set.
func validateDocument(doc *VisaRegistry) error {
	if doc.SchemaVersion == "" {
		return fmt.Errorf("schemaVersion is required")
	}

	seen := make(map[string]bool, len(doc.Schemas))
	for i := range doc.Schemas {
		s := &doc.Schemas[i]
		k := key(s.VisaType, s.ApplicationType)
		if seen[k] {
			return fmt.Errorf("duplicate schema for %s/%s", s.VisaType, s.ApplicationType)
		}
		seen[k] = true

		if err := checkDisjoint(s.RequiredEvaluationFields, s.OptionalEvaluationFields); err != nil {
			return fmt.Errorf("%s/%s evaluation fields: %w", s.VisaType, s.ApplicationType, err)
		}
		if err := checkDisjoint(s.RequiredAdministrativeFields, s.OptionalAdministrativeFields); err != nil {
			return fmt.Errorf("%s/%s administrative fields: %w", s.VisaType, s.ApplicationType, err)
		}
		if err := checkDisjoint(s.RequiredDocuments, s.OptionalDocuments); err != nil {
			return fmt.Errorf("%s/%s documents: %w", s.VisaType, s.ApplicationType, err)
		}

		weightSum := 0.0
		for _, cat := range s.Categories {
			if cat.MaxScore < 0 {
				return fmt.Errorf("%s/%s category %q: negative maxScore", s.VisaType, s.ApplicationType, cat.Name)
			}
			for _, cr := range cat.Criteria {
				for _, th := range cr.Thresholds {
					if th.Points < 0 {
						return fmt.Errorf("%s/%s category %q field %q: negative threshold points", s.VisaType, s.ApplicationType, cat.Name, cr.Field)
					}
				}
				for v, p := range cr.ValuePoints {
					if p < 0 {
						return fmt.Errorf("%s/%s category %q field %q value %q: negative points", s.VisaType, s.ApplicationType, cat.Name, cr.Field, v)
					}
				}
				if cr.BoolPoints < 0 {
					return fmt.Errorf("%s/%s category %q field %q: negative bool points", s.VisaType, s.ApplicationType, cat.Name, cr.Field)
				}
			}
			weightSum += cat.Weight
		}
		if math.Abs(weightSum-1.0) > 0.001 {
			return fmt.Errorf("%s/%s: category weights sum to %.3f, want 1.0", s.VisaType, s.ApplicationType, weightSum)
		}
	}

	return nil
}

func checkDisjoint(required, optional []string) error {
	set := make(map[string]bool, len(required))
	for _, f := range required {
		set[f] = true
	}
	for _, f := range optional {
		if set[f] {
			return fmt.Errorf("%q is both required and optional", f)
		}
	}
	return nil
}
