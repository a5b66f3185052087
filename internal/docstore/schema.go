package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Role describes where a flavour may appear in a page's block tree.
type Role string

const (
	// RoleRoot blocks sit at the top of a page. A page has at most one.
	RoleRoot Role = "root"

	// RoleHub blocks group other blocks under the root.
	RoleHub Role = "hub"

	// RoleContent blocks hold user content.
	RoleContent Role = "content"
)

// Built-in block flavours.
const (
	FlavourPage      = "core:page"
	FlavourSurface   = "core:surface"
	FlavourFrame     = "core:frame"
	FlavourParagraph = "core:paragraph"
)

// BlockSchema declares a block flavour.
type BlockSchema struct {
	Flavour string
	Role    Role

	// Parents lists the flavours allowed as direct parent. Empty means any.
	Parents []string

	// Props is a JSON Schema document for the block's props. Empty accepts
	// any object.
	Props string

	// Defaults are merged into props before validation.
	Defaults map[string]any
}

type compiledSchema struct {
	BlockSchema
	validator *jsonschema.Schema
}

func compileSchema(s BlockSchema) (*compiledSchema, error) {
	if s.Flavour == "" {
		return nil, fmt.Errorf("schema flavour is empty")
	}
	switch s.Role {
	case RoleRoot, RoleHub, RoleContent:
	default:
		return nil, fmt.Errorf("schema %s: unknown role %q", s.Flavour, s.Role)
	}

	src := s.Props
	if src == "" {
		src = `{"type":"object"}`
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("schema %s: failed to parse props schema: %w", s.Flavour, err)
	}

	url := "mem://blockpad/schemas/" + s.Flavour + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema %s: failed to add props schema: %w", s.Flavour, err)
	}
	validator, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %s: failed to compile props schema: %w", s.Flavour, err)
	}

	return &compiledSchema{BlockSchema: s, validator: validator}, nil
}

// normalize applies defaults and validates props, returning the JSON form
// stored in the block.
func (s *compiledSchema) normalize(props map[string]any) (map[string]any, error) {
	merged := maps.Clone(s.Defaults)
	if merged == nil {
		merged = make(map[string]any, len(props))
	}
	maps.Copy(merged, props)

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProps, s.Flavour, err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProps, s.Flavour, err)
	}
	if err := s.validator.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProps, s.Flavour, err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProps, s.Flavour, err)
	}
	return out, nil
}

func (s *compiledSchema) allowsParent(flavour string) bool {
	return len(s.Parents) == 0 || slices.Contains(s.Parents, flavour)
}

// DefaultSchemas returns the built-in block flavours every workspace uses.
func DefaultSchemas() []BlockSchema {
	return []BlockSchema{
		{
			Flavour: FlavourPage,
			Role:    RoleRoot,
			Props: `{
				"type": "object",
				"properties": {"title": {"type": "string"}},
				"required": ["title"],
				"additionalProperties": false
			}`,
			Defaults: map[string]any{"title": ""},
		},
		{
			Flavour: FlavourSurface,
			Role:    RoleHub,
			Parents: []string{FlavourPage},
			Props: `{
				"type": "object",
				"properties": {"elements": {"type": "object"}}
			}`,
		},
		{
			Flavour: FlavourFrame,
			Role:    RoleHub,
			Parents: []string{FlavourPage},
			Props: `{
				"type": "object",
				"properties": {"xywh": {"type": "string"}}
			}`,
		},
		{
			Flavour: FlavourParagraph,
			Role:    RoleContent,
			Parents: []string{FlavourFrame},
			Props: `{
				"type": "object",
				"properties": {
					"type": {"enum": ["text", "quote", "h1", "h2", "h3"]},
					"text": {"type": "string"}
				},
				"required": ["type", "text"],
				"additionalProperties": false
			}`,
			Defaults: map[string]any{"type": "text", "text": ""},
		},
	}
}
