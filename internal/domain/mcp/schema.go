package mcp

import "encoding/json"

// jsonSchema is the subset of JSON Schema used to describe tool inputs.
type jsonSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*jsonSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *jsonSchema            `json:"items,omitempty"`
	MinLength   int                    `json:"minLength,omitempty"`
	MaxLength   int                    `json:"maxLength,omitempty"`
	Default     any                    `json:"default,omitempty"`
}

// InputSchema renders the operation's fields as a JSON Schema object.
// It is derived from the same declarations the validator enforces.
func (o *Operation) InputSchema() json.RawMessage {
	schema := jsonSchema{
		Type:       "object",
		Properties: make(map[string]*jsonSchema, len(o.Fields)),
	}

	for _, f := range o.Fields {
		prop := &jsonSchema{
			Description: f.Description,
			Default:     f.Default,
		}
		switch f.Type {
		case FieldStringArray:
			prop.Type = "array"
			prop.Items = &jsonSchema{Type: "string"}
		default:
			prop.Type = "string"
			prop.MinLength = f.MinLength
			prop.MaxLength = f.MaxLength
		}
		schema.Properties[f.Name] = prop

		if f.Required {
			schema.Required = append(schema.Required, f.Name)
		}
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return data
}

// ToolDefinition renders the operation for tools/list.
func (o *Operation) ToolDefinition() ToolDefinition {
	return ToolDefinition{
		Name:        o.Name,
		Description: o.Description,
		InputSchema: o.InputSchema(),
	}
}

// PromptDefinition renders the operation for prompts/list.
func (o *Operation) PromptDefinition() PromptDefinition {
	def := PromptDefinition{
		Name:        o.Name,
		Description: o.Description,
	}
	for _, f := range o.Fields {
		def.Arguments = append(def.Arguments, PromptArgument{
			Name:        f.Name,
			Description: f.Description,
			Required:    f.Required,
		})
	}
	return def
}
