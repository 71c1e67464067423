/*
Copyright 2025 The Catalog Ingestor contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package template

import (
	"fmt"
	"slices"
	"sort"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	utiljson "k8s.io/apimachinery/pkg/util/json"
)

// reservedStepsField is the spec field holding extra scaffolder steps. It
// is never rendered as a form field.
const reservedStepsField = "steps"

func decodeJSON(v *apiextensionsv1.JSON) any {
	if v == nil || len(v.Raw) == 0 {
		return nil
	}
	var out any
	if err := utiljson.Unmarshal(v.Raw, &out); err != nil {
		return string(v.Raw)
	}
	return out
}

func preservesUnknownFields(p *apiextensionsv1.JSONSchemaProps) bool {
	return p.XPreserveUnknownFields != nil && *p.XPreserveUnknownFields
}

func sortedNames(props map[string]apiextensionsv1.JSONSchemaProps) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fieldConverter turns OpenAPI schemas into form field schemas.
type fieldConverter struct {
	placeholders bool
}

// properties converts the properties of an object schema, leaving out the
// names in skip.
func (c fieldConverter) properties(p *apiextensionsv1.JSONSchemaProps, skip ...string) (map[string]any, []string) {
	props := map[string]any{}
	for _, name := range sortedNames(p.Properties) {
		if slices.Contains(skip, name) {
			continue
		}
		props[name] = c.field(name, p.Properties[name])
	}

	var required []string
	for _, name := range p.Required {
		if _, ok := props[name]; ok {
			required = append(required, name)
		}
	}
	return props, required
}

func (c fieldConverter) field(name string, p apiextensionsv1.JSONSchemaProps) map[string]any {
	out := map[string]any{}
	if name != "" {
		out["title"] = name
	}
	if p.Description != "" {
		out["description"] = p.Description
	}

	if preservesUnknownFields(&p) && len(p.Properties) == 0 {
		out["type"] = "string"
		out["ui:widget"] = "textarea"
		return out
	}

	if p.Type != "" {
		out["type"] = p.Type
	}
	if p.Format != "" {
		out["format"] = p.Format
	}
	if p.Pattern != "" {
		out["pattern"] = p.Pattern
	}
	if p.Minimum != nil {
		out["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		out["maximum"] = *p.Maximum
	}
	if p.MinLength != nil {
		out["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		out["maxLength"] = *p.MaxLength
	}
	if p.MinItems != nil {
		out["minItems"] = *p.MinItems
	}
	if p.MaxItems != nil {
		out["maxItems"] = *p.MaxItems
	}
	if len(p.Enum) > 0 {
		enum := make([]any, 0, len(p.Enum))
		for i := range p.Enum {
			enum = append(enum, decodeJSON(&p.Enum[i]))
		}
		out["enum"] = enum
	}
	if def := decodeJSON(p.Default); def != nil {
		c.setDefault(out, def)
	}

	switch p.Type {
	case "object":
		c.object(out, &p)
	case "array":
		if p.Items != nil && p.Items.Schema != nil {
			out["items"] = c.field("", *p.Items.Schema)
		}
	}
	return out
}

// setDefault stores def as default, or as placeholder text for scalar
// values when placeholders are requested.
func (c fieldConverter) setDefault(out map[string]any, def any) {
	if c.placeholders {
		switch def.(type) {
		case map[string]any, []any:
		default:
			out["ui:placeholder"] = fmt.Sprint(def)
			return
		}
	}
	out["default"] = def
}

// object fills in the properties of an object field. Objects with an
// "enabled" switch only show their other fields while it is on.
func (c fieldConverter) object(out map[string]any, p *apiextensionsv1.JSONSchemaProps) {
	if len(p.Properties) == 0 {
		if p.AdditionalProperties != nil && p.AdditionalProperties.Schema != nil {
			out["additionalProperties"] = c.field("", *p.AdditionalProperties.Schema)
		}
		return
	}

	enabled, ok := p.Properties["enabled"]
	if !ok || enabled.Type != "boolean" || len(p.Properties) == 1 {
		props, required := c.properties(p)
		out["properties"] = props
		if len(required) > 0 {
			out["required"] = required
		}
		return
	}

	out["properties"] = map[string]any{"enabled": c.field("enabled", enabled)}
	if slices.Contains(p.Required, "enabled") {
		out["required"] = []string{"enabled"}
	}

	siblings, required := c.properties(p, "enabled")
	siblings["enabled"] = map[string]any{"const": true}
	whenEnabled := map[string]any{"properties": siblings}
	if len(required) > 0 {
		whenEnabled["required"] = required
	}

	out["dependencies"] = map[string]any{
		"enabled": map[string]any{
			"oneOf": []any{
				whenEnabled,
				map[string]any{"properties": map[string]any{"enabled": map[string]any{"const": false}}},
			},
		},
	}
}

// extraSteps returns the scaffolder steps declared as default of the
// reserved steps field of a spec schema.
func extraSteps(spec *apiextensionsv1.JSONSchemaProps) ([]map[string]any, error) {
	if spec == nil {
		return nil, nil
	}
	field, ok := spec.Properties[reservedStepsField]
	if !ok || field.Default == nil || len(field.Default.Raw) == 0 {
		return nil, nil
	}

	var steps []map[string]any
	if err := utiljson.Unmarshal(field.Default.Raw, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode default of %s: %w", reservedStepsField, err)
	}
	return steps, nil
}
