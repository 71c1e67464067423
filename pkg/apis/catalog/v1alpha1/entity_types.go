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

package v1alpha1

// EntityKind is the kind of a catalog record.
type EntityKind string

const (
	KindSystem    EntityKind = "System"
	KindComponent EntityKind = "Component"
	KindResource  EntityKind = "Resource"
	KindAPI       EntityKind = "API"
	KindTemplate  EntityKind = "Template"
)

// Entity is a single developer-catalog record.
//
// The layout mirrors the catalog's descriptor format: a kind-independent
// envelope with metadata, and a spec whose content depends on the kind.
type Entity struct {
	APIVersion string         `json:"apiVersion"`
	Kind       EntityKind     `json:"kind"`
	Metadata   EntityMetadata `json:"metadata"`

	// Spec holds the kind specific fields.
	Spec EntitySpec `json:"spec"`
}

// EntityMetadata contains the identifying and descriptive fields of a record.
type EntityMetadata struct {
	// Name must be at most MaxNameLength characters.
	Name        string            `json:"name"`
	Namespace   string            `json:"namespace,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Links       []Link            `json:"links,omitempty"`
}

// Link is an external link attached to a record.
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Type  string `json:"type,omitempty"`
}

// EntitySpec is the union of all supported record specs. Fields that do not
// apply to a kind are left empty and omitted on serialization.
type EntitySpec struct {
	Type           string   `json:"type,omitempty"`
	Lifecycle      string   `json:"lifecycle,omitempty"`
	Owner          string   `json:"owner,omitempty"`
	System         string   `json:"system,omitempty"`
	Domain         string   `json:"domain,omitempty"`
	SubcomponentOf string   `json:"subcomponentOf,omitempty"`
	DependsOn      []string `json:"dependsOn,omitempty"`
	ProvidesAPIs   []string `json:"providesApis,omitempty"`
	ConsumesAPIs   []string `json:"consumesApis,omitempty"`

	// Definition is the API description document (API records only).
	Definition string `json:"definition,omitempty"`

	// Parameters, Steps and Output describe a scaffolding template
	// (Template records only).
	Parameters []map[string]any `json:"parameters,omitempty"`
	Steps      []map[string]any `json:"steps,omitempty"`
	Output     map[string]any   `json:"output,omitempty"`
}

// Ref returns the "kind:namespace/name" reference of the entity.
func (e *Entity) Ref() string {
	ns := e.Metadata.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return string(e.Kind) + ":" + ns + "/" + e.Metadata.Name
}

// IsWorkloadRecord reports whether the entity is a Component or Resource,
// the two kinds that must reference a System.
func (e *Entity) IsWorkloadRecord() bool {
	return e.Kind == KindComponent || e.Kind == KindResource
}
