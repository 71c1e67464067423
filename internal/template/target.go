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
	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/schema"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
)

const (
	ActionClaimTemplate = "terasky:claim-template"
	ActionCRDTemplate   = "terasky:crd-template"
)

// Settings are the per-source options of template generation.
type Settings struct {
	IngestOnlyAsAPI                    bool
	ConvertDefaultValuesToPlaceholders bool
	PublishPhase                       config.PublishPhase
}

// SettingsFor returns the settings configured for descriptors of source.
func SettingsFor(cfg *config.Config, source schema.Source) Settings {
	switch source {
	case schema.SourceXRD:
		x := cfg.Crossplane.XRDs
		return Settings{x.IngestOnlyAsAPI, x.ConvertDefaultValuesToPlaceholders, x.PublishPhase}
	case schema.SourceRGD:
		r := cfg.KRO.RGDs
		return Settings{r.IngestOnlyAsAPI, r.ConvertDefaultValuesToPlaceholders, r.PublishPhase}
	default:
		g := cfg.GenericCRDTemplates
		return Settings{g.IngestOnlyAsAPI, g.ConvertDefaultValuesToPlaceholders, g.PublishPhase}
	}
}

// target is the resource users create from a template: the claim for
// legacy composites offering one, the defined resource otherwise.
type target struct {
	Group      string
	Version    string
	Kind       string
	Plural     string
	Namespaced bool
	Schema     *apiextensionsv1.JSONSchemaProps
}

func (t target) APIVersion() string {
	if t.Group == "" {
		return t.Version
	}
	return t.Group + "/" + t.Version
}

func targetFor(d *schema.Descriptor, v schema.Version) target {
	t := target{
		Group:      d.Group,
		Version:    v.Name,
		Kind:       d.Kind,
		Plural:     d.Plural,
		Namespaced: d.Namespaced(),
		Schema:     v.Schema,
	}
	if d.IsLegacy() && d.ClaimNames != nil {
		t.Kind = d.ClaimNames.Kind
		t.Plural = d.ClaimNames.Plural
		t.Namespaced = true
	}
	return t
}

// manifestAction returns the scaffolder action generating the manifest.
func manifestAction(d *schema.Descriptor) string {
	if d.IsLegacy() {
		return ActionClaimTemplate
	}
	return ActionCRDTemplate
}

// sourceTag is the tag and template type prefix of a descriptor source.
func sourceTag(source schema.Source) string {
	switch source {
	case schema.SourceXRD:
		return "crossplane"
	case schema.SourceRGD:
		return "kro"
	default:
		return "crd"
	}
}

// specSchema returns the schema of the spec field of a version, or nil.
func specSchema(s *apiextensionsv1.JSONSchemaProps) *apiextensionsv1.JSONSchemaProps {
	if s == nil {
		return nil
	}
	spec, ok := s.Properties["spec"]
	if !ok {
		return nil
	}
	return &spec
}
