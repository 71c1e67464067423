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

// Package template generates scaffolding templates and API descriptions
// for the resources defined by CRDs, XRDs and RGDs.
package template

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/schema"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	kerrors "k8s.io/apimachinery/pkg/util/errors"
)

type Options struct {
	Log    *zap.SugaredLogger
	Config *config.Config
}

func (o *Options) validate() error {
	if o.Log == nil {
		return fmt.Errorf("log cannot be nil")
	}
	if o.Config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	return nil
}

// Generator turns schema descriptors into Template and API records.
type Generator struct {
	log *zap.SugaredLogger
	cfg *config.Config
}

func NewGenerator(opts Options) (*Generator, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("failed to create template generator: %w", err)
	}
	return &Generator{log: opts.Log, cfg: opts.Config}, nil
}

// Generate returns a Template (unless the source is configured to be
// ingested as API only) and an API record per served version of d.
// Versions that fail to render are reported in the returned error; the
// records of all other versions are still returned.
func (g *Generator) Generate(d *schema.Descriptor) ([]catalogv1alpha1.Entity, error) {
	settings := SettingsFor(g.cfg, d.Source)

	var entities []catalogv1alpha1.Entity
	var errs []error

	for _, v := range d.ServedVersions() {
		if !settings.IngestOnlyAsAPI {
			tmpl, err := g.Template(d, v, settings)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to generate template for %s version %s: %w", d.Name, v.Name, err))
			} else {
				entities = append(entities, tmpl)
			}
		}

		api, err := g.API(d, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to generate API for %s version %s: %w", d.Name, v.Name, err))
			continue
		}
		entities = append(entities, api)
	}

	g.log.Debugw("Generated records", "source", d.Source, "name", d.Name, "records", len(entities))
	return entities, kerrors.NewAggregate(errs)
}

// templateType is the spec.type of templates creating instances of d.
func templateType(d *schema.Descriptor) string {
	switch {
	case d.Source == schema.SourceXRD && d.IsLegacy() && d.ClaimNames != nil:
		return catalogv1alpha1.ComponentTypeCrossplaneClaim
	case d.Source == schema.SourceXRD:
		return catalogv1alpha1.ComponentTypeCrossplaneXR
	case d.Source == schema.SourceRGD:
		return catalogv1alpha1.ComponentTypeKROInstance
	default:
		return "crd"
	}
}

func tags(d *schema.Descriptor) []string {
	out := []string{sourceTag(d.Source)}
	for _, c := range d.Categories {
		c = strings.ToLower(c)
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func (g *Generator) annotations(d *schema.Descriptor, t target) map[string]string {
	scope := string(schema.ScopeCluster)
	if t.Namespaced {
		scope = string(schema.ScopeNamespaced)
	}

	return map[string]string{
		g.cfg.AnnotatedKey(catalogv1alpha1.AnnotationSourceKind): string(d.Source),
		g.cfg.AnnotatedKey(catalogv1alpha1.AnnotationAPIGroup):   t.Group,
		g.cfg.AnnotatedKey(catalogv1alpha1.AnnotationAPIVersion): t.Version,
		g.cfg.AnnotatedKey(catalogv1alpha1.AnnotationAPIPlural):  t.Plural,
		g.cfg.AnnotatedKey(catalogv1alpha1.AnnotationAPIScope):   scope,
	}
}

// Template returns the scaffolding template of version v of d.
func (g *Generator) Template(d *schema.Descriptor, v schema.Version, s Settings) (catalogv1alpha1.Entity, error) {
	t := targetFor(d, v)

	extra, err := extraSteps(specSchema(v.Schema))
	if err != nil {
		return catalogv1alpha1.Entity{}, err
	}
	data := newStepsData(t, manifestAction(d), s.PublishPhase)
	steps, err := renderSteps(data, extra)
	if err != nil {
		return catalogv1alpha1.Entity{}, err
	}

	return catalogv1alpha1.Entity{
		APIVersion: catalogv1alpha1.TemplateAPIVersion,
		Kind:       catalogv1alpha1.KindTemplate,
		Metadata: catalogv1alpha1.EntityMetadata{
			Name:        d.Name + "-" + v.Name,
			Namespace:   catalogv1alpha1.DefaultNamespace,
			Title:       t.Kind + " (" + t.APIVersion() + ")",
			Description: "Create a " + t.Kind + " resource",
			Tags:        tags(d),
			Labels: map[string]string{
				"forEntity": "system",
				"source":    sourceTag(d.Source),
			},
			Annotations: g.annotations(d, t),
		},
		Spec: catalogv1alpha1.EntitySpec{
			Type:       templateType(d),
			Owner:      g.cfg.DefaultOwner,
			Parameters: Parameters(d, v, s),
			Steps:      steps,
			Output:     output(data),
		},
	}, nil
}

// APIName returns the name of the API record of a version of a resource.
func APIName(kind, group, version string) string {
	return strings.ToLower(kind + "-" + group + "--" + version)
}

// API returns the API record of version v of d.
func (g *Generator) API(d *schema.Descriptor, v schema.Version) (catalogv1alpha1.Entity, error) {
	t := targetFor(d, v)

	definition, err := apiDefinition(t, d.Clusters, g.cfg.API.ServerURL)
	if err != nil {
		return catalogv1alpha1.Entity{}, err
	}

	return catalogv1alpha1.Entity{
		APIVersion: catalogv1alpha1.EntityAPIVersion,
		Kind:       catalogv1alpha1.KindAPI,
		Metadata: catalogv1alpha1.EntityMetadata{
			Name:        APIName(t.Kind, t.Group, t.Version),
			Namespace:   catalogv1alpha1.DefaultNamespace,
			Title:       t.Kind + " (" + t.APIVersion() + ")",
			Description: "API of " + t.Kind + " resources",
			Tags:        tags(d),
			Annotations: g.annotations(d, t),
		},
		Spec: catalogv1alpha1.EntitySpec{
			Type:       catalogv1alpha1.APITypeOpenAPI,
			Lifecycle:  catalogv1alpha1.LifecycleDefault,
			Owner:      g.cfg.DefaultOwner,
			Definition: definition,
		},
	}, nil
}
