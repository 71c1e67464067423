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

package entityprovider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/ingest"
	"k8c.io/catalog-ingestor/internal/ownership"
	"k8c.io/catalog-ingestor/internal/pkg/metrics"
	"k8c.io/catalog-ingestor/internal/schema"
	"k8c.io/catalog-ingestor/internal/template"
	"k8c.io/catalog-ingestor/internal/translation"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"
)

// Provider names. They double as location keys and metric labels.
const (
	KubernetesEntityProvider  = "KubernetesEntityProvider"
	XRDTemplateEntityProvider = "XRDTemplateEntityProvider"
	RGDTemplateEntityProvider = "RGDTemplateEntityProvider"
	CRDTemplateEntityProvider = "CRDTemplateEntityProvider"
)

// Provider computes the complete record set of one entity provider.
type Provider interface {
	Name() string
	Entities(ctx context.Context) ([]catalogv1alpha1.Entity, error)
}

// kubernetesProvider publishes Systems, Components and Resources for the
// objects running on the clusters.
type kubernetesProvider struct {
	log    *zap.SugaredLogger
	cfg    *config.Config
	cache  *ownership.Cache
	data   *ingest.KubernetesDataProvider
	engine *translation.Engine
}

func (p *kubernetesProvider) Name() string {
	return KubernetesEntityProvider
}

func (p *kubernetesProvider) Entities(ctx context.Context) ([]catalogv1alpha1.Entity, error) {
	p.cache.Clear()

	snapshot, err := p.data.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch objects: %w", err)
	}

	return p.engine.Translate(ctx, snapshot.Objects, p.lookups(snapshot)), nil
}

// lookups indexes the schema objects of the same snapshot the objects
// were classified against.
func (p *kubernetesProvider) lookups(snapshot *ingest.Snapshot) translation.Lookups {
	lookups := translation.Lookups{CRDMapping: snapshot.CRDMapping}
	if p.cfg.Crossplane.Enabled {
		lookups.Composites = schema.BuildCompositeKindLookup(p.log, snapshot.XRDs)
	}
	if p.cfg.KRO.Enabled {
		lookups.RGDs = schema.BuildRGDLookup(p.log, snapshot.RGDs)
	}
	return lookups
}

// templateProvider publishes Templates and APIs for schema descriptors.
type templateProvider struct {
	name      string
	log       *zap.SugaredLogger
	fetch     func(ctx context.Context) ([]schema.Descriptor, error)
	generator *template.Generator
}

func (p *templateProvider) Name() string {
	return p.name
}

// Entities generates the records of every descriptor. A descriptor that
// fails to render is logged and contributes whatever could be generated.
func (p *templateProvider) Entities(ctx context.Context) ([]catalogv1alpha1.Entity, error) {
	descriptors, err := p.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema objects: %w", err)
	}

	var entities []catalogv1alpha1.Entity
	for i := range descriptors {
		d := &descriptors[i]

		generated, err := p.generator.Generate(d)
		if err != nil {
			p.log.Warnw("Failed to generate some records", "name", d.Name, "error", err)
			metrics.EntitiesDropped.WithLabelValues(p.name, metrics.ReasonInvalidTemplate).Inc()
		}
		entities = append(entities, generated...)
	}

	return translation.Finalize(p.log, p.name, entities), nil
}

func crdFetcher(crds *schema.CRDDataProvider, sel schema.CRDSelector) func(ctx context.Context) ([]schema.Descriptor, error) {
	return func(ctx context.Context) ([]schema.Descriptor, error) {
		return crds.FetchCRDObjects(ctx, sel)
	}
}
