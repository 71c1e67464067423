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

// Package translation turns ingested cluster objects into catalog records.
package translation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/ingest"
	"k8c.io/catalog-ingestor/internal/ownership"
	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	"k8c.io/catalog-ingestor/internal/pkg/metrics"
	"k8c.io/catalog-ingestor/internal/schema"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"
)

// Options configures an Engine.
type Options struct {
	Log    *zap.SugaredLogger
	Config *config.Config
	Owners *ownership.Resolver

	// Provider labels the metrics emitted while translating.
	Provider string
}

func (o *Options) validate() error {
	if o.Log == nil {
		return fmt.Errorf("log cannot be nil")
	}
	if o.Config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if o.Owners == nil {
		return fmt.Errorf("owner resolver cannot be nil")
	}
	return nil
}

// Lookups are the schema indexes rebuilt for every run.
type Lookups struct {
	// CRDMapping maps kinds to plurals.
	CRDMapping map[string]string
	Composites *schema.Lookup
	RGDs       *schema.Lookup
}

// Engine translates ingested objects into System, Component and Resource
// records.
type Engine struct {
	log      *zap.SugaredLogger
	cfg      *config.Config
	owners   *ownership.Resolver
	naming   Naming
	provider string
}

func NewEngine(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("failed to create translation engine: %w", err)
	}

	return &Engine{
		log:      opts.Log,
		cfg:      opts.Config,
		owners:   opts.Owners,
		naming:   NewNaming(opts.Config),
		provider: opts.Provider,
	}, nil
}

func (e *Engine) key(suffix string) string {
	return e.cfg.AnnotatedKey(suffix)
}

// Translate returns the finalized records for objects.
func (e *Engine) Translate(ctx context.Context, objects []ingest.Object, lookups Lookups) []catalogv1alpha1.Entity {
	var entities []catalogv1alpha1.Entity

	for i := range objects {
		obj := &objects[i]

		record, ok := e.translateObject(ctx, obj, lookups)
		if !ok {
			continue
		}
		entities = append(entities, e.system(ctx, obj), record)
	}

	return Finalize(e.log, e.provider, entities)
}

// translateObject dispatches on the object category. Claims without a CRD
// mapping and composites missing from the composite lookup yield nothing.
// KRO instances whose RGD is not in the lookup are treated as workloads.
func (e *Engine) translateObject(ctx context.Context, obj *ingest.Object, lookups Lookups) (catalogv1alpha1.Entity, bool) {
	log := e.log.With("cluster", obj.ClusterName, "kind", obj.GetKind(), "namespace", obj.GetNamespace(), "name", obj.GetName())

	switch obj.Category {
	case ingest.CategoryClaim:
		plural, ok := lookups.CRDMapping[obj.GetKind()]
		if !ok {
			log.Debug("Skipping claim without a CRD mapping")
			metrics.EntitiesDropped.WithLabelValues(e.provider, metrics.ReasonMissingMapping).Inc()
			return catalogv1alpha1.Entity{}, false
		}
		return e.claim(ctx, obj, plural, lookups.CRDMapping), true

	case ingest.CategoryComposite:
		d, ok := lookups.Composites.Get(schema.LookupKey{Kind: obj.GetKind(), Group: obj.Group(), Version: obj.Version()})
		if !ok {
			log.Debug("Skipping composite without a matching XRD")
			metrics.EntitiesDropped.WithLabelValues(e.provider, metrics.ReasonMissingLookup).Inc()
			return catalogv1alpha1.Entity{}, false
		}
		return e.composite(ctx, obj, d), true

	case ingest.CategoryKROInstance:
		if d, ok := lookups.RGDs.Get(schema.LookupKey{Kind: obj.GetKind(), Group: obj.Group(), Version: obj.Version()}); ok {
			return e.kroInstance(ctx, obj, d), true
		}
		log.Debug("RGD of KRO instance not found, translating as workload")
	}

	return e.workload(ctx, obj), true
}

// system returns the System record of the object.
func (e *Engine) system(ctx context.Context, obj *ingest.Object) catalogv1alpha1.Entity {
	namespace := e.naming.Namespace(obj)

	systemType := obj.Annotation(e.key(catalogv1alpha1.AnnotationSystemType))
	if systemType == "" {
		systemType = catalogv1alpha1.SystemTypeDefault
	}

	return catalogv1alpha1.Entity{
		APIVersion: catalogv1alpha1.EntityAPIVersion,
		Kind:       catalogv1alpha1.KindSystem,
		Metadata: catalogv1alpha1.EntityMetadata{
			Name:      e.naming.System(obj),
			Namespace: namespace,
			Annotations: map[string]string{
				e.key(catalogv1alpha1.AnnotationClusterName): obj.ClusterName,
			},
		},
		Spec: catalogv1alpha1.EntitySpec{
			Type: systemType,
			Owner: e.owners.Resolve(ctx, ownership.Source{
				Cluster:   obj.ClusterName,
				Namespace: obj.GetNamespace(),
			}, e.naming.ReferenceNamespace(namespace)),
			Domain: obj.Annotation(e.key(catalogv1alpha1.AnnotationDomain)),
		},
	}
}

// base builds the record fields shared by all categories.
func (e *Engine) base(ctx context.Context, obj *ingest.Object, asResource bool, recordType string) catalogv1alpha1.Entity {
	namespace := e.naming.Namespace(obj)
	refNamespace := e.naming.ReferenceNamespace(namespace)

	kind := catalogv1alpha1.KindComponent
	if asResource {
		kind = catalogv1alpha1.KindResource
	}

	annotations := map[string]string{
		catalogv1alpha1.AnnotationKubernetesID:              obj.GetName(),
		e.key(catalogv1alpha1.AnnotationResourceKind):       obj.GetKind(),
		e.key(catalogv1alpha1.AnnotationResourceName):       obj.GetName(),
		e.key(catalogv1alpha1.AnnotationResourceAPIVersion): obj.GetAPIVersion(),
		e.key(catalogv1alpha1.AnnotationClusterName):        obj.ClusterName,
	}
	if ns := obj.GetNamespace(); ns != "" {
		annotations[catalogv1alpha1.AnnotationKubernetesNamespace] = ns
		annotations[e.key(catalogv1alpha1.AnnotationResourceNamespace)] = ns
	}

	repoURL := obj.Annotation(e.key(catalogv1alpha1.AnnotationSourceCodeRepoURL))
	branch := obj.Annotation(e.key(catalogv1alpha1.AnnotationSourceBranch))
	if location := SourceLocation(repoURL, branch); location != "" {
		annotations[catalogv1alpha1.AnnotationSourceLocation] = location
		if path := obj.Annotation(e.key(catalogv1alpha1.AnnotationTechdocsPath)); path != "" {
			annotations[catalogv1alpha1.AnnotationTechdocsRef] = TechdocsRef(repoURL, branch, path)
		}
	}

	links, err := ParseLinks(obj.Annotation(e.key(catalogv1alpha1.AnnotationLinks)))
	if err != nil {
		e.log.Warnw("Ignoring malformed links annotation",
			"cluster", obj.ClusterName, "namespace", obj.GetNamespace(), "name", obj.GetName(), "error", err)
	}

	entity := catalogv1alpha1.Entity{
		APIVersion: catalogv1alpha1.EntityAPIVersion,
		Kind:       kind,
		Metadata: catalogv1alpha1.EntityMetadata{
			Name:        e.naming.Name(obj),
			Namespace:   namespace,
			Title:       e.naming.Title(obj),
			Description: obj.Annotation(e.key(catalogv1alpha1.AnnotationDescription)),
			Annotations: annotations,
			Links:       links,
		},
		Spec: catalogv1alpha1.EntitySpec{
			Type: recordType,
			Owner: e.owners.Resolve(ctx, ownership.Source{
				Cluster:   obj.ClusterName,
				Namespace: obj.GetNamespace(),
				Owner:     obj.Annotation(e.key(catalogv1alpha1.AnnotationOwner)),
			}, refNamespace),
			System:         namespace + "/" + e.naming.System(obj),
			SubcomponentOf: obj.Annotation(e.key(catalogv1alpha1.AnnotationSubcomponentOf)),
			DependsOn:      SplitList(obj.Annotation(e.key(catalogv1alpha1.AnnotationDependsOn))),
		},
	}

	if kind == catalogv1alpha1.KindComponent {
		entity.Spec.Lifecycle = catalogv1alpha1.LifecycleDefault
		entity.Spec.ProvidesAPIs = SplitList(obj.Annotation(e.key(catalogv1alpha1.AnnotationProvidesAPIs)))
		entity.Spec.ConsumesAPIs = SplitList(obj.Annotation(e.key(catalogv1alpha1.AnnotationConsumesAPIs)))
	}

	return entity
}

// finish applies the label selector and the component-annotations
// passthrough, which overrides every computed annotation.
func (e *Engine) finish(obj *ingest.Object, entity catalogv1alpha1.Entity, selector string) catalogv1alpha1.Entity {
	if explicit := obj.Annotation(e.key(catalogv1alpha1.AnnotationLabelSelector)); explicit != "" {
		selector = explicit
	}
	if selector != "" {
		entity.Metadata.Annotations[catalogv1alpha1.AnnotationKubernetesLabelSelector] = selector
	}

	for k, v := range ParseKeyValues(obj.Annotation(e.key(catalogv1alpha1.AnnotationComponentAnnotations))) {
		entity.Metadata.Annotations[k] = v
	}
	return entity
}

func (e *Engine) workload(ctx context.Context, obj *ingest.Object) catalogv1alpha1.Entity {
	recordType := obj.Annotation(e.key(catalogv1alpha1.AnnotationComponentType))
	if recordType == "" {
		recordType = obj.WorkloadType
	}
	if recordType == "" {
		recordType = catalogv1alpha1.ComponentTypeService
	}

	entity := e.base(ctx, obj, e.cfg.Components.IngestAsResources, recordType)
	return e.finish(obj, entity, DeriveLabelSelector(obj))
}

func (e *Engine) setComposition(entity *catalogv1alpha1.Entity, obj *ingest.Object) {
	if obj.Composition == nil {
		return
	}
	entity.Metadata.Annotations[e.key(catalogv1alpha1.AnnotationCompositionName)] = obj.Composition.Name
	if len(obj.Composition.UsedFunctions) > 0 {
		entity.Metadata.Annotations[e.key(catalogv1alpha1.AnnotationCompositionFunctions)] = strings.Join(obj.Composition.UsedFunctions, ",")
	}
}

func (e *Engine) claim(ctx context.Context, obj *ingest.Object, plural string, crdMapping map[string]string) catalogv1alpha1.Entity {
	entity := e.base(ctx, obj, e.cfg.Crossplane.Claims.IngestAsResources, catalogv1alpha1.ComponentTypeCrossplaneClaim)

	a := entity.Metadata.Annotations
	a[e.key(catalogv1alpha1.AnnotationCrossplaneResource)] = "true"
	a[e.key(catalogv1alpha1.AnnotationClaimKind)] = obj.GetKind()
	a[e.key(catalogv1alpha1.AnnotationClaimName)] = obj.GetName()
	a[e.key(catalogv1alpha1.AnnotationClaimGroup)] = obj.Group()
	a[e.key(catalogv1alpha1.AnnotationClaimVersion)] = obj.Version()
	a[e.key(catalogv1alpha1.AnnotationClaimPlural)] = plural

	if kind := obj.NestedString("spec", "resourceRef", "kind"); kind != "" {
		group, version := kubernetes.SplitAPIVersion(obj.NestedString("spec", "resourceRef", "apiVersion"))
		a[e.key(catalogv1alpha1.AnnotationCompositeKind)] = kind
		a[e.key(catalogv1alpha1.AnnotationCompositeName)] = obj.NestedString("spec", "resourceRef", "name")
		a[e.key(catalogv1alpha1.AnnotationCompositeGroup)] = group
		a[e.key(catalogv1alpha1.AnnotationCompositeVersion)] = version
		if compositePlural, ok := crdMapping[kind]; ok {
			a[e.key(catalogv1alpha1.AnnotationCompositePlural)] = compositePlural
		}
	}
	e.setComposition(&entity, obj)

	selector := FormatLabelSelector(map[string]string{
		"crossplane.io/claim-name":      obj.GetName(),
		"crossplane.io/claim-namespace": obj.GetNamespace(),
	})
	return e.finish(obj, entity, selector)
}

func (e *Engine) composite(ctx context.Context, obj *ingest.Object, d *schema.Descriptor) catalogv1alpha1.Entity {
	entity := e.base(ctx, obj, e.cfg.Crossplane.Claims.IngestAsResources, catalogv1alpha1.ComponentTypeCrossplaneXR)

	a := entity.Metadata.Annotations
	a[e.key(catalogv1alpha1.AnnotationCrossplaneResource)] = "true"
	a[e.key(catalogv1alpha1.AnnotationCompositeKind)] = obj.GetKind()
	a[e.key(catalogv1alpha1.AnnotationCompositeName)] = obj.GetName()
	a[e.key(catalogv1alpha1.AnnotationCompositeGroup)] = obj.Group()
	a[e.key(catalogv1alpha1.AnnotationCompositeVersion)] = obj.Version()
	a[e.key(catalogv1alpha1.AnnotationCompositePlural)] = d.Plural
	a[e.key(catalogv1alpha1.AnnotationCompositeScope)] = string(d.Scope)
	e.setComposition(&entity, obj)

	return e.finish(obj, entity, "crossplane.io/composite="+obj.GetName())
}

func (e *Engine) kroInstance(ctx context.Context, obj *ingest.Object, d *schema.Descriptor) catalogv1alpha1.Entity {
	entity := e.base(ctx, obj, e.cfg.KRO.Instances.IngestAsResources, catalogv1alpha1.ComponentTypeKROInstance)

	a := entity.Metadata.Annotations
	a[e.key(catalogv1alpha1.AnnotationKROResource)] = "true"
	a[e.key(catalogv1alpha1.AnnotationKRORGDName)] = d.Name
	a[e.key(catalogv1alpha1.AnnotationKRORGDID)] = obj.GetLabels()[schema.LabelRGDID]
	a[e.key(catalogv1alpha1.AnnotationKROInstanceUID)] = string(obj.GetUID())
	a[e.key(catalogv1alpha1.AnnotationKROPlural)] = d.Plural

	return e.finish(obj, entity, schema.LabelInstanceID+"="+string(obj.GetUID()))
}
