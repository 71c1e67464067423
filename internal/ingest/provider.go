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

package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	"k8c.io/catalog-ingestor/internal/pkg/metrics"
	"k8c.io/catalog-ingestor/internal/schema"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const defaultFetchConcurrency = 8

// Options configures a KubernetesDataProvider.
type Options struct {
	Log     *zap.SugaredLogger
	Fetcher kubernetes.Fetcher
	Config  *config.Config

	CRDs *schema.CRDDataProvider
	XRDs *schema.XRDDataProvider
	RGDs *schema.RGDDataProvider
}

func (o *Options) validate() error {
	if o.Log == nil {
		return fmt.Errorf("log cannot be nil")
	}
	if o.Fetcher == nil {
		return fmt.Errorf("fetcher cannot be nil")
	}
	if o.Config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if o.CRDs == nil || o.XRDs == nil || o.RGDs == nil {
		return fmt.Errorf("schema data providers cannot be nil")
	}
	return nil
}

// KubernetesDataProvider produces the objects translated by the
// Kubernetes entity provider.
type KubernetesDataProvider struct {
	log     *zap.SugaredLogger
	fetcher kubernetes.Fetcher
	cfg     *config.Config

	crds *schema.CRDDataProvider
	xrds *schema.XRDDataProvider
	rgds *schema.RGDDataProvider
}

func NewKubernetesDataProvider(opts Options) (*KubernetesDataProvider, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("failed to create kubernetes data provider: %w", err)
	}

	return &KubernetesDataProvider{
		log:     opts.Log.Named("kubernetes-data-provider"),
		fetcher: opts.Fetcher,
		cfg:     opts.Config,
		crds:    opts.CRDs,
		xrds:    opts.XRDs,
		rgds:    opts.RGDs,
	}, nil
}

// Snapshot is the result of one fetch: the classified objects and the
// schema objects they were classified against.
type Snapshot struct {
	Objects []Object

	// XRDs is only set when Crossplane is enabled, RGDs only when KRO is.
	XRDs []schema.Descriptor
	RGDs []schema.Descriptor
	// CRDMapping maps the kind of every CRD to its plural.
	CRDMapping map[string]string
}

// schemaContext holds the schema objects fetched once per call and shared
// by all clusters.
type schemaContext struct {
	xrds       []schema.Descriptor
	composites []schema.Descriptor
	crds       []schema.Descriptor
	generic    []schema.Descriptor
	rgds       []schema.Descriptor
}

func (p *KubernetesDataProvider) fetchSchemaContext(ctx context.Context) (*schemaContext, error) {
	sc := &schemaContext{}
	var err error

	if sc.crds, err = p.crds.FetchCRDObjects(ctx, schema.CRDSelector{}); err != nil {
		return nil, err
	}

	if p.cfg.Crossplane.Enabled {
		if sc.xrds, err = p.xrds.FetchXRDObjects(ctx); err != nil {
			return nil, err
		}
		for _, d := range sc.xrds {
			if d.IsV2 && d.Scope != schema.ScopeLegacyCluster {
				sc.composites = append(sc.composites, d)
			}
		}
	}

	if p.cfg.KRO.Enabled {
		if sc.rgds, err = p.rgds.FetchRGDObjects(ctx); err != nil {
			return nil, err
		}
	}

	if generic := p.cfg.GenericCRDTemplates; generic.Enabled() {
		sc.generic, err = p.crds.FetchCRDObjects(ctx, schema.CRDSelector{
			LabelSelector: generic.CRDLabelSelector.String(),
			Names:         generic.CRDs,
		})
		if err != nil {
			return nil, err
		}
	}

	return sc, nil
}

// workloadTypesFor returns the collections fetched from cluster.
func (p *KubernetesDataProvider) workloadTypesFor(cluster string, base workloadTypeSet, sc *schemaContext) []WorkloadType {
	set := base.clone()

	for i := range sc.composites {
		if sc.composites[i].InCluster(cluster) {
			set.addDescriptor(&sc.composites[i])
		}
	}
	if p.cfg.Crossplane.Enabled && p.cfg.Crossplane.Claims.IngestAllClaims {
		for i := range sc.crds {
			if sc.crds[i].InCluster(cluster) && sc.crds[i].HasCategory(schema.CategoryClaim) {
				set.addDescriptor(&sc.crds[i])
			}
		}
	}
	for i := range sc.rgds {
		if sc.rgds[i].InCluster(cluster) {
			set.addDescriptor(&sc.rgds[i])
		}
	}
	for i := range sc.generic {
		if sc.generic[i].InCluster(cluster) {
			set.addDescriptor(&sc.generic[i])
		}
	}

	return set.sorted()
}

// FetchKubernetesObjects returns the classified objects of all clusters.
// Failing clusters and collections are logged and contribute nothing.
func (p *KubernetesDataProvider) FetchKubernetesObjects(ctx context.Context) ([]Object, error) {
	snapshot, err := p.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Objects, nil
}

// Fetch lists every schema collection once and returns the classified
// objects of all clusters together with those schema objects.
func (p *KubernetesDataProvider) Fetch(ctx context.Context) (*Snapshot, error) {
	clusters, err := kubernetes.ResolveClusters(ctx, p.fetcher, p.cfg.Clusters)
	if err != nil {
		return nil, err
	}
	if len(clusters) == 0 {
		p.log.Info("No clusters found, nothing to ingest")
		return &Snapshot{CRDMapping: map[string]string{}}, nil
	}

	sc, err := p.fetchSchemaContext(ctx)
	if err != nil {
		return nil, err
	}
	base := baseWorkloadTypes(p.cfg)

	results := make([][]Object, len(clusters))

	var g errgroup.Group
	for i, cluster := range clusters {
		g.Go(func() error {
			results[i] = p.fetchCluster(ctx, cluster, p.workloadTypesFor(cluster, base, sc), sc)
			return nil
		})
	}
	_ = g.Wait()

	var objects []Object
	for _, r := range results {
		objects = append(objects, r...)
	}
	sortObjects(objects)

	p.log.Debugw("Fetched kubernetes objects", "clusters", len(clusters), "objects", len(objects))
	return &Snapshot{
		Objects:    objects,
		XRDs:       sc.xrds,
		RGDs:       sc.rgds,
		CRDMapping: schema.CRDMapping(sc.crds),
	}, nil
}

func (p *KubernetesDataProvider) fetchCluster(ctx context.Context, cluster string, types []WorkloadType, sc *schemaContext) []Object {
	log := p.log.With("cluster", cluster)

	limit := p.cfg.FetchConcurrency
	if limit <= 0 {
		limit = defaultFetchConcurrency
	}

	fetched := make([][]unstructured.Unstructured, len(types))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, t := range types {
		g.Go(func() error {
			items, err := p.fetcher.FetchResources(ctx, kubernetes.FetchRequest{ClusterName: cluster, ResourcePath: t.Path()})
			if err != nil {
				log.Debugw("Failed to fetch resources", "resource", t.Path(), "error", err)
				metrics.FetchErrors.WithLabelValues(cluster, t.Path()).Inc()
				return nil
			}
			fetched[i] = items
			return nil
		})
	}
	_ = g.Wait()

	rgdsByUID := map[string]*schema.Descriptor{}
	for i := range sc.rgds {
		if uid, ok := sc.rgds[i].ClusterUIDs[cluster]; ok {
			rgdsByUID[uid] = &sc.rgds[i]
		}
	}

	compositions := &compositionCache{fetcher: p.fetcher, cluster: cluster, log: log}

	var out []Object
	for i, items := range fetched {
		for j := range items {
			obj, ok := p.normalize(ctx, &items[j], types[i], cluster, rgdsByUID, compositions)
			if ok {
				out = append(out, obj)
			}
		}
	}
	return out
}

// normalize filters, classifies and enriches a single object.
func (p *KubernetesDataProvider) normalize(
	ctx context.Context,
	item *unstructured.Unstructured,
	t WorkloadType,
	cluster string,
	rgdsByUID map[string]*schema.Descriptor,
	compositions *compositionCache,
) (Object, bool) {
	if !p.keep(item) {
		return Object{}, false
	}

	category, kro := classify(item, rgdsByUID)

	if !p.cfg.Crossplane.Enabled && (category == CategoryClaim || category == CategoryComposite) {
		return Object{}, false
	}
	if !p.cfg.KRO.Enabled {
		if _, ok := item.GetLabels()[schema.LabelRGDID]; ok {
			return Object{}, false
		}
	}

	obj := Object{
		Unstructured: *item,
		ClusterName:  cluster,
		Category:     category,
		WorkloadType: t.ComponentType,
		KRO:          kro,
	}

	if name := compositionName(item, category); name != "" {
		obj.Composition = &CompositionData{Name: name, UsedFunctions: compositions.functions(ctx, name)}
	}

	return obj, true
}

// keep applies the metadata, annotation and namespace filters.
func (p *KubernetesDataProvider) keep(item *unstructured.Unstructured) bool {
	if _, ok := item.Object["metadata"].(map[string]any); !ok {
		return false
	}

	annotations := item.GetAnnotations()
	if _, excluded := annotations[p.cfg.AnnotatedKey(catalogv1alpha1.AnnotationExcludeFromCatalog)]; excluded {
		return false
	}
	if p.cfg.Components.OnlyIngestAnnotatedResources && annotations[p.cfg.AnnotatedKey(catalogv1alpha1.AnnotationAddToCatalog)] != "true" {
		return false
	}
	if ns := item.GetNamespace(); ns != "" && p.cfg.IsExcludedNamespace(ns) {
		return false
	}
	return true
}

// compositionCache lists the compositions of a cluster on first use.
type compositionCache struct {
	fetcher kubernetes.Fetcher
	cluster string
	log     *zap.SugaredLogger

	once   sync.Once
	byName map[string][]string
}

func (c *compositionCache) functions(ctx context.Context, name string) []string {
	c.once.Do(func() {
		c.byName = map[string][]string{}
		compositions, err := schema.FetchCompositions(ctx, c.fetcher, c.cluster)
		if err != nil {
			c.log.Debugw("Failed to fetch compositions", "error", err)
			return
		}
		for _, comp := range compositions {
			c.byName[comp.Name] = comp.Functions
		}
	})
	return c.byName[name]
}

func sortObjects(objects []Object) {
	sort.SliceStable(objects, func(i, j int) bool {
		a, b := &objects[i], &objects[j]
		if a.ClusterName != b.ClusterName {
			return a.ClusterName < b.ClusterName
		}
		if a.GetAPIVersion() != b.GetAPIVersion() {
			return a.GetAPIVersion() < b.GetAPIVersion()
		}
		if a.GetKind() != b.GetKind() {
			return a.GetKind() < b.GetKind()
		}
		if a.GetNamespace() != b.GetNamespace() {
			return a.GetNamespace() < b.GetNamespace()
		}
		return a.GetName() < b.GetName()
	})
}
