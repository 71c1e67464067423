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

package translation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/ingest"
	"k8c.io/catalog-ingestor/internal/ownership"
	"k8c.io/catalog-ingestor/internal/pkg/kubernetes/fake"
	"k8c.io/catalog-ingestor/internal/schema"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const prefix = catalogv1alpha1.DefaultAnnotationPrefix + "/"

func newTestEngine(t *testing.T, cfg *config.Config, f *fake.Fetcher) *Engine {
	t.Helper()

	if f == nil {
		f = fake.NewFetcher("prod")
	}
	cache := ownership.NewCache(zap.NewNop().Sugar(), f, cfg.AnnotatedKey(catalogv1alpha1.AnnotationOwner))
	e, err := NewEngine(Options{
		Log:      zap.NewNop().Sugar(),
		Config:   cfg,
		Owners:   ownership.NewResolver(cache, cfg.DefaultOwner, cfg.InheritOwnerFromNamespace),
		Provider: "test",
	})
	require.NoError(t, err)
	return e
}

func object(cluster string, category ingest.Category, obj map[string]any) ingest.Object {
	return ingest.Object{
		Unstructured: unstructured.Unstructured{Object: obj},
		ClusterName:  cluster,
		Category:     category,
	}
}

func deployment(namespace, name string, annotations map[string]string) ingest.Object {
	labels := map[string]string{"app": name}
	return object("prod", ingest.CategoryWorkload, fake.Deployment(namespace, name, labels, labels, annotations))
}

func refs(entities []catalogv1alpha1.Entity) []string {
	out := make([]string, 0, len(entities))
	for i := range entities {
		out = append(out, entities[i].Ref())
	}
	return out
}

func find(t *testing.T, entities []catalogv1alpha1.Entity, ref string) catalogv1alpha1.Entity {
	t.Helper()
	for _, e := range entities {
		if e.Ref() == ref {
			return e
		}
	}
	t.Fatalf("record %s not found in %v", ref, refs(entities))
	return catalogv1alpha1.Entity{}
}

func TestEngineOptionsValidate(t *testing.T) {
	owners := ownership.NewResolver(nil, "owner", false)

	tests := []struct {
		name     string
		opts     Options
		errorMsg string
	}{
		{
			name:     "nil log",
			opts:     Options{Config: config.Default(), Owners: owners},
			errorMsg: "log cannot be nil",
		},
		{
			name:     "nil config",
			opts:     Options{Log: zap.NewNop().Sugar(), Owners: owners},
			errorMsg: "config cannot be nil",
		},
		{
			name:     "nil owners",
			opts:     Options{Log: zap.NewNop().Sugar(), Config: config.Default()},
			errorMsg: "owner resolver cannot be nil",
		},
		{
			name: "valid",
			opts: Options{Log: zap.NewNop().Sugar(), Config: config.Default(), Owners: owners},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.validate()
			if tc.errorMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tc.errorMsg {
				t.Errorf("expected error %q, got %v", tc.errorMsg, err)
			}
		})
	}
}

func TestTranslateDeploymentWithDefaults(t *testing.T) {
	cfg := config.Default()
	e := newTestEngine(t, cfg, nil)

	entities := e.Translate(context.Background(), []ingest.Object{deployment("team-a", "web", nil)}, Lookups{})
	require.Equal(t, []string{"Component:default/web", "System:default/team-a"}, refs(entities))

	system := find(t, entities, "System:default/team-a")
	assert.Equal(t, "default", system.Metadata.Namespace)
	assert.Equal(t, catalogv1alpha1.SystemTypeDefault, system.Spec.Type)
	assert.Equal(t, catalogv1alpha1.DefaultOwner, system.Spec.Owner)

	web := find(t, entities, "Component:default/web")
	assert.Equal(t, catalogv1alpha1.EntityAPIVersion, web.APIVersion)
	assert.Equal(t, "service", web.Spec.Type)
	assert.Equal(t, catalogv1alpha1.DefaultOwner, web.Spec.Owner)
	assert.Equal(t, "default/team-a", web.Spec.System)
	assert.Equal(t, catalogv1alpha1.LifecycleDefault, web.Spec.Lifecycle)
	assert.Equal(t, "web", web.Metadata.Title)
	assert.Equal(t, "app=web", web.Metadata.Annotations[catalogv1alpha1.AnnotationKubernetesLabelSelector])
	assert.Equal(t, "team-a", web.Metadata.Annotations[catalogv1alpha1.AnnotationKubernetesNamespace])
	assert.Equal(t, "prod", web.Metadata.Annotations[prefix+catalogv1alpha1.AnnotationClusterName])
	assert.Equal(t, "Deployment", web.Metadata.Annotations[prefix+catalogv1alpha1.AnnotationResourceKind])
	assert.Equal(t, "apps/v1", web.Metadata.Annotations[prefix+catalogv1alpha1.AnnotationResourceAPIVersion])
	assert.Empty(t, web.Spec.DependsOn)
}

func TestTranslateIsIdempotent(t *testing.T) {
	e := newTestEngine(t, config.Default(), nil)
	objects := []ingest.Object{
		deployment("team-b", "api", map[string]string{prefix + "dependsOn": "component:default/db, resource:default/queue"}),
		deployment("team-a", "web", nil),
		deployment("team-a", "worker", map[string]string{prefix + "owner": "platform"}),
	}

	first := e.Translate(context.Background(), objects, Lookups{})
	second := e.Translate(context.Background(), objects, Lookups{})
	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		"Component:default/api",
		"Component:default/web",
		"Component:default/worker",
		"System:default/team-a",
		"System:default/team-b",
	}, refs(first))
}

func TestTranslateAnnotations(t *testing.T) {
	cfg := config.Default()
	e := newTestEngine(t, cfg, nil)

	obj := deployment("team-a", "web", map[string]string{
		prefix + "owner":                     "group:default/platform",
		prefix + "name":                      "storefront",
		prefix + "title":                     "Store Front",
		prefix + "description":               "Public web shop",
		prefix + "component-type":            "website",
		prefix + "system":                    "shop",
		prefix + "system-type":               "product",
		prefix + "domain":                    "commerce",
		prefix + "dependsOn":                 "component:default/db,\nresource:default/queue",
		prefix + "providesApis":              "shop-api",
		prefix + "consumesApis":              "payments-api",
		prefix + "subcomponent-of":           "shop-suite",
		prefix + "kubernetes-label-selector": "tier=frontend",
		prefix + "component-annotations":     "backstage.io/kubernetes-id=custom,grafana/dashboard=shop",
		prefix + "source-code-repo-url":      "https://github.com/acme/shop",
		prefix + "techdocs-path":             "docs",
		prefix + "links":                     `[{"url":"https://shop.example.com","title":"Shop"},{"title":"no url"}]`,
	})

	entities := e.Translate(context.Background(), []ingest.Object{obj}, Lookups{})
	require.Equal(t, []string{"Component:default/storefront", "System:default/shop"}, refs(entities))

	system := find(t, entities, "System:default/shop")
	assert.Equal(t, "product", system.Spec.Type)
	assert.Equal(t, "commerce", system.Spec.Domain)

	c := find(t, entities, "Component:default/storefront")
	assert.Equal(t, "Store Front", c.Metadata.Title)
	assert.Equal(t, "Public web shop", c.Metadata.Description)
	assert.Equal(t, "website", c.Spec.Type)
	assert.Equal(t, "group:default/platform", c.Spec.Owner)
	assert.Equal(t, "default/shop", c.Spec.System)
	assert.Equal(t, "shop-suite", c.Spec.SubcomponentOf)
	assert.Equal(t, []string{"component:default/db", "resource:default/queue"}, c.Spec.DependsOn)
	assert.Equal(t, []string{"shop-api"}, c.Spec.ProvidesAPIs)
	assert.Equal(t, []string{"payments-api"}, c.Spec.ConsumesAPIs)
	assert.Equal(t, []catalogv1alpha1.Link{{URL: "https://shop.example.com", Title: "Shop"}}, c.Metadata.Links)

	a := c.Metadata.Annotations
	assert.Equal(t, "tier=frontend", a[catalogv1alpha1.AnnotationKubernetesLabelSelector])
	assert.Equal(t, "custom", a[catalogv1alpha1.AnnotationKubernetesID])
	assert.Equal(t, "shop", a["grafana/dashboard"])
	assert.Equal(t, "url:https://github.com/acme/shop/tree/main/", a[catalogv1alpha1.AnnotationSourceLocation])
	assert.Equal(t, "url:https://github.com/acme/shop/tree/main/docs", a[catalogv1alpha1.AnnotationTechdocsRef])
}

func TestTranslateOwnerInheritance(t *testing.T) {
	cfg := config.Default()
	cfg.InheritOwnerFromNamespace = true

	f := fake.NewFetcher("prod").
		AddProxy("prod", "/api/v1/namespaces/team-a", fake.Namespace("team-a", map[string]string{prefix + "owner": "team-a-devs"}))
	e := newTestEngine(t, cfg, f)

	entities := e.Translate(context.Background(), []ingest.Object{
		deployment("team-a", "web", nil),
		deployment("team-a", "api", map[string]string{prefix + "owner": "user:jane"}),
	}, Lookups{})

	assert.Equal(t, "default/team-a-devs", find(t, entities, "Component:default/web").Spec.Owner)
	assert.Equal(t, "user:jane", find(t, entities, "Component:default/api").Spec.Owner)
	assert.Equal(t, "default/team-a-devs", find(t, entities, "System:default/team-a").Spec.Owner)
	assert.Equal(t, 1, f.Calls("proxy", "prod", "/api/v1/namespaces/team-a"))
}

func TestTranslateAsResources(t *testing.T) {
	cfg := config.Default()
	cfg.Components.IngestAsResources = true
	e := newTestEngine(t, cfg, nil)

	entities := e.Translate(context.Background(), []ingest.Object{
		deployment("team-a", "web", map[string]string{prefix + "providesApis": "web-api"}),
	}, Lookups{})
	require.Equal(t, []string{"Resource:default/web", "System:default/team-a"}, refs(entities))

	r := find(t, entities, "Resource:default/web")
	assert.Empty(t, r.Spec.Lifecycle)
	assert.Empty(t, r.Spec.ProvidesAPIs)
	assert.Equal(t, "default/team-a", r.Spec.System)
}

func TestTranslateWorkloadTypeHint(t *testing.T) {
	e := newTestEngine(t, config.Default(), nil)

	obj := object("prod", ingest.CategoryWorkload, fake.Object("batch/v1", "CronJob", "team-a", "nightly", nil, nil))
	obj.WorkloadType = "job"

	entities := e.Translate(context.Background(), []ingest.Object{obj}, Lookups{})
	c := find(t, entities, "Component:default/nightly")
	assert.Equal(t, "job", c.Spec.Type)
	assert.NotContains(t, c.Metadata.Annotations, catalogv1alpha1.AnnotationKubernetesLabelSelector)
}

func TestTranslateDropsLongNames(t *testing.T) {
	e := newTestEngine(t, config.Default(), nil)

	long := strings.Repeat("a", catalogv1alpha1.MaxNameLength+1)
	entities := e.Translate(context.Background(), []ingest.Object{
		deployment("team-a", "web", nil),
		deployment("team-a", long, nil),
	}, Lookups{})

	assert.Equal(t, []string{"Component:default/web", "System:default/team-a"}, refs(entities))
}

func TestTranslateDropsRecordsWithoutSystem(t *testing.T) {
	e := newTestEngine(t, config.Default(), nil)

	long := strings.Repeat("s", catalogv1alpha1.MaxNameLength+1)
	entities := e.Translate(context.Background(), []ingest.Object{
		deployment("team-a", "web", map[string]string{prefix + "system": long}),
		deployment("team-b", "api", nil),
	}, Lookups{})

	assert.Equal(t, []string{"Component:default/api", "System:default/team-b"}, refs(entities))
}

func claim(name, namespace string) ingest.Object {
	obj := fake.WithSpec(fake.Object("example.com/v1", "Database", namespace, name, nil, nil), map[string]any{
		"compositionRef": map[string]any{"name": "databases-aws"},
		"resourceRef": map[string]any{
			"apiVersion": "example.com/v1",
			"kind":       "XDatabase",
			"name":       name + "-x7k2p",
		},
	})
	o := object("prod", ingest.CategoryClaim, obj)
	o.Composition = &ingest.CompositionData{Name: "databases-aws", UsedFunctions: []string{"function-go-templating", "function-auto-ready"}}
	return o
}

func TestTranslateClaim(t *testing.T) {
	e := newTestEngine(t, config.Default(), nil)

	lookups := Lookups{CRDMapping: map[string]string{"Database": "databases", "XDatabase": "xdatabases"}}
	entities := e.Translate(context.Background(), []ingest.Object{claim("orders", "team-a")}, lookups)
	require.Equal(t, []string{"Component:default/orders", "System:default/team-a"}, refs(entities))

	c := find(t, entities, "Component:default/orders")
	assert.Equal(t, catalogv1alpha1.ComponentTypeCrossplaneClaim, c.Spec.Type)

	a := c.Metadata.Annotations
	assert.Equal(t, "crossplane.io/claim-name=orders,crossplane.io/claim-namespace=team-a", a[catalogv1alpha1.AnnotationKubernetesLabelSelector])
	assert.Equal(t, "true", a[prefix+catalogv1alpha1.AnnotationCrossplaneResource])
	assert.Equal(t, "databases", a[prefix+catalogv1alpha1.AnnotationClaimPlural])
	assert.Equal(t, "example.com", a[prefix+catalogv1alpha1.AnnotationClaimGroup])
	assert.Equal(t, "v1", a[prefix+catalogv1alpha1.AnnotationClaimVersion])
	assert.Equal(t, "XDatabase", a[prefix+catalogv1alpha1.AnnotationCompositeKind])
	assert.Equal(t, "orders-x7k2p", a[prefix+catalogv1alpha1.AnnotationCompositeName])
	assert.Equal(t, "xdatabases", a[prefix+catalogv1alpha1.AnnotationCompositePlural])
	assert.Equal(t, "databases-aws", a[prefix+catalogv1alpha1.AnnotationCompositionName])
	assert.Equal(t, "function-go-templating,function-auto-ready", a[prefix+catalogv1alpha1.AnnotationCompositionFunctions])
}

func TestTranslateClaimWithoutMapping(t *testing.T) {
	e := newTestEngine(t, config.Default(), nil)

	entities := e.Translate(context.Background(), []ingest.Object{claim("orders", "team-a")}, Lookups{CRDMapping: map[string]string{}})
	assert.Empty(t, entities)
}

func composite(name string) ingest.Object {
	obj := fake.WithSpec(fake.Object("platform.example.com/v1", "App", "team-a", name, nil, nil), map[string]any{
		"crossplane": map[string]any{"compositionRef": map[string]any{"name": "apps"}},
	})
	o := object("prod", ingest.CategoryComposite, obj)
	o.Composition = &ingest.CompositionData{Name: "apps"}
	return o
}

func TestTranslateComposite(t *testing.T) {
	cfg := config.Default()
	cfg.Crossplane.Claims.IngestAsResources = true
	e := newTestEngine(t, cfg, nil)

	lookup := schema.NewLookup()
	lookup.Insert(schema.LookupKey{Kind: "App", Group: "platform.example.com", Version: "v1"}, &schema.Descriptor{
		Source: schema.SourceXRD,
		Name:   "apps.platform.example.com",
		Plural: "apps",
		Scope:  schema.ScopeNamespaced,
	})

	entities := e.Translate(context.Background(), []ingest.Object{composite("shop")}, Lookups{Composites: lookup})
	require.Equal(t, []string{"Resource:default/shop", "System:default/team-a"}, refs(entities))

	r := find(t, entities, "Resource:default/shop")
	assert.Equal(t, catalogv1alpha1.ComponentTypeCrossplaneXR, r.Spec.Type)
	a := r.Metadata.Annotations
	assert.Equal(t, "crossplane.io/composite=shop", a[catalogv1alpha1.AnnotationKubernetesLabelSelector])
	assert.Equal(t, "apps", a[prefix+catalogv1alpha1.AnnotationCompositePlural])
	assert.Equal(t, string(schema.ScopeNamespaced), a[prefix+catalogv1alpha1.AnnotationCompositeScope])
	assert.Equal(t, "apps", a[prefix+catalogv1alpha1.AnnotationCompositionName])
	assert.NotContains(t, a, prefix+catalogv1alpha1.AnnotationCompositionFunctions)
}

func TestTranslateCompositeWithoutLookup(t *testing.T) {
	e := newTestEngine(t, config.Default(), nil)

	entities := e.Translate(context.Background(), []ingest.Object{composite("shop")}, Lookups{Composites: schema.NewLookup()})
	assert.Empty(t, entities)

	entities = e.Translate(context.Background(), []ingest.Object{composite("shop")}, Lookups{})
	assert.Empty(t, entities)
}

func kroInstance() ingest.Object {
	obj := fake.WithUID(fake.Object("kro.run/v1alpha1", "WebApp", "team-a", "blog",
		map[string]string{schema.LabelRGDID: "rgd-uid"}, nil), "instance-uid")
	return object("prod", ingest.CategoryKROInstance, obj)
}

func TestTranslateKROInstance(t *testing.T) {
	e := newTestEngine(t, config.Default(), nil)

	lookup := schema.NewLookup()
	lookup.Insert(schema.LookupKey{Kind: "WebApp", Group: "kro.run", Version: "v1alpha1"}, &schema.Descriptor{
		Source: schema.SourceRGD,
		Name:   "webapp",
		Plural: "webapps",
	})

	entities := e.Translate(context.Background(), []ingest.Object{kroInstance()}, Lookups{RGDs: lookup})
	c := find(t, entities, "Component:default/blog")
	assert.Equal(t, catalogv1alpha1.ComponentTypeKROInstance, c.Spec.Type)

	a := c.Metadata.Annotations
	assert.Equal(t, "kro.run/instance-id=instance-uid", a[catalogv1alpha1.AnnotationKubernetesLabelSelector])
	assert.Equal(t, "webapp", a[prefix+catalogv1alpha1.AnnotationKRORGDName])
	assert.Equal(t, "rgd-uid", a[prefix+catalogv1alpha1.AnnotationKRORGDID])
	assert.Equal(t, "instance-uid", a[prefix+catalogv1alpha1.AnnotationKROInstanceUID])
	assert.Equal(t, "webapps", a[prefix+catalogv1alpha1.AnnotationKROPlural])
}

func TestTranslateKROInstanceWithoutLookup(t *testing.T) {
	e := newTestEngine(t, config.Default(), nil)

	entities := e.Translate(context.Background(), []ingest.Object{kroInstance()}, Lookups{})
	c := find(t, entities, "Component:default/blog")
	assert.Equal(t, "service", c.Spec.Type)
	assert.Equal(t, "kro.run/resource-graph-definition-id=rgd-uid", c.Metadata.Annotations[catalogv1alpha1.AnnotationKubernetesLabelSelector])
	assert.NotContains(t, c.Metadata.Annotations, prefix+catalogv1alpha1.AnnotationKROResource)
}

func TestTranslateNamingModels(t *testing.T) {
	e := newTestEngine(t, func() *config.Config {
		cfg := config.Default()
		cfg.Mappings.NamespaceModel = config.NamespaceModelCluster
		cfg.Mappings.SystemModel = config.SystemModelClusterNamespace
		cfg.Mappings.NameModel = config.NameModelNameCluster
		cfg.Mappings.ReferencesNamespaceModel = config.ReferencesNamespaceModelSame
		return cfg
	}(), nil)

	entities := e.Translate(context.Background(), []ingest.Object{
		deployment("team-a", "web", map[string]string{prefix + "owner": "platform"}),
	}, Lookups{})
	require.Equal(t, []string{"Component:prod/web-prod", "System:prod/prod-team-a"}, refs(entities))

	c := find(t, entities, "Component:prod/web-prod")
	assert.Equal(t, "prod/prod-team-a", c.Spec.System)
	assert.Equal(t, "prod/platform", c.Spec.Owner)
}
