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

package schema

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Composition is the part of a Crossplane composition the ingestor cares
// about.
type Composition struct {
	Name           string
	CompositeGroup string
	CompositeKind  string
	// Functions are the function names referenced by the pipeline steps,
	// in pipeline order.
	Functions []string
}

// FetchCompositions lists the compositions of a cluster.
func FetchCompositions(ctx context.Context, f kubernetes.Fetcher, cluster string) ([]Composition, error) {
	items, err := f.FetchResources(ctx, kubernetes.FetchRequest{ClusterName: cluster, ResourcePath: CompositionPath})
	if err != nil {
		return nil, err
	}

	out := make([]Composition, 0, len(items))
	for _, item := range items {
		out = append(out, compositionFromObject(item))
	}
	return out, nil
}

func compositionFromObject(obj unstructured.Unstructured) Composition {
	apiVersion, _, _ := unstructured.NestedString(obj.Object, "spec", "compositeTypeRef", "apiVersion")
	kind, _, _ := unstructured.NestedString(obj.Object, "spec", "compositeTypeRef", "kind")
	group, _ := kubernetes.SplitAPIVersion(apiVersion)

	c := Composition{Name: obj.GetName(), CompositeGroup: group, CompositeKind: kind}

	steps, _, _ := unstructured.NestedSlice(obj.Object, "spec", "pipeline")
	for _, step := range steps {
		m, ok := step.(map[string]any)
		if !ok {
			continue
		}
		if name, _, _ := unstructured.NestedString(m, "functionRef", "name"); name != "" {
			c.Functions = append(c.Functions, name)
		}
	}
	return c
}

// XRDDataProvider scans Crossplane CompositeResourceDefinitions.
type XRDDataProvider struct {
	opts Options
}

func NewXRDDataProvider(opts Options) (*XRDDataProvider, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("failed to create XRD data provider: %w", err)
	}
	opts.Log = opts.Log.Named("xrd-data-provider")
	return &XRDDataProvider{opts: opts}, nil
}

// FetchXRDObjects returns a descriptor for every XRD with at least one
// referenceable version, together with its compositions and backing CRD.
func (p *XRDDataProvider) FetchXRDObjects(ctx context.Context) ([]Descriptor, error) {
	return scanClusters(ctx, &p.opts, XRDPath, func(ctx context.Context, log *zap.SugaredLogger, cluster string) ([]Descriptor, error) {
		items, err := p.opts.Fetcher.FetchResources(ctx, kubernetes.FetchRequest{ClusterName: cluster, ResourcePath: XRDPath})
		if err != nil {
			return nil, err
		}

		compositions, err := FetchCompositions(ctx, p.opts.Fetcher, cluster)
		if err != nil {
			log.Warnw("Failed to fetch compositions, continuing without them", "error", err)
		}

		var out []Descriptor
		for _, item := range items {
			d, err := descriptorFromXRD(item, cluster)
			if err != nil {
				log.Warnw("Skipping malformed XRD", "name", item.GetName(), "error", err)
				continue
			}

			for _, c := range compositions {
				if c.CompositeGroup == d.Group && c.CompositeKind == d.Kind {
					d.Compositions = append(d.Compositions, c.Name)
				}
			}
			sort.Strings(d.Compositions)

			crdName := d.Plural + "." + d.Group
			crdObj, err := p.opts.Fetcher.FetchResource(ctx, cluster, CRDPath+"/"+crdName)
			if err != nil {
				log.Debugw("Backing CRD of XRD not found", "xrd", d.Name, "crd", crdName, "error", err)
			} else if crd, err := decodeCRD(crdObj.Object); err == nil {
				d.GeneratedCRD = crd
			}

			out = append(out, d)
		}

		log.Debugw("Fetched XRDs", "count", len(out))
		return out, nil
	})
}

func descriptorFromXRD(obj unstructured.Unstructured, cluster string) (Descriptor, error) {
	group, _, _ := unstructured.NestedString(obj.Object, "spec", "group")
	kind, _, _ := unstructured.NestedString(obj.Object, "spec", "names", "kind")
	plural, _, _ := unstructured.NestedString(obj.Object, "spec", "names", "plural")
	categories, _, _ := unstructured.NestedStringSlice(obj.Object, "spec", "names", "categories")
	if group == "" || kind == "" || plural == "" {
		return Descriptor{}, fmt.Errorf("spec.group, spec.names.kind and spec.names.plural are required")
	}

	d := Descriptor{
		Source:      SourceXRD,
		Name:        obj.GetName(),
		UID:         string(obj.GetUID()),
		Group:       group,
		Kind:        kind,
		Plural:      plural,
		Scope:       ScopeLegacyCluster,
		Categories:  categories,
		Clusters:    []string{cluster},
		ClusterUIDs: map[string]string{cluster: string(obj.GetUID())},
		Labels:      obj.GetLabels(),
		Annotations: obj.GetAnnotations(),
	}

	if scope, found, _ := unstructured.NestedString(obj.Object, "spec", "scope"); found {
		d.IsV2 = true
		if scope != "" {
			d.Scope = Scope(scope)
		}
	}

	claimKind, _, _ := unstructured.NestedString(obj.Object, "spec", "claimNames", "kind")
	claimPlural, _, _ := unstructured.NestedString(obj.Object, "spec", "claimNames", "plural")
	if claimKind != "" {
		d.ClaimNames = &ClaimNames{Kind: claimKind, Plural: claimPlural}
	}

	versions, _, _ := unstructured.NestedSlice(obj.Object, "spec", "versions")
	for _, raw := range versions {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		name, _, _ := unstructured.NestedString(m, "name")
		served, _, _ := unstructured.NestedBool(m, "served")
		referenceable, _, _ := unstructured.NestedBool(m, "referenceable")
		rawSchema, _, _ := unstructured.NestedMap(m, "schema", "openAPIV3Schema")

		props, err := decodeSchemaProps(rawSchema)
		if err != nil {
			return Descriptor{}, fmt.Errorf("version %q: %w", name, err)
		}

		d.Versions = append(d.Versions, Version{Name: name, Served: served, Storage: referenceable, Schema: props})
	}

	if len(d.Versions) == 0 {
		return Descriptor{}, fmt.Errorf("no versions declared")
	}
	if d.StorageVersion() == nil {
		return Descriptor{}, fmt.Errorf("no referenceable version")
	}

	return d, nil
}
