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
	"slices"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
)

// CRDSelector narrows the CRDs returned by FetchCRDObjects. An empty
// selector matches every CRD.
type CRDSelector struct {
	LabelSelector string
	Names         []string
}

// CRDDataProvider scans CustomResourceDefinitions.
type CRDDataProvider struct {
	opts Options
}

func NewCRDDataProvider(opts Options) (*CRDDataProvider, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("failed to create CRD data provider: %w", err)
	}
	opts.Log = opts.Log.Named("crd-data-provider")
	return &CRDDataProvider{opts: opts}, nil
}

// FetchCRDObjects returns a descriptor for every selected CRD with a
// storage version, merged across clusters by name.
func (p *CRDDataProvider) FetchCRDObjects(ctx context.Context, sel CRDSelector) ([]Descriptor, error) {
	return scanClusters(ctx, &p.opts, CRDPath, func(ctx context.Context, log *zap.SugaredLogger, cluster string) ([]Descriptor, error) {
		items, err := p.opts.Fetcher.FetchResources(ctx, kubernetes.FetchRequest{
			ClusterName:  cluster,
			ResourcePath: CRDPath,
			Query:        kubernetes.Query{LabelSelector: sel.LabelSelector},
		})
		if err != nil {
			return nil, err
		}

		var out []Descriptor
		for _, item := range items {
			if len(sel.Names) > 0 && !slices.Contains(sel.Names, item.GetName()) {
				continue
			}

			crd, err := decodeCRD(item.Object)
			if err != nil {
				log.Warnw("Skipping malformed CRD", "name", item.GetName(), "error", err)
				continue
			}

			d := descriptorFromCRD(crd, cluster)
			if d.StorageVersion() == nil {
				log.Warnw("Skipping CRD without a storage version", "name", crd.Name)
				continue
			}
			out = append(out, d)
		}

		log.Debugw("Fetched CRDs", "count", len(out))
		return out, nil
	})
}

// CRDMapping returns kind to plural for descriptors. The first descriptor
// defining a kind wins.
func CRDMapping(descriptors []Descriptor) map[string]string {
	mapping := make(map[string]string, len(descriptors))
	for _, d := range descriptors {
		if _, ok := mapping[d.Kind]; !ok {
			mapping[d.Kind] = d.Plural
		}
	}
	return mapping
}

func descriptorFromCRD(crd *apiextensionsv1.CustomResourceDefinition, cluster string) Descriptor {
	scope := ScopeCluster
	if crd.Spec.Scope == apiextensionsv1.NamespaceScoped {
		scope = ScopeNamespaced
	}

	return Descriptor{
		Source:      SourceCRD,
		Name:        crd.Name,
		UID:         string(crd.UID),
		Group:       crd.Spec.Group,
		Plural:      crd.Spec.Names.Plural,
		Kind:        crd.Spec.Names.Kind,
		Scope:       scope,
		Versions:    crdVersions(crd),
		Categories:  crd.Spec.Names.Categories,
		Clusters:    []string{cluster},
		ClusterUIDs: map[string]string{cluster: string(crd.UID)},
		Labels:      crd.Labels,
		Annotations: crd.Annotations,
	}
}
