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

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// RGDDataProvider scans KRO ResourceGraphDefinitions.
type RGDDataProvider struct {
	opts Options
}

func NewRGDDataProvider(opts Options) (*RGDDataProvider, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("failed to create RGD data provider: %w", err)
	}
	opts.Log = opts.Log.Named("rgd-data-provider")
	return &RGDDataProvider{opts: opts}, nil
}

// FetchRGDObjects returns a descriptor for every active RGD whose
// generated CRD exists. Plural, scope and versions are taken from the CRD.
func (p *RGDDataProvider) FetchRGDObjects(ctx context.Context) ([]Descriptor, error) {
	return scanClusters(ctx, &p.opts, RGDPath, func(ctx context.Context, log *zap.SugaredLogger, cluster string) ([]Descriptor, error) {
		items, err := p.opts.Fetcher.FetchResources(ctx, kubernetes.FetchRequest{ClusterName: cluster, ResourcePath: RGDPath})
		if err != nil {
			return nil, err
		}

		var out []Descriptor
		for _, item := range items {
			l := log.With("rgd", item.GetName())

			state, _, _ := unstructured.NestedString(item.Object, "status", "state")
			if state != RGDStateActive {
				l.Debugw("Skipping inactive RGD", "state", state)
				continue
			}

			kind, _, _ := unstructured.NestedString(item.Object, "spec", "schema", "kind")
			if kind == "" {
				l.Warn("Skipping RGD without spec.schema.kind")
				continue
			}
			group, _, _ := unstructured.NestedString(item.Object, "spec", "schema", "group")
			if group == "" {
				group = DefaultKROGroup
			}

			crds, err := p.opts.Fetcher.FetchResources(ctx, kubernetes.FetchRequest{
				ClusterName:  cluster,
				ResourcePath: CRDPath,
				Query:        kubernetes.Query{LabelSelector: LabelRGDID + "=" + string(item.GetUID())},
			})
			if err != nil || len(crds) == 0 {
				l.Warnw("Skipping RGD without a generated CRD", "error", err)
				continue
			}

			crd, err := decodeCRD(crds[0].Object)
			if err != nil {
				l.Warnw("Skipping RGD with a malformed generated CRD", "error", err)
				continue
			}

			fromCRD := descriptorFromCRD(crd, cluster)
			if fromCRD.StorageVersion() == nil {
				l.Warnw("Skipping RGD whose generated CRD has no storage version", "crd", crd.Name)
				continue
			}

			out = append(out, Descriptor{
				Source:       SourceRGD,
				Name:         item.GetName(),
				UID:          string(item.GetUID()),
				Group:        group,
				Kind:         kind,
				Plural:       fromCRD.Plural,
				Scope:        fromCRD.Scope,
				Versions:     fromCRD.Versions,
				Categories:   fromCRD.Categories,
				GeneratedCRD: crd,
				Clusters:     []string{cluster},
				ClusterUIDs:  map[string]string{cluster: string(item.GetUID())},
				Labels:       item.GetLabels(),
				Annotations:  item.GetAnnotations(),
			})
		}

		log.Debugw("Fetched RGDs", "count", len(out))
		return out, nil
	})
}
