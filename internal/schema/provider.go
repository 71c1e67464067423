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
	"golang.org/x/sync/errgroup"

	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	"k8c.io/catalog-ingestor/internal/pkg/metrics"
)

// Resource paths of the scanned schema objects.
const (
	CRDPath         = "apiextensions.k8s.io/v1/customresourcedefinitions"
	XRDPath         = "apiextensions.crossplane.io/v1/compositeresourcedefinitions"
	CompositionPath = "apiextensions.crossplane.io/v1/compositions"
	RGDPath         = "kro.run/v1alpha1/resourcegraphdefinitions"
)

const (
	// LabelRGDID links KRO generated CRDs and instances to their RGD.
	LabelRGDID = "kro.run/resource-graph-definition-id"
	// LabelInstanceID is set by KRO on every object created for an instance.
	LabelInstanceID = "kro.run/instance-id"

	// RGDStateActive is the only RGD state that is ingested.
	RGDStateActive = "Active"
	// DefaultKROGroup is used for RGDs whose schema does not declare a group.
	DefaultKROGroup = "kro.run"

	// CategoryClaim marks CRDs of Crossplane claims.
	CategoryClaim = "claim"
)

const defaultConcurrency = 4

// Options are shared by all schema data providers.
type Options struct {
	Log     *zap.SugaredLogger
	Fetcher kubernetes.Fetcher

	// Clusters is an optional allow-list of clusters to scan.
	Clusters []string

	// Concurrency bounds the number of clusters scanned in parallel.
	Concurrency int
}

func (o *Options) validate() error {
	if o.Log == nil {
		return fmt.Errorf("log cannot be nil")
	}
	if o.Fetcher == nil {
		return fmt.Errorf("fetcher cannot be nil")
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("concurrency must be a non-negative number")
	}
	return nil
}

type clusterScanFunc func(ctx context.Context, log *zap.SugaredLogger, cluster string) ([]Descriptor, error)

// scanClusters runs scan on every target cluster and merges the results.
// A failing cluster is logged and skipped.
func scanClusters(ctx context.Context, o *Options, resource string, scan clusterScanFunc) ([]Descriptor, error) {
	clusters, err := kubernetes.ResolveClusters(ctx, o.Fetcher, o.Clusters)
	if err != nil {
		return nil, err
	}

	limit := o.Concurrency
	if limit == 0 {
		limit = defaultConcurrency
	}

	results := make([][]Descriptor, len(clusters))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, cluster := range clusters {
		g.Go(func() error {
			l := o.Log.With("cluster", cluster)

			descriptors, err := scan(ctx, l, cluster)
			if err != nil {
				l.Errorw("Failed to fetch schema objects", "resource", resource, "error", err)
				metrics.FetchErrors.WithLabelValues(cluster, resource).Inc()
				return nil
			}
			results[i] = descriptors
			return nil
		})
	}
	_ = g.Wait()

	return mergeDescriptors(results), nil
}
