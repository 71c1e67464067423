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

// Package fake provides an in-memory kubernetes.Fetcher for tests.
package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Fetcher serves objects registered with Add. Collections are keyed by
// their cluster-wide path; namespaced and single-object requests are
// answered from the same collection.
type Fetcher struct {
	mu sync.Mutex

	clusters        []string
	listClustersErr error
	objects         map[string]map[string][]unstructured.Unstructured
	errors          map[string]map[string]error
	proxies         map[string]map[string]map[string]any
	proxyErrors     map[string]map[string]error

	// ProxyDelay slows down every Proxy call, to widen race windows in
	// concurrency tests.
	ProxyDelay time.Duration

	calls map[string]int
}

var _ kubernetes.Fetcher = &Fetcher{}

func NewFetcher(clusters ...string) *Fetcher {
	return &Fetcher{
		clusters:    clusters,
		objects:     map[string]map[string][]unstructured.Unstructured{},
		errors:      map[string]map[string]error{},
		proxies:     map[string]map[string]map[string]any{},
		proxyErrors: map[string]map[string]error{},
		calls:       map[string]int{},
	}
}

// Add registers objects under the collection path on cluster.
func (f *Fetcher) Add(cluster, collectionPath string, objs ...map[string]any) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.objects[cluster] == nil {
		f.objects[cluster] = map[string][]unstructured.Unstructured{}
	}
	for _, o := range objs {
		f.objects[cluster][collectionPath] = append(f.objects[cluster][collectionPath], unstructured.Unstructured{Object: o})
	}
	return f
}

// FailList makes every list or get of collectionPath on cluster fail.
func (f *Fetcher) FailList(cluster, collectionPath string, err error) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.errors[cluster] == nil {
		f.errors[cluster] = map[string]error{}
	}
	f.errors[cluster][collectionPath] = err
	return f
}

// FailListClusters makes ListClusters fail.
func (f *Fetcher) FailListClusters(err error) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listClustersErr = err
	return f
}

// AddProxy registers the response of a Proxy call.
func (f *Fetcher) AddProxy(cluster, path string, obj map[string]any) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.proxies[cluster] == nil {
		f.proxies[cluster] = map[string]map[string]any{}
	}
	f.proxies[cluster][path] = obj
	return f
}

// FailProxy makes Proxy calls for path on cluster fail.
func (f *Fetcher) FailProxy(cluster, path string, err error) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.proxyErrors[cluster] == nil {
		f.proxyErrors[cluster] = map[string]error{}
	}
	f.proxyErrors[cluster][path] = err
	return f
}

// Calls returns how often a method was called for cluster and path.
// method is one of "list", "get" or "proxy".
func (f *Fetcher) Calls(method, cluster, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[callKey(method, cluster, path)]
}

func callKey(method, cluster, path string) string {
	return method + "|" + cluster + "|" + path
}

func (f *Fetcher) ListClusters(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listClustersErr != nil {
		return nil, f.listClustersErr
	}
	return append([]string(nil), f.clusters...), nil
}

func (f *Fetcher) FetchResources(_ context.Context, req kubernetes.FetchRequest) ([]unstructured.Unstructured, error) {
	path, err := kubernetes.ParseResourcePath(req.ResourcePath)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[callKey("list", req.ClusterName, req.ResourcePath)]++

	collection := path.Collection().String()
	if err := f.errors[req.ClusterName][collection]; err != nil {
		return nil, err
	}

	selector := labels.Everything()
	if req.Query.LabelSelector != "" {
		selector, err = labels.Parse(req.Query.LabelSelector)
		if err != nil {
			return nil, err
		}
	}

	var out []unstructured.Unstructured
	for _, obj := range f.objects[req.ClusterName][collection] {
		if path.Namespace != "" && obj.GetNamespace() != path.Namespace {
			continue
		}
		if !selector.Matches(labels.Set(obj.GetLabels())) {
			continue
		}
		out = append(out, *obj.DeepCopy())
	}
	return out, nil
}

func (f *Fetcher) FetchResource(_ context.Context, clusterName, resourcePath string) (*unstructured.Unstructured, error) {
	path, err := kubernetes.ParseResourcePath(resourcePath)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[callKey("get", clusterName, resourcePath)]++

	collection := path.Collection().String()
	if err := f.errors[clusterName][collection]; err != nil {
		return nil, err
	}

	for _, obj := range f.objects[clusterName][collection] {
		if obj.GetName() == path.Name && obj.GetNamespace() == path.Namespace {
			return obj.DeepCopy(), nil
		}
	}
	return nil, apierrors.NewNotFound(schema.GroupResource{Group: path.Group, Resource: path.Plural}, path.Name)
}

func (f *Fetcher) Proxy(ctx context.Context, clusterName, path string) (map[string]any, error) {
	f.mu.Lock()
	f.calls[callKey("proxy", clusterName, path)]++
	delay := f.ProxyDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.proxyErrors[clusterName][path]; err != nil {
		return nil, err
	}
	obj, ok := f.proxies[clusterName][path]
	if !ok {
		return nil, fmt.Errorf("%s not found on cluster %q", path, clusterName)
	}
	return (&unstructured.Unstructured{Object: obj}).DeepCopy().Object, nil
}
