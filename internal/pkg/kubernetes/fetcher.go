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

package kubernetes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ErrUnknownCluster is returned for cluster names the fetcher has no
// credentials for.
var ErrUnknownCluster = errors.New("unknown cluster")

const listPageSize = 500

// Query narrows a collection fetch.
type Query struct {
	LabelSelector string
	FieldSelector string
}

// FetchRequest lists a collection on one cluster.
type FetchRequest struct {
	ClusterName  string
	ResourcePath string
	Query        Query
}

// Fetcher is the cluster access used by the data providers.
type Fetcher interface {
	// ListClusters returns the names of all reachable clusters.
	ListClusters(ctx context.Context) ([]string, error)
	// FetchResources lists every object of a collection.
	FetchResources(ctx context.Context, req FetchRequest) ([]unstructured.Unstructured, error)
	// FetchResource gets a single object.
	FetchResource(ctx context.Context, clusterName, resourcePath string) (*unstructured.Unstructured, error)
	// Proxy performs a raw GET of an API server path, e.g. /api/v1/namespaces/foo.
	Proxy(ctx context.Context, clusterName, path string) (map[string]any, error)
}

type clusterClients struct {
	dynamic dynamic.Interface
	rest    rest.Interface
}

// ClusterFetcher implements Fetcher on top of client-go. Every context of
// the kubeconfig is a cluster, named after the context.
type ClusterFetcher struct {
	configs map[string]*rest.Config

	mu      sync.Mutex
	clients map[string]*clusterClients
}

var _ Fetcher = &ClusterFetcher{}

// NewClusterFetcher loads the kubeconfig at path (default loading rules if
// empty) and prepares one client set per context.
func NewClusterFetcher(path string) (*ClusterFetcher, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		rules.ExplicitPath = path
	}

	raw, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).RawConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	configs := make(map[string]*rest.Config, len(raw.Contexts))
	for name := range raw.Contexts {
		cfg, err := clientcmd.NewNonInteractiveClientConfig(raw, name, &clientcmd.ConfigOverrides{}, rules).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to build client config for context %q: %w", name, err)
		}
		configs[name] = cfg
	}

	return NewClusterFetcherFromConfigs(configs), nil
}

// NewClusterFetcherFromConfigs uses one rest config per cluster name.
func NewClusterFetcherFromConfigs(configs map[string]*rest.Config) *ClusterFetcher {
	return &ClusterFetcher{
		configs: configs,
		clients: make(map[string]*clusterClients, len(configs)),
	}
}

func (f *ClusterFetcher) clientsFor(clusterName string) (*clusterClients, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[clusterName]; ok {
		return c, nil
	}

	cfg, ok := f.configs[clusterName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCluster, clusterName)
	}

	dc, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client for cluster %q: %w", clusterName, err)
	}
	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset for cluster %q: %w", clusterName, err)
	}

	c := &clusterClients{dynamic: dc, rest: cs.CoreV1().RESTClient()}
	f.clients[clusterName] = c
	return c, nil
}

func (f *ClusterFetcher) ListClusters(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(f.configs))
	for name := range f.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *ClusterFetcher) FetchResources(ctx context.Context, req FetchRequest) ([]unstructured.Unstructured, error) {
	path, err := ParseResourcePath(req.ResourcePath)
	if err != nil {
		return nil, err
	}
	c, err := f.clientsFor(req.ClusterName)
	if err != nil {
		return nil, err
	}

	var ri dynamic.ResourceInterface = c.dynamic.Resource(path.GroupVersionResource())
	if path.Namespace != "" {
		ri = c.dynamic.Resource(path.GroupVersionResource()).Namespace(path.Namespace)
	}

	opts := metav1.ListOptions{
		LabelSelector: req.Query.LabelSelector,
		FieldSelector: req.Query.FieldSelector,
		Limit:         listPageSize,
	}

	var items []unstructured.Unstructured
	for {
		list, err := ri.List(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s on cluster %q: %w", req.ResourcePath, req.ClusterName, err)
		}
		items = append(items, list.Items...)

		if list.GetContinue() == "" {
			return items, nil
		}
		opts.Continue = list.GetContinue()
	}
}

func (f *ClusterFetcher) FetchResource(ctx context.Context, clusterName, resourcePath string) (*unstructured.Unstructured, error) {
	path, err := ParseResourcePath(resourcePath)
	if err != nil {
		return nil, err
	}
	if path.Name == "" {
		return nil, fmt.Errorf("resource path %q does not name an object", resourcePath)
	}
	c, err := f.clientsFor(clusterName)
	if err != nil {
		return nil, err
	}

	var ri dynamic.ResourceInterface = c.dynamic.Resource(path.GroupVersionResource())
	if path.Namespace != "" {
		ri = c.dynamic.Resource(path.GroupVersionResource()).Namespace(path.Namespace)
	}

	obj, err := ri.Get(ctx, path.Name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s on cluster %q: %w", resourcePath, clusterName, err)
	}
	return obj, nil
}

func (f *ClusterFetcher) Proxy(ctx context.Context, clusterName, path string) (map[string]any, error) {
	c, err := f.clientsFor(clusterName)
	if err != nil {
		return nil, err
	}

	raw, err := c.rest.Get().AbsPath(path).DoRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to proxy %s on cluster %q: %w", path, clusterName, err)
	}

	out := map[string]any{}
	if err := utiljson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response of %s on cluster %q: %w", path, clusterName, err)
	}
	return out, nil
}
