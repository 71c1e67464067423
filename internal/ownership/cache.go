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

// Package ownership resolves the owner of generated catalog records.
package ownership

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	"k8c.io/catalog-ingestor/internal/pkg/metrics"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Key identifies a namespace on a cluster.
type Key struct {
	Cluster   string
	Namespace string
}

func (k Key) String() string {
	return k.Cluster + "/" + k.Namespace
}

type entry struct {
	owner string
	// failed marks a lookup that could not be performed. It is cached like
	// a successful lookup and never retried before the next Clear.
	failed bool
}

// Cache remembers the owner annotation of namespaces for the duration of
// one run. Concurrent lookups of the same namespace share a single fetch.
type Cache struct {
	log           *zap.SugaredLogger
	fetcher       kubernetes.Fetcher
	annotationKey string

	mu      sync.RWMutex
	entries map[Key]entry

	group singleflight.Group
}

// NewCache returns a cache reading the owner from annotationKey.
func NewCache(log *zap.SugaredLogger, fetcher kubernetes.Fetcher, annotationKey string) *Cache {
	return &Cache{
		log:           log,
		fetcher:       fetcher,
		annotationKey: annotationKey,
		entries:       make(map[Key]entry),
	}
}

// Clear drops all cached entries. It is called at the start of every run.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]entry)
}

// Len returns the number of cached namespaces.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) get(key Key) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// NamespaceOwner returns the owner annotation of the namespace. The bool is
// false when the namespace has no owner or could not be fetched.
func (c *Cache) NamespaceOwner(ctx context.Context, cluster, namespace string) (string, bool) {
	key := Key{Cluster: cluster, Namespace: namespace}

	if e, ok := c.get(key); ok {
		metrics.NamespaceLookups.WithLabelValues(metrics.LookupHit).Inc()
		return e.owner, !e.failed && e.owner != ""
	}

	result, _, _ := c.group.Do(key.String(), func() (any, error) {
		if e, ok := c.get(key); ok {
			return e, nil
		}

		e := c.fetch(ctx, key)

		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()

		return e, nil
	})

	e := result.(entry)
	return e.owner, !e.failed && e.owner != ""
}

func (c *Cache) fetch(ctx context.Context, key Key) entry {
	ns, err := c.fetcher.Proxy(ctx, key.Cluster, "/api/v1/namespaces/"+key.Namespace)
	if err != nil {
		c.log.Debugw("Failed to fetch namespace, falling back to the default owner",
			"cluster", key.Cluster, "namespace", key.Namespace, "error", err)
		metrics.NamespaceLookups.WithLabelValues(metrics.LookupFailure).Inc()
		return entry{failed: true}
	}

	owner, _, _ := unstructured.NestedString(ns, "metadata", "annotations", c.annotationKey)
	if owner == "" {
		metrics.NamespaceLookups.WithLabelValues(metrics.LookupNotFound).Inc()
	} else {
		metrics.NamespaceLookups.WithLabelValues(metrics.LookupMiss).Inc()
	}
	return entry{owner: owner}
}
