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

package catalog

import (
	"context"
	"sort"
	"sync"

	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"
)

// MemoryConnection keeps the last applied records in memory.
type MemoryConnection struct {
	mu        sync.Mutex
	byKey     map[string][]catalogv1alpha1.Entity
	mutations int
}

var _ Connection = &MemoryConnection{}

func NewMemoryConnection() *MemoryConnection {
	return &MemoryConnection{byKey: map[string][]catalogv1alpha1.Entity{}}
}

func (c *MemoryConnection) ApplyMutation(_ context.Context, m Mutation) error {
	_, groups, err := groupByLocation(m)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = groups
	c.mutations++
	return nil
}

// Mutations returns how many mutations were applied.
func (c *MemoryConnection) Mutations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutations
}

// Entities returns the records of the last mutation, ordered by location
// key and then in publication order.
func (c *MemoryConnection) Entities() []catalogv1alpha1.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []catalogv1alpha1.Entity
	for _, k := range keys {
		out = append(out, c.byKey[k]...)
	}
	return out
}

// LocationKeys returns the location keys of the last mutation.
func (c *MemoryConnection) LocationKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
