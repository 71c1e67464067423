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

package ownership

import (
	"context"
	"strings"
)

// Resolver determines the owner reference of a record. In order of
// precedence the owner is taken from the object's owner annotation, from
// the owner annotation of its namespace when inheritance is enabled, and
// from the configured default.
type Resolver struct {
	cache        *Cache
	defaultOwner string
	inherit      bool
}

func NewResolver(cache *Cache, defaultOwner string, inheritFromNamespace bool) *Resolver {
	return &Resolver{cache: cache, defaultOwner: defaultOwner, inherit: inheritFromNamespace}
}

// Source describes the object whose owner is resolved.
type Source struct {
	Cluster   string
	Namespace string
	// Owner is the value of the object's owner annotation, if any.
	Owner string
}

// Resolve returns the owner reference. Unqualified owners are prefixed
// with refNamespace.
func (r *Resolver) Resolve(ctx context.Context, src Source, refNamespace string) string {
	if src.Owner != "" {
		return QualifyReference(src.Owner, refNamespace)
	}

	if r.inherit && src.Namespace != "" && r.cache != nil {
		if owner, ok := r.cache.NamespaceOwner(ctx, src.Cluster, src.Namespace); ok {
			return QualifyReference(owner, refNamespace)
		}
	}

	return r.defaultOwner
}

// DefaultOwner returns the owner used when nothing else is known.
func (r *Resolver) DefaultOwner() string {
	return r.defaultOwner
}

// QualifyReference returns ref unchanged if it is already qualified with a
// kind ("group:team-a") and "{namespace}/{ref}" otherwise.
func QualifyReference(ref, namespace string) string {
	if strings.Contains(ref, ":") {
		return ref
	}
	return namespace + "/" + ref
}
