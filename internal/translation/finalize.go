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
	"sort"
	"strings"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/pkg/metrics"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"
)

type entityKey struct {
	kind      catalogv1alpha1.EntityKind
	namespace string
	name      string
}

func keyOf(e *catalogv1alpha1.Entity) entityKey {
	ns := e.Metadata.Namespace
	if ns == "" {
		ns = catalogv1alpha1.DefaultNamespace
	}
	return entityKey{kind: e.Kind, namespace: ns, name: e.Metadata.Name}
}

// systemKey returns the key of the System referenced by a workload record.
func systemKey(e *catalogv1alpha1.Entity) entityKey {
	ref := strings.TrimPrefix(e.Spec.System, "system:")
	ns, name, ok := strings.Cut(ref, "/")
	if !ok {
		ns, name = e.Metadata.Namespace, ref
	}
	if ns == "" {
		ns = catalogv1alpha1.DefaultNamespace
	}
	return entityKey{kind: catalogv1alpha1.KindSystem, namespace: ns, name: name}
}

// Finalize turns the records generated in one run into a publishable set:
// records with names longer than MaxNameLength are dropped, duplicates are
// dropped keeping the first, Components and Resources whose System is not
// part of the set are dropped, and the result is ordered by kind,
// namespace and name.
func Finalize(log *zap.SugaredLogger, provider string, entities []catalogv1alpha1.Entity) []catalogv1alpha1.Entity {
	seen := make(map[entityKey]bool, len(entities))
	valid := make([]catalogv1alpha1.Entity, 0, len(entities))

	for i := range entities {
		e := &entities[i]

		if len(e.Metadata.Name) > catalogv1alpha1.MaxNameLength {
			log.Warnw("Dropping record with a name longer than the allowed maximum",
				"kind", e.Kind, "name", e.Metadata.Name, "maxLength", catalogv1alpha1.MaxNameLength)
			metrics.EntitiesDropped.WithLabelValues(provider, metrics.ReasonNameTooLong).Inc()
			continue
		}

		key := keyOf(e)
		if seen[key] {
			log.Debugw("Dropping duplicate record", "ref", e.Ref())
			metrics.EntitiesDropped.WithLabelValues(provider, metrics.ReasonDuplicate).Inc()
			continue
		}
		seen[key] = true
		valid = append(valid, *e)
	}

	out := valid[:0]
	for i := range valid {
		e := &valid[i]
		if e.IsWorkloadRecord() && !seen[systemKey(e)] {
			log.Warnw("Dropping record whose system is not part of the catalog",
				"ref", e.Ref(), "system", e.Spec.System)
			metrics.EntitiesDropped.WithLabelValues(provider, metrics.ReasonMissingSystem).Inc()
			continue
		}
		out = append(out, *e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := keyOf(&out[i]), keyOf(&out[j])
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		if a.namespace != b.namespace {
			return a.namespace < b.namespace
		}
		return a.name < b.name
	})

	return out
}
