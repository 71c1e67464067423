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

package ingest

import (
	"sort"

	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	"k8c.io/catalog-ingestor/internal/schema"
)

// WorkloadType is a collection fetched from every cluster it applies to.
type WorkloadType struct {
	Group   string
	Version string
	Plural  string

	// ComponentType is the record type hint for objects of this collection.
	ComponentType string
}

// Path returns the collection path of the type.
func (w WorkloadType) Path() string {
	return kubernetes.CollectionPath(w.Group, w.Version, w.Plural)
}

// DefaultWorkloadTypes are ingested unless disabled in the configuration.
var DefaultWorkloadTypes = []WorkloadType{
	{Group: "apps", Version: "v1", Plural: "deployments"},
	{Group: "apps", Version: "v1", Plural: "statefulsets"},
	{Group: "apps", Version: "v1", Plural: "daemonsets"},
	{Group: "batch", Version: "v1", Plural: "cronjobs"},
}

// workloadTypeSet collects workload types keyed by path. The first type
// registered for a path wins.
type workloadTypeSet map[string]WorkloadType

func (s workloadTypeSet) add(types ...WorkloadType) {
	for _, t := range types {
		if _, ok := s[t.Path()]; !ok {
			s[t.Path()] = t
		}
	}
}

func (s workloadTypeSet) addDescriptor(d *schema.Descriptor) {
	v := d.StorageVersion()
	if v == nil {
		return
	}
	s.add(WorkloadType{Group: d.Group, Version: v.Name, Plural: d.Plural})
}

func (s workloadTypeSet) clone() workloadTypeSet {
	out := make(workloadTypeSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// sorted returns the types ordered by path.
func (s workloadTypeSet) sorted() []WorkloadType {
	out := make([]WorkloadType, 0, len(s))
	for _, t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path() < out[j].Path()
	})
	return out
}

// baseWorkloadTypes returns the built-in and custom workload types.
func baseWorkloadTypes(cfg *config.Config) workloadTypeSet {
	set := workloadTypeSet{}
	if !cfg.Components.Enabled {
		return set
	}

	if !cfg.Components.DisableDefaultWorkloadTypes {
		set.add(DefaultWorkloadTypes...)
	}
	for _, custom := range cfg.Components.CustomWorkloadTypes {
		set.add(WorkloadType{
			Group:         custom.Group,
			Version:       custom.APIVersion,
			Plural:        custom.Plural,
			ComponentType: custom.ComponentType,
		})
	}
	return set
}
