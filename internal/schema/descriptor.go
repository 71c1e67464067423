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
	"fmt"
	"slices"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// Source is the kind of object a descriptor was built from.
type Source string

const (
	SourceCRD Source = "CRD"
	SourceXRD Source = "XRD"
	SourceRGD Source = "RGD"
)

// Scope of the resources a descriptor defines.
type Scope string

const (
	ScopeCluster    Scope = "Cluster"
	ScopeNamespaced Scope = "Namespaced"
	// ScopeLegacyCluster is the scope of Crossplane v1 composites, which
	// are cluster scoped and may be claimed from a namespace.
	ScopeLegacyCluster Scope = "LegacyCluster"
)

// Version is a single version of a defined resource.
type Version struct {
	Name    string
	Served  bool
	Storage bool
	Schema  *apiextensionsv1.JSONSchemaProps
}

// ClaimNames are the names of the namespaced claim of a legacy composite.
type ClaimNames struct {
	Kind   string
	Plural string
}

// Descriptor is the normalized view of a CRD, XRD or RGD.
type Descriptor struct {
	Source Source
	// Name is the name of the source object.
	Name string
	UID  string

	Group  string
	Plural string
	Kind   string
	Scope  Scope

	Versions   []Version
	Categories []string

	// ClaimNames is only set for XRDs offering a claim.
	ClaimNames *ClaimNames
	// Compositions lists the names of the compositions implementing an XRD.
	Compositions []string
	// IsV2 is set for XRDs declaring spec.scope.
	IsV2 bool

	// GeneratedCRD is the CRD backing an XRD or RGD, when it could be found.
	GeneratedCRD *apiextensionsv1.CustomResourceDefinition

	// Clusters the descriptor was found on, in discovery order.
	Clusters []string
	// ClusterUIDs maps each cluster to the UID of the source object there.
	ClusterUIDs map[string]string

	Labels      map[string]string
	Annotations map[string]string
}

// StorageVersion returns the stored (or, for XRDs, referenceable) version.
func (d *Descriptor) StorageVersion() *Version {
	for i := range d.Versions {
		if d.Versions[i].Storage {
			return &d.Versions[i]
		}
	}
	return nil
}

// ServedVersions returns all served versions in declaration order.
func (d *Descriptor) ServedVersions() []Version {
	var out []Version
	for _, v := range d.Versions {
		if v.Served {
			out = append(out, v)
		}
	}
	return out
}

// APIVersion returns "{group}/{version}".
func (d *Descriptor) APIVersion(version string) string {
	if d.Group == "" {
		return version
	}
	return d.Group + "/" + version
}

// Namespaced reports whether instances live in a namespace. Legacy
// composites are cluster scoped.
func (d *Descriptor) Namespaced() bool {
	return d.Scope == ScopeNamespaced
}

// IsLegacy reports whether d is a Crossplane v1 style composite definition.
func (d *Descriptor) IsLegacy() bool {
	return d.Source == SourceXRD && (!d.IsV2 || d.Scope == ScopeLegacyCluster)
}

// InCluster reports whether d was found on the named cluster.
func (d *Descriptor) InCluster(cluster string) bool {
	return slices.Contains(d.Clusters, cluster)
}

// HasCategory reports whether the defined resource belongs to category.
func (d *Descriptor) HasCategory(category string) bool {
	return slices.Contains(d.Categories, category)
}

// mergeDescriptors joins descriptors found on several clusters. The first
// occurrence of a name wins; later ones only add their clusters.
func mergeDescriptors(perCluster [][]Descriptor) []Descriptor {
	var out []Descriptor
	index := map[string]int{}

	for _, descriptors := range perCluster {
		for _, d := range descriptors {
			if i, ok := index[d.Name]; ok {
				for _, c := range d.Clusters {
					if !out[i].InCluster(c) {
						out[i].Clusters = append(out[i].Clusters, c)
						out[i].ClusterUIDs[c] = d.ClusterUIDs[c]
					}
				}
				continue
			}
			index[d.Name] = len(out)
			out = append(out, d)
		}
	}

	return out
}

func decodeCRD(obj map[string]any) (*apiextensionsv1.CustomResourceDefinition, error) {
	crd := &apiextensionsv1.CustomResourceDefinition{}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj, crd); err != nil {
		return nil, fmt.Errorf("failed to decode CustomResourceDefinition: %w", err)
	}
	return crd, nil
}

func decodeSchemaProps(obj map[string]any) (*apiextensionsv1.JSONSchemaProps, error) {
	if obj == nil {
		return nil, nil
	}
	props := &apiextensionsv1.JSONSchemaProps{}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj, props); err != nil {
		return nil, fmt.Errorf("failed to decode OpenAPI schema: %w", err)
	}
	return props, nil
}

func crdVersions(crd *apiextensionsv1.CustomResourceDefinition) []Version {
	versions := make([]Version, 0, len(crd.Spec.Versions))
	for _, v := range crd.Spec.Versions {
		version := Version{Name: v.Name, Served: v.Served, Storage: v.Storage}
		if v.Schema != nil {
			version.Schema = v.Schema.OpenAPIV3Schema
		}
		versions = append(versions, version)
	}
	return versions
}
