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

package fake

// Builders for the unstructured objects served by Fetcher. All values are
// JSON compatible so the objects survive deep copies.

func stringMap(m map[string]string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stringSlice(s []string) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}

// Object returns a minimal object with the given identity.
func Object(apiVersion, kind, namespace, name string, labels, annotations map[string]string) map[string]any {
	metadata := map[string]any{"name": name}
	if namespace != "" {
		metadata["namespace"] = namespace
	}
	if labels != nil {
		metadata["labels"] = stringMap(labels)
	}
	if annotations != nil {
		metadata["annotations"] = stringMap(annotations)
	}
	return map[string]any{
		"apiVersion": apiVersion,
		"kind":       kind,
		"metadata":   metadata,
	}
}

// WithUID sets metadata.uid.
func WithUID(obj map[string]any, uid string) map[string]any {
	obj["metadata"].(map[string]any)["uid"] = uid
	return obj
}

// WithSpec sets spec.
func WithSpec(obj map[string]any, spec map[string]any) map[string]any {
	obj["spec"] = spec
	return obj
}

// Deployment returns an apps/v1 Deployment with pod template labels.
func Deployment(namespace, name string, labels, podLabels, annotations map[string]string) map[string]any {
	obj := Object("apps/v1", "Deployment", namespace, name, labels, annotations)
	return WithSpec(obj, map[string]any{
		"template": map[string]any{
			"metadata": map[string]any{"labels": stringMap(podLabels)},
		},
	})
}

// CRDSpec describes a CustomResourceDefinition built by CRD.
type CRDSpec struct {
	Group      string
	Kind       string
	Plural     string
	Namespaced bool
	// Versions are declared in order; the first one is the storage version
	// unless NoStorage is set.
	Versions   []string
	NoStorage  bool
	Categories []string
	Labels     map[string]string
	UID        string
	// Schema is used as openAPIV3Schema of every version.
	Schema map[string]any
}

// CRD returns an apiextensions.k8s.io/v1 CustomResourceDefinition.
func CRD(s CRDSpec) map[string]any {
	scope := "Cluster"
	if s.Namespaced {
		scope = "Namespaced"
	}

	schema := s.Schema
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}

	versions := make([]any, 0, len(s.Versions))
	for i, v := range s.Versions {
		versions = append(versions, map[string]any{
			"name":    v,
			"served":  true,
			"storage": i == 0 && !s.NoStorage,
			"schema":  map[string]any{"openAPIV3Schema": schema},
		})
	}

	names := map[string]any{
		"kind":     s.Kind,
		"plural":   s.Plural,
		"singular": "",
		"listKind": s.Kind + "List",
	}
	if len(s.Categories) > 0 {
		names["categories"] = stringSlice(s.Categories)
	}

	obj := Object("apiextensions.k8s.io/v1", "CustomResourceDefinition", "", s.Plural+"."+s.Group, s.Labels, nil)
	if s.UID != "" {
		WithUID(obj, s.UID)
	}
	return WithSpec(obj, map[string]any{
		"group":    s.Group,
		"names":    names,
		"scope":    scope,
		"versions": versions,
	})
}

// XRDSpec describes a Crossplane CompositeResourceDefinition built by XRD.
type XRDSpec struct {
	Group  string
	Kind   string
	Plural string
	// Scope is omitted from the object when empty.
	Scope       string
	ClaimKind   string
	ClaimPlural string
	// Versions are declared in order; the first one is referenceable.
	Versions []string
	UID      string
	Schema   map[string]any
}

// XRD returns an apiextensions.crossplane.io/v1 CompositeResourceDefinition.
func XRD(s XRDSpec) map[string]any {
	schema := s.Schema
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}

	versions := make([]any, 0, len(s.Versions))
	for i, v := range s.Versions {
		versions = append(versions, map[string]any{
			"name":          v,
			"served":        true,
			"referenceable": i == 0,
			"schema":        map[string]any{"openAPIV3Schema": schema},
		})
	}

	spec := map[string]any{
		"group":    s.Group,
		"names":    map[string]any{"kind": s.Kind, "plural": s.Plural},
		"versions": versions,
	}
	if s.Scope != "" {
		spec["scope"] = s.Scope
	}
	if s.ClaimKind != "" {
		spec["claimNames"] = map[string]any{"kind": s.ClaimKind, "plural": s.ClaimPlural}
	}

	obj := Object("apiextensions.crossplane.io/v1", "CompositeResourceDefinition", "", s.Plural+"."+s.Group, nil, nil)
	if s.UID != "" {
		WithUID(obj, s.UID)
	}
	return WithSpec(obj, spec)
}

// Composition returns a pipeline mode composition for the composite type.
func Composition(name, compositeAPIVersion, compositeKind string, functions ...string) map[string]any {
	pipeline := make([]any, 0, len(functions))
	for i, fn := range functions {
		pipeline = append(pipeline, map[string]any{
			"step":        "step-" + string(rune('a'+i)),
			"functionRef": map[string]any{"name": fn},
		})
	}

	obj := Object("apiextensions.crossplane.io/v1", "Composition", "", name, nil, nil)
	return WithSpec(obj, map[string]any{
		"compositeTypeRef": map[string]any{"apiVersion": compositeAPIVersion, "kind": compositeKind},
		"mode":             "Pipeline",
		"pipeline":         pipeline,
	})
}

// RGD returns a kro.run/v1alpha1 ResourceGraphDefinition in the given state.
func RGD(name, uid, group, apiVersion, kind, state string) map[string]any {
	schema := map[string]any{"apiVersion": apiVersion, "kind": kind}
	if group != "" {
		schema["group"] = group
	}

	obj := WithUID(Object("kro.run/v1alpha1", "ResourceGraphDefinition", "", name, nil, nil), uid)
	obj = WithSpec(obj, map[string]any{"schema": schema})
	obj["status"] = map[string]any{"state": state}
	return obj
}

// Namespace returns the raw core/v1 Namespace as returned by Proxy.
func Namespace(name string, annotations map[string]string) map[string]any {
	return Object("v1", "Namespace", "", name, nil, annotations)
}
