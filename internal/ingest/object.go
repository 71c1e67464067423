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

// Package ingest fetches the cluster objects that are turned into catalog
// records and classifies each of them exactly once.
package ingest

import (
	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	"k8c.io/catalog-ingestor/internal/schema"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Category is the closed set of object shapes the translation handles.
type Category string

const (
	CategoryWorkload    Category = "Workload"
	CategoryClaim       Category = "Claim"
	CategoryComposite   Category = "Composite"
	CategoryKROInstance Category = "KROInstance"
)

// CompositionData describes the composition selected by a claim or composite.
type CompositionData struct {
	Name          string
	UsedFunctions []string
}

// KROData links a KRO instance to its RGD.
type KROData struct {
	RGD *schema.Descriptor
	CRD *apiextensionsv1.CustomResourceDefinition
}

// Object is a fetched cluster object together with everything learned
// about it during ingestion.
type Object struct {
	unstructured.Unstructured

	ClusterName string
	Category    Category

	// WorkloadType is the component type configured for the object's kind.
	WorkloadType string

	Composition *CompositionData
	KRO         *KROData
}

// Group returns the API group of the object.
func (o *Object) Group() string {
	group, _ := kubernetes.SplitAPIVersion(o.GetAPIVersion())
	return group
}

// Version returns the API version of the object without its group.
func (o *Object) Version() string {
	_, version := kubernetes.SplitAPIVersion(o.GetAPIVersion())
	return version
}

// Annotation returns the value of an annotation, or "".
func (o *Object) Annotation(key string) string {
	return o.GetAnnotations()[key]
}

// NestedString returns a string field, or "".
func (o *Object) NestedString(fields ...string) string {
	s, _, _ := unstructured.NestedString(o.Object, fields...)
	return s
}

func hasField(obj map[string]any, fields ...string) bool {
	_, found, _ := unstructured.NestedFieldNoCopy(obj, fields...)
	return found
}

// isClaimShaped reports whether obj looks like a Crossplane claim.
func isClaimShaped(obj *unstructured.Unstructured) bool {
	if hasField(obj.Object, "spec", "resourceRef") {
		return true
	}
	name, _, _ := unstructured.NestedString(obj.Object, "spec", "compositionRef", "name")
	return name != "" && obj.GetNamespace() != ""
}

// isCompositeShaped reports whether obj looks like a Crossplane v2 composite.
func isCompositeShaped(obj *unstructured.Unstructured) bool {
	return hasField(obj.Object, "spec", "crossplane")
}

// compositionName returns the name of the composition selected by a claim
// or composite.
func compositionName(obj *unstructured.Unstructured, category Category) string {
	var name string
	switch category {
	case CategoryClaim:
		name, _, _ = unstructured.NestedString(obj.Object, "spec", "compositionRef", "name")
	case CategoryComposite:
		name, _, _ = unstructured.NestedString(obj.Object, "spec", "crossplane", "compositionRef", "name")
	}
	return name
}

// classify assigns the category of obj. rgdsByUID holds the RGDs of the
// object's cluster. An object labelled by KRO is only an instance if the
// RGD defines its group and kind; otherwise it was created by an instance.
func classify(obj *unstructured.Unstructured, rgdsByUID map[string]*schema.Descriptor) (Category, *KROData) {
	switch {
	case isClaimShaped(obj):
		return CategoryClaim, nil
	case isCompositeShaped(obj):
		return CategoryComposite, nil
	}

	uid, ok := obj.GetLabels()[schema.LabelRGDID]
	if !ok {
		return CategoryWorkload, nil
	}
	rgd, ok := rgdsByUID[uid]
	if !ok {
		return CategoryWorkload, nil
	}
	group, _ := kubernetes.SplitAPIVersion(obj.GetAPIVersion())
	if rgd.Group != group || rgd.Kind != obj.GetKind() {
		return CategoryWorkload, nil
	}

	return CategoryKROInstance, &KROData{RGD: rgd, CRD: rgd.GeneratedCRD}
}
