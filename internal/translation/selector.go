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

	"k8c.io/catalog-ingestor/internal/ingest"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// podTemplateLabels returns the labels of the pod template of a workload.
func podTemplateLabels(obj *ingest.Object) map[string]string {
	paths := [][]string{
		{"spec", "template", "metadata", "labels"},
		{"spec", "jobTemplate", "spec", "template", "metadata", "labels"},
	}
	for _, path := range paths {
		labels, found, err := unstructured.NestedStringMap(obj.Object, path...)
		if found && err == nil {
			return labels
		}
	}
	return nil
}

// DeriveLabelSelector returns the labels shared by the object and its pod
// template, or all object labels if they share none.
func DeriveLabelSelector(obj *ingest.Object) string {
	labels := obj.GetLabels()
	if len(labels) == 0 {
		return ""
	}

	podLabels := podTemplateLabels(obj)
	shared := map[string]string{}
	for k, v := range labels {
		if pv, ok := podLabels[k]; ok && pv == v {
			shared[k] = v
		}
	}
	if len(shared) == 0 {
		shared = labels
	}

	return FormatLabelSelector(shared)
}

// FormatLabelSelector renders labels as sorted "k=v" pairs.
func FormatLabelSelector(labels map[string]string) string {
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
