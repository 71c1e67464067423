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

	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// PatchObject applies modify to obj and sends the difference to the API
// server as a merge patch.
func PatchObject(ctx context.Context, client ctrlruntimeclient.Client, obj ctrlruntimeclient.Object, modify func()) error {
	if modify == nil {
		return nil
	}

	oldObj := obj.DeepCopyObject().(ctrlruntimeclient.Object)
	modify()
	return client.Patch(ctx, obj, ctrlruntimeclient.MergeFrom(oldObj))
}

// EnsureLabels sets every label of desired on obj, keeping labels that are
// not part of desired.
func EnsureLabels(obj ctrlruntimeclient.Object, desired map[string]string) {
	if len(desired) == 0 {
		return
	}
	labels := obj.GetLabels()
	if labels == nil {
		labels = make(map[string]string, len(desired))
	}
	for k, v := range desired {
		labels[k] = v
	}
	obj.SetLabels(labels)
}

// EnsureAnnotations sets every annotation of desired on obj, keeping
// annotations that are not part of desired.
func EnsureAnnotations(obj ctrlruntimeclient.Object, desired map[string]string) {
	if len(desired) == 0 {
		return
	}
	annotations := obj.GetAnnotations()
	if annotations == nil {
		annotations = make(map[string]string, len(desired))
	}
	for k, v := range desired {
		annotations[k] = v
	}
	obj.SetAnnotations(annotations)
}
