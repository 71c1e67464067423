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

// Package entityprovider runs the entity providers of the ingestor.
//
// Every provider is a timer-driven runnable on the controller-runtime
// manager. A run computes the complete record set of the provider and
// hands it to the catalog connection as a single full mutation:
//
//   - KubernetesEntityProvider translates workloads, claims, composites and
//     KRO instances into Systems, Components and Resources.
//   - XRDTemplateEntityProvider, RGDTemplateEntityProvider and
//     CRDTemplateEntityProvider generate Templates and APIs from schema
//     objects.
//
// A run that fails or exceeds its timeout publishes nothing, so the
// previously published records stay in place.
package entityprovider
