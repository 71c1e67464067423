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

/*
Package schema contains the schema data providers.

Each provider scans one class of schema-defining object on every target
cluster, CustomResourceDefinitions, Crossplane CompositeResourceDefinitions
or KRO ResourceGraphDefinitions, and normalizes it into a Descriptor. The
descriptors drive template and API generation and, reduced to a Lookup,
join instance objects back to the schema that defines them.

A failing cluster is logged and contributes nothing. Only a failure to
determine the cluster set itself is returned to the caller.
*/
package schema
