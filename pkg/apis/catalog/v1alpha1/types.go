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

package v1alpha1

const (
	// EntityAPIVersion is the apiVersion of System, Component, Resource and API records.
	EntityAPIVersion = "backstage.io/v1alpha1"

	// TemplateAPIVersion is the apiVersion of scaffolding Template records.
	TemplateAPIVersion = "scaffolder.backstage.io/v1beta3"

	// DefaultNamespace is the catalog namespace used when none is computed.
	DefaultNamespace = "default"

	// MaxNameLength is the maximum length of metadata.name of any record.
	MaxNameLength = 63
)

const (
	// DefaultAnnotationPrefix is the prefix of all annotations read from
	// source objects and written to generated records.
	DefaultAnnotationPrefix = "terasky.backstage.io"

	// DefaultOwner is the owner of records for which no other owner is known.
	DefaultOwner = "kubernetes-auto-ingested"
)

// Annotation suffixes read from source objects. The full key is
// "<prefix>/<suffix>", see AnnotationKey.
const (
	AnnotationOwner                = "owner"
	AnnotationName                 = "name"
	AnnotationTitle                = "title"
	AnnotationDescription          = "description"
	AnnotationComponentType        = "component-type"
	AnnotationSystem               = "system"
	AnnotationSystemType           = "system-type"
	AnnotationDomain               = "domain"
	AnnotationDependsOn            = "dependsOn"
	AnnotationProvidesAPIs         = "providesApis"
	AnnotationConsumesAPIs         = "consumesApis"
	AnnotationSubcomponentOf       = "subcomponent-of"
	AnnotationComponentAnnotations = "component-annotations"
	AnnotationLabelSelector        = "kubernetes-label-selector"
	AnnotationExcludeFromCatalog   = "exclude-from-catalog"
	AnnotationAddToCatalog         = "add-to-catalog"
	AnnotationSourceCodeRepoURL    = "source-code-repo-url"
	AnnotationSourceBranch         = "source-branch"
	AnnotationTechdocsPath         = "techdocs-path"
	AnnotationLinks                = "links"
)

// Annotation suffixes written to generated records.
const (
	AnnotationResourceKind       = "kubernetes-resource-kind"
	AnnotationResourceName       = "kubernetes-resource-name"
	AnnotationResourceAPIVersion = "kubernetes-resource-api-version"
	AnnotationResourceNamespace  = "kubernetes-resource-namespace"
	AnnotationClusterName        = "cluster-name"

	AnnotationCrossplaneResource   = "crossplane-resource"
	AnnotationClaimKind            = "claim-kind"
	AnnotationClaimName            = "claim-name"
	AnnotationClaimGroup           = "claim-group"
	AnnotationClaimVersion         = "claim-version"
	AnnotationClaimPlural          = "claim-plural"
	AnnotationCompositeKind        = "composite-kind"
	AnnotationCompositeName        = "composite-name"
	AnnotationCompositeGroup       = "composite-group"
	AnnotationCompositeVersion     = "composite-version"
	AnnotationCompositePlural      = "composite-plural"
	AnnotationCompositeScope       = "composite-scope"
	AnnotationCompositionName      = "composition-name"
	AnnotationCompositionFunctions = "composition-functions"

	AnnotationKROResource    = "kro-resource"
	AnnotationKRORGDName     = "kro-rgd-name"
	AnnotationKRORGDID       = "kro-rgd-id"
	AnnotationKROInstanceUID = "kro-instance-uid"
	AnnotationKROPlural      = "kro-instance-plural"

	AnnotationSourceKind = "source-kind"
	AnnotationAPIGroup   = "api-group"
	AnnotationAPIVersion = "api-version"
	AnnotationAPIPlural  = "api-plural"
	AnnotationAPIScope   = "api-scope"
)

// Well known annotations understood by catalog consumers.
const (
	AnnotationManagedByLocation       = "backstage.io/managed-by-location"
	AnnotationManagedByOriginLocation = "backstage.io/managed-by-origin-location"
	AnnotationKubernetesLabelSelector = "backstage.io/kubernetes-label-selector"
	AnnotationKubernetesNamespace     = "backstage.io/kubernetes-namespace"
	AnnotationKubernetesID            = "backstage.io/kubernetes-id"
	AnnotationSourceLocation          = "backstage.io/source-location"
	AnnotationTechdocsRef             = "backstage.io/techdocs-ref"
)

// Component types assigned to non-workload categories.
const (
	ComponentTypeService         = "service"
	ComponentTypeCrossplaneClaim = "crossplane-claim"
	ComponentTypeCrossplaneXR    = "crossplane-xr"
	ComponentTypeKROInstance     = "kro-instance"

	SystemTypeDefault = "kubernetes-namespace"
	LifecycleDefault  = "production"
	APITypeOpenAPI    = "openapi"
)

// AnnotationKey joins the configured prefix and an annotation suffix.
func AnnotationKey(prefix, suffix string) string {
	return prefix + "/" + suffix
}

// Labels and annotations set on the objects catalog sinks write to.
const (
	LabelManagedBy         = "app.kubernetes.io/managed-by"
	LabelManagedByIngestor = "catalog-ingestor"
	LabelProvider          = "catalog-ingestor.k8c.io/provider"

	AnnotationLocationKey = "catalog-ingestor.k8c.io/location-key"
)
