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
	"strings"

	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/ingest"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"
)

// Naming computes record names from an object and the naming models.
// Explicit name, title and system annotations win over computed values.
type Naming struct {
	mappings config.Mappings
	prefix   string
}

func NewNaming(cfg *config.Config) Naming {
	return Naming{mappings: cfg.Mappings, prefix: cfg.AnnotationPrefix}
}

func (n Naming) annotation(obj *ingest.Object, suffix string) string {
	return obj.Annotation(catalogv1alpha1.AnnotationKey(n.prefix, suffix))
}

func sourceNamespace(obj *ingest.Object) string {
	if ns := obj.GetNamespace(); ns != "" {
		return ns
	}
	return catalogv1alpha1.DefaultNamespace
}

// Namespace returns the catalog namespace of the object's records.
func (n Naming) Namespace(obj *ingest.Object) string {
	switch n.mappings.NamespaceModel {
	case config.NamespaceModelCluster:
		return obj.ClusterName
	case config.NamespaceModelNamespace:
		return sourceNamespace(obj)
	default:
		return catalogv1alpha1.DefaultNamespace
	}
}

// System returns the name of the System the object belongs to.
func (n Naming) System(obj *ingest.Object) string {
	if s := n.annotation(obj, catalogv1alpha1.AnnotationSystem); s != "" {
		return s
	}

	switch n.mappings.SystemModel {
	case config.SystemModelCluster:
		return obj.ClusterName
	case config.SystemModelClusterNamespace:
		return obj.ClusterName + "-" + sourceNamespace(obj)
	case config.SystemModelDefault:
		return catalogv1alpha1.DefaultNamespace
	default:
		return sourceNamespace(obj)
	}
}

// Name returns the record name of the object.
func (n Naming) Name(obj *ingest.Object) string {
	if name := n.annotation(obj, catalogv1alpha1.AnnotationName); name != "" {
		return name
	}

	name := obj.GetName()
	switch n.mappings.NameModel {
	case config.NameModelNameKind:
		return name + "-" + strings.ToLower(obj.GetKind())
	case config.NameModelNameCluster:
		return name + "-" + obj.ClusterName
	case config.NameModelNameNamespace:
		return name + "-" + sourceNamespace(obj)
	default:
		return name
	}
}

// Title returns the display title of the object's record.
func (n Naming) Title(obj *ingest.Object) string {
	if title := n.annotation(obj, catalogv1alpha1.AnnotationTitle); title != "" {
		return title
	}

	name := obj.GetName()
	switch n.mappings.TitleModel {
	case config.TitleModelNameCluster:
		return name + "-" + obj.ClusterName
	case config.TitleModelNameNamespace:
		return name + "-" + sourceNamespace(obj)
	default:
		return name
	}
}

// ReferenceNamespace returns the namespace prefixed to unqualified entity
// references of a record living in recordNamespace.
func (n Naming) ReferenceNamespace(recordNamespace string) string {
	if n.mappings.ReferencesNamespaceModel == config.ReferencesNamespaceModelSame {
		return recordNamespace
	}
	return catalogv1alpha1.DefaultNamespace
}
