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
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

var versionPattern = regexp.MustCompile(`^v[0-9]+((alpha|beta)[0-9]+)?$`)

// ResourcePath identifies a collection or a single object on a cluster,
// written as "{group}/{version}/{plural}" with optional
// "namespaces/{namespace}/" before the plural and "/{name}" after it. The
// core group is written as "{version}/{plural}".
type ResourcePath struct {
	Group     string
	Version   string
	Plural    string
	Namespace string
	Name      string
}

// CollectionPath returns the path of a cluster-wide collection.
func CollectionPath(group, version, plural string) string {
	return ResourcePath{Group: group, Version: version, Plural: plural}.String()
}

// ObjectPath returns the path of a single cluster-scoped object.
func ObjectPath(group, version, plural, name string) string {
	return ResourcePath{Group: group, Version: version, Plural: plural, Name: name}.String()
}

func (p ResourcePath) GroupVersionResource() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: p.Group, Version: p.Version, Resource: p.Plural}
}

// Collection strips the namespace and name, returning the cluster-wide
// collection the path belongs to.
func (p ResourcePath) Collection() ResourcePath {
	return ResourcePath{Group: p.Group, Version: p.Version, Plural: p.Plural}
}

func (p ResourcePath) String() string {
	parts := make([]string, 0, 6)
	if p.Group != "" {
		parts = append(parts, p.Group)
	}
	parts = append(parts, p.Version)
	if p.Namespace != "" {
		parts = append(parts, "namespaces", p.Namespace)
	}
	parts = append(parts, p.Plural)
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	return strings.Join(parts, "/")
}

// ParseResourcePath parses the path format described on ResourcePath.
func ParseResourcePath(path string) (ResourcePath, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for _, s := range segments {
		if s == "" {
			return ResourcePath{}, fmt.Errorf("invalid resource path %q: empty segment", path)
		}
	}

	var p ResourcePath
	rest := segments
	switch {
	case len(segments) >= 3 && versionPattern.MatchString(segments[1]) && !versionPattern.MatchString(segments[0]):
		p.Group, p.Version, rest = segments[0], segments[1], segments[2:]
	case len(segments) >= 2 && versionPattern.MatchString(segments[0]):
		p.Version, rest = segments[0], segments[1:]
	default:
		return ResourcePath{}, fmt.Errorf("invalid resource path %q: missing version", path)
	}

	if len(rest) >= 3 && rest[0] == "namespaces" {
		p.Namespace, rest = rest[1], rest[2:]
	}

	switch len(rest) {
	case 1:
		p.Plural = rest[0]
	case 2:
		p.Plural, p.Name = rest[0], rest[1]
	default:
		return ResourcePath{}, fmt.Errorf("invalid resource path %q", path)
	}

	return p, nil
}

// SplitAPIVersion splits "group/version" into its parts. The core group
// "v1" yields an empty group.
func SplitAPIVersion(apiVersion string) (group, version string) {
	if i := strings.LastIndex(apiVersion, "/"); i >= 0 {
		return apiVersion[:i], apiVersion[i+1:]
	}
	return "", apiVersion
}
