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

package template

import (
	"fmt"
	"net/http"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"k8s.io/kube-openapi/pkg/spec3"
	"k8s.io/kube-openapi/pkg/validation/spec"
	"sigs.k8s.io/yaml"
)

const (
	openAPIVersion  = "3.0.0"
	contentTypeJSON = "application/json"
)

// toSpecSchema converts a CRD schema into a kube-openapi schema.
func toSpecSchema(props *apiextensionsv1.JSONSchemaProps) (*spec.Schema, error) {
	if props == nil {
		return &spec.Schema{SchemaProps: spec.SchemaProps{Type: spec.StringOrArray{"object"}}}, nil
	}

	raw, err := utiljson.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	s := &spec.Schema{}
	if err := utiljson.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	return s, nil
}

func jsonContent(s *spec.Schema) map[string]*spec3.MediaType {
	return map[string]*spec3.MediaType{
		contentTypeJSON: {MediaTypeProps: spec3.MediaTypeProps{Schema: s}},
	}
}

func pathParameter(name string) *spec3.Parameter {
	return &spec3.Parameter{ParameterProps: spec3.ParameterProps{
		Name:     name,
		In:       "path",
		Required: true,
		Schema:   spec.StringProperty(),
	}}
}

func operation(id, summary string, status int, response *spec.Schema, params []*spec3.Parameter, body *spec.Schema) *spec3.Operation {
	op := &spec3.Operation{OperationProps: spec3.OperationProps{
		OperationId: id,
		Summary:     summary,
		Parameters:  params,
		Responses: &spec3.Responses{ResponsesProps: spec3.ResponsesProps{
			StatusCodeResponses: map[int]*spec3.Response{
				status: {ResponseProps: spec3.ResponseProps{
					Description: http.StatusText(status),
					Content:     jsonContent(response),
				}},
			},
		}},
	}}
	if body != nil {
		op.RequestBody = &spec3.RequestBody{RequestBodyProps: spec3.RequestBodyProps{
			Required: true,
			Content:  jsonContent(body),
		}}
	}
	return op
}

// apiPaths returns the list, create, get, replace and delete operations
// of the target resource.
func apiPaths(t target) map[string]*spec3.Path {
	item := spec.RefSchema("#/components/schemas/" + t.Kind)
	list := spec.RefSchema("#/components/schemas/" + t.Kind + "List")
	name := pathParameter("name")

	base := "/apis/" + t.APIVersion()
	paths := map[string]*spec3.Path{}

	var collection string
	var params []*spec3.Parameter
	if t.Namespaced {
		paths[base+"/"+t.Plural] = &spec3.Path{PathProps: spec3.PathProps{
			Get: operation("list"+t.Kind+"ForAllNamespaces", "List "+t.Kind+" objects in all namespaces", http.StatusOK, list, nil, nil),
		}}
		collection = base + "/namespaces/{namespace}/" + t.Plural
		params = []*spec3.Parameter{pathParameter("namespace")}
	} else {
		collection = base + "/" + t.Plural
	}

	paths[collection] = &spec3.Path{PathProps: spec3.PathProps{
		Get:  operation("list"+t.Kind, "List "+t.Kind+" objects", http.StatusOK, list, params, nil),
		Post: operation("create"+t.Kind, "Create a "+t.Kind, http.StatusCreated, item, params, item),
	}}

	itemParams := append(append([]*spec3.Parameter{}, params...), name)
	paths[collection+"/{name}"] = &spec3.Path{PathProps: spec3.PathProps{
		Get:    operation("read"+t.Kind, "Read a "+t.Kind, http.StatusOK, item, itemParams, nil),
		Put:    operation("replace"+t.Kind, "Replace a "+t.Kind, http.StatusOK, item, itemParams, item),
		Delete: operation("delete"+t.Kind, "Delete a "+t.Kind, http.StatusOK, item, itemParams, nil),
	}}

	return paths
}

// openAPIDocument describes the target resource of a descriptor version
// as served by every cluster below serverURL.
func openAPIDocument(t target, clusters []string, serverURL string) (*spec3.OpenAPI, error) {
	item, err := toSpecSchema(t.Schema)
	if err != nil {
		return nil, err
	}

	list := &spec.Schema{SchemaProps: spec.SchemaProps{
		Type: spec.StringOrArray{"object"},
		Properties: map[string]spec.Schema{
			"apiVersion": *spec.StringProperty(),
			"kind":       *spec.StringProperty(),
			"items":      *spec.ArrayProperty(spec.RefSchema("#/components/schemas/" + t.Kind)),
		},
	}}

	servers := make([]*spec3.Server, 0, len(clusters))
	for _, c := range clusters {
		servers = append(servers, &spec3.Server{ServerProps: spec3.ServerProps{
			URL:         serverURL + "/" + c,
			Description: c,
		}})
	}

	return &spec3.OpenAPI{
		Version: openAPIVersion,
		Info: &spec.Info{InfoProps: spec.InfoProps{
			Title:       t.Kind + " API",
			Description: "API of " + t.Kind + " resources in " + t.APIVersion(),
			Version:     t.Version,
		}},
		Servers: servers,
		Paths:   &spec3.Paths{Paths: apiPaths(t)},
		Components: &spec3.Components{Schemas: map[string]*spec.Schema{
			t.Kind:          item,
			t.Kind + "List": list,
		}},
	}, nil
}

// apiDefinition renders the OpenAPI document as YAML.
func apiDefinition(t target, clusters []string, serverURL string) (string, error) {
	doc, err := openAPIDocument(t, clusters, serverURL)
	if err != nil {
		return "", err
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode OpenAPI document: %w", err)
	}
	return string(raw), nil
}
