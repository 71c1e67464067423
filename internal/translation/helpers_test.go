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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/ingest"
	"k8c.io/catalog-ingestor/internal/pkg/kubernetes/fake"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		value    string
		expected []string
	}{
		{value: "", expected: []string{}},
		{value: " , ,\n", expected: []string{}},
		{value: "a", expected: []string{"a"}},
		{value: "a, b ,c", expected: []string{"a", "b", "c"}},
		{value: "a\nb\r\nc", expected: []string{"a", "b", "c"}},
		{value: "component:default/db,\n  resource:default/queue,", expected: []string{"component:default/db", "resource:default/queue"}},
	}

	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			got := SplitList(tc.value)
			if got == nil {
				t.Fatalf("expected a non-nil list")
			}
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseKeyValues(t *testing.T) {
	got := ParseKeyValues("a=1, b = two ,invalid,=empty-key\nc=x=y")
	assert.Equal(t, map[string]string{"a": "1", "b": "two", "c": "x=y"}, got)
	assert.Empty(t, ParseKeyValues(""))
}

func TestParseLinks(t *testing.T) {
	links, err := ParseLinks(`[{"url":"https://a.example.com","title":"A","icon":"docs"},{"title":"dropped"}]`)
	require.NoError(t, err)
	assert.Equal(t, []catalogv1alpha1.Link{{URL: "https://a.example.com", Title: "A", Icon: "docs"}}, links)

	links, err = ParseLinks("  ")
	require.NoError(t, err)
	assert.Empty(t, links)

	_, err = ParseLinks("not json")
	assert.Error(t, err)
}

func TestDeriveLabelSelector(t *testing.T) {
	tests := []struct {
		name     string
		obj      map[string]any
		expected string
	}{
		{
			name:     "shared labels",
			obj:      fake.Deployment("ns", "web", map[string]string{"app": "web", "team": "a"}, map[string]string{"app": "web", "pod": "x"}, nil),
			expected: "app=web",
		},
		{
			name:     "no shared labels falls back to all labels",
			obj:      fake.Deployment("ns", "web", map[string]string{"team": "a", "app": "web"}, map[string]string{"pod": "x"}, nil),
			expected: "app=web,team=a",
		},
		{
			name:     "differing values are not shared",
			obj:      fake.Deployment("ns", "web", map[string]string{"app": "web"}, map[string]string{"app": "web-pod"}, nil),
			expected: "app=web",
		},
		{
			name: "cron job template",
			obj: fake.WithSpec(fake.Object("batch/v1", "CronJob", "ns", "nightly", map[string]string{"app": "nightly", "team": "a"}, nil), map[string]any{
				"jobTemplate": map[string]any{"spec": map[string]any{"template": map[string]any{
					"metadata": map[string]any{"labels": map[string]any{"app": "nightly"}},
				}}},
			}),
			expected: "app=nightly",
		},
		{
			name:     "no labels",
			obj:      fake.Object("v1", "Service", "ns", "svc", nil, nil),
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			obj := object("prod", ingest.CategoryWorkload, tc.obj)
			if got := DeriveLabelSelector(&obj); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestSourceLocation(t *testing.T) {
	tests := []struct {
		name     string
		repoURL  string
		branch   string
		expected string
	}{
		{
			name:     "empty",
			expected: "",
		},
		{
			name:     "github with default branch",
			repoURL:  "https://github.com/acme/shop",
			expected: "url:https://github.com/acme/shop/tree/main/",
		},
		{
			name:     "github with git suffix",
			repoURL:  "https://github.com/acme/shop.git",
			branch:   "develop",
			expected: "url:https://github.com/acme/shop/tree/develop/",
		},
		{
			name:     "gitlab",
			repoURL:  "https://gitlab.com/acme/shop",
			branch:   "release",
			expected: "url:https://gitlab.com/acme/shop/-/tree/release/",
		},
		{
			name:     "unknown host uses the github layout",
			repoURL:  "https://git.example.com/acme/shop/",
			expected: "url:https://git.example.com/acme/shop/tree/main/",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SourceLocation(tc.repoURL, tc.branch); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestTechdocsRef(t *testing.T) {
	assert.Equal(t, "url:https://github.com/acme/shop/tree/main/docs", TechdocsRef("https://github.com/acme/shop", "", "/docs/"))
	assert.Equal(t, "url:https://github.com/acme/shop/tree/main/", TechdocsRef("https://github.com/acme/shop", "", "."))
	assert.Empty(t, TechdocsRef("", "", "docs"))
}

func TestNaming(t *testing.T) {
	namespaced := object("prod", ingest.CategoryWorkload, fake.Object("apps/v1", "Deployment", "team-a", "web", nil, nil))
	clusterScoped := object("prod", ingest.CategoryWorkload, fake.Object("example.com/v1", "Bucket", "", "logs", nil, nil))

	tests := []struct {
		name      string
		mappings  config.Mappings
		obj       ingest.Object
		namespace string
		system    string
		entity    string
		title     string
	}{
		{
			name:      "defaults",
			mappings:  config.Default().Mappings,
			obj:       namespaced,
			namespace: "default",
			system:    "team-a",
			entity:    "web",
			title:     "web",
		},
		{
			name: "cluster models",
			mappings: config.Mappings{
				NamespaceModel: config.NamespaceModelCluster,
				SystemModel:    config.SystemModelCluster,
				NameModel:      config.NameModelNameCluster,
				TitleModel:     config.TitleModelNameCluster,
			},
			obj:       namespaced,
			namespace: "prod",
			system:    "prod",
			entity:    "web-prod",
			title:     "web-prod",
		},
		{
			name: "namespace models",
			mappings: config.Mappings{
				NamespaceModel: config.NamespaceModelNamespace,
				SystemModel:    config.SystemModelClusterNamespace,
				NameModel:      config.NameModelNameNamespace,
				TitleModel:     config.TitleModelNameNamespace,
			},
			obj:       namespaced,
			namespace: "team-a",
			system:    "prod-team-a",
			entity:    "web-team-a",
			title:     "web-team-a",
		},
		{
			name: "name-kind",
			mappings: config.Mappings{
				SystemModel: config.SystemModelDefault,
				NameModel:   config.NameModelNameKind,
			},
			obj:       namespaced,
			namespace: "default",
			system:    "default",
			entity:    "web-deployment",
			title:     "web",
		},
		{
			name: "cluster scoped object",
			mappings: config.Mappings{
				NamespaceModel: config.NamespaceModelNamespace,
				SystemModel:    config.SystemModelNamespace,
				NameModel:      config.NameModelNameNamespace,
			},
			obj:       clusterScoped,
			namespace: "default",
			system:    "default",
			entity:    "logs-default",
			title:     "logs",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Mappings = tc.mappings
			n := NewNaming(cfg)

			assert.Equal(t, tc.namespace, n.Namespace(&tc.obj))
			assert.Equal(t, tc.system, n.System(&tc.obj))
			assert.Equal(t, tc.entity, n.Name(&tc.obj))
			assert.Equal(t, tc.title, n.Title(&tc.obj))
		})
	}
}

func TestReferenceNamespace(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "default", NewNaming(cfg).ReferenceNamespace("team-a"))

	cfg.Mappings.ReferencesNamespaceModel = config.ReferencesNamespaceModelSame
	assert.Equal(t, "team-a", NewNaming(cfg).ReferenceNamespace("team-a"))
}

func entity(kind catalogv1alpha1.EntityKind, namespace, name, system string) catalogv1alpha1.Entity {
	return catalogv1alpha1.Entity{
		APIVersion: catalogv1alpha1.EntityAPIVersion,
		Kind:       kind,
		Metadata:   catalogv1alpha1.EntityMetadata{Name: name, Namespace: namespace},
		Spec:       catalogv1alpha1.EntitySpec{System: system},
	}
}

func TestFinalize(t *testing.T) {
	first := entity(catalogv1alpha1.KindComponent, "default", "web", "default/team-a")
	first.Spec.Type = "first"
	duplicate := entity(catalogv1alpha1.KindComponent, "", "web", "default/team-a")
	duplicate.Spec.Type = "second"

	got := Finalize(zap.NewNop().Sugar(), "test", []catalogv1alpha1.Entity{
		entity(catalogv1alpha1.KindSystem, "default", "team-a", ""),
		first,
		duplicate,
		entity(catalogv1alpha1.KindResource, "default", "orphan", "default/missing"),
		entity(catalogv1alpha1.KindResource, "default", "qualified", "system:default/team-a"),
		entity(catalogv1alpha1.KindComponent, "default", "unqualified", "team-a"),
		entity(catalogv1alpha1.KindAPI, "default", "api", ""),
	})

	assert.Equal(t, []string{
		"API:default/api",
		"Component:default/unqualified",
		"Component:default/web",
		"Resource:default/qualified",
		"System:default/team-a",
	}, refs(got))
	assert.Equal(t, "first", find(t, got, "Component:default/web").Spec.Type)
}
