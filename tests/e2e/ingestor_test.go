//go:build e2e

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

package e2e_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8c.io/catalog-ingestor/internal/controllers/entityprovider"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	"sigs.k8s.io/e2e-framework/pkg/envconf"
	"sigs.k8s.io/e2e-framework/pkg/features"
)

const prefix = catalogv1alpha1.DefaultAnnotationPrefix + "/"

func findEntity(entities []catalogv1alpha1.Entity, ref string) (catalogv1alpha1.Entity, bool) {
	for _, e := range entities {
		if e.Ref() == ref {
			return e, true
		}
	}
	return catalogv1alpha1.Entity{}, false
}

func TestIngestDeployment(t *testing.T) {
	var s suite
	const namespace = "catalog-e2e-team-a"

	f := features.New("IngestDeployment")

	f.Setup(func(ctx context.Context, t *testing.T, cfg *envconf.Config) context.Context {
		require.NoError(t, s.withClient(cfg.Client()))
		require.NoError(t, s.createNamespace(ctx, namespace, map[string]string{prefix + "owner": "group:team-a"}))
		require.NoError(t, s.createDeployment(ctx, namespace, "web", map[string]string{prefix + "add-to-catalog": "true"}))
		require.NoError(t, s.createDeployment(ctx, namespace, "hidden", map[string]string{
			prefix + "add-to-catalog":       "true",
			prefix + "exclude-from-catalog": "true",
		}))
		require.NoError(t, s.createDeployment(ctx, namespace, "unannotated", nil))
		return ctx
	}).Assess("Annotated deployments are published with their system",
		func(ctx context.Context, t *testing.T, cfg *envconf.Config) context.Context {
			require.NoError(t, s.runIngestor(ctx, ingestorConfig(), namespace))

			entities, err := s.publishedEntities(ctx, namespace, entityprovider.KubernetesEntityProvider)
			require.NoError(t, err)

			web, ok := findEntity(entities, "Component:default/web")
			require.True(t, ok, "component web not published")
			assert.Equal(t, "service", web.Spec.Type)
			assert.Equal(t, "group:team-a", web.Spec.Owner)
			assert.Equal(t, "default/"+namespace, web.Spec.System)
			assert.Equal(t, "app=web", web.Metadata.Annotations[catalogv1alpha1.AnnotationKubernetesLabelSelector])

			_, ok = findEntity(entities, "System:default/"+namespace)
			assert.True(t, ok, "system not published")

			_, ok = findEntity(entities, "Component:default/hidden")
			assert.False(t, ok, "excluded deployment was published")
			_, ok = findEntity(entities, "Component:default/unannotated")
			assert.False(t, ok, "unannotated deployment was published")

			return ctx
		},
	).Assess("Deleted deployments are removed on the next run",
		func(ctx context.Context, t *testing.T, cfg *envconf.Config) context.Context {
			require.NoError(t, s.deleteDeployment(ctx, namespace, "web"))

			err := waitFor(ctx, func(ctx context.Context) (bool, error) {
				if err := s.runIngestor(ctx, ingestorConfig(), namespace); err != nil {
					return false, err
				}
				entities, err := s.publishedEntities(ctx, namespace, entityprovider.KubernetesEntityProvider)
				if err != nil {
					return false, err
				}
				_, found := findEntity(entities, "Component:default/web")
				return !found, nil
			})
			require.NoError(t, err, "component web should be removed")

			return ctx
		},
	).Teardown(func(ctx context.Context, t *testing.T, cfg *envconf.Config) context.Context {
		require.NoError(t, s.cleanup(ctx))
		return ctx
	})

	testEnv.Test(t, f.Feature())
}

func TestGenericCRDTemplates(t *testing.T) {
	var s suite
	const namespace = "catalog-e2e-templates"

	f := features.New("GenericCRDTemplates")

	f.Setup(func(ctx context.Context, t *testing.T, cfg *envconf.Config) context.Context {
		require.NoError(t, s.withClient(cfg.Client()))
		require.NoError(t, s.createNamespace(ctx, namespace, nil))
		require.NoError(t, s.createCRD(ctx, "e2e.example.org", "Widget", "widgets"))
		return ctx
	}).Assess("A template and an API are generated for a selected CRD",
		func(ctx context.Context, t *testing.T, cfg *envconf.Config) context.Context {
			c := ingestorConfig()
			c.Components.Enabled = false
			c.GenericCRDTemplates.CRDs = []string{"widgets.e2e.example.org"}

			err := waitFor(ctx, func(ctx context.Context) (bool, error) {
				if err := s.runIngestor(ctx, c, namespace); err != nil {
					return false, err
				}
				entities, err := s.publishedEntities(ctx, namespace, entityprovider.CRDTemplateEntityProvider)
				if err != nil {
					return false, err
				}
				return len(entities) == 2, nil
			})
			require.NoError(t, err, "records of the CRD should be published")

			entities, err := s.publishedEntities(ctx, namespace, entityprovider.CRDTemplateEntityProvider)
			require.NoError(t, err)

			api, ok := findEntity(entities, "API:default/widget-e2e.example.org--v1")
			require.True(t, ok, "API not published")
			assert.Contains(t, api.Spec.Definition, "/apis/e2e.example.org/v1/namespaces/{namespace}/widgets")

			tmpl, ok := findEntity(entities, "Template:default/widgets.e2e.example.org-v1")
			require.True(t, ok, "template not published")
			assert.Equal(t, catalogv1alpha1.TemplateAPIVersion, tmpl.APIVersion)

			return ctx
		},
	).Teardown(func(ctx context.Context, t *testing.T, cfg *envconf.Config) context.Context {
		require.NoError(t, s.cleanup(ctx))
		return ctx
	})

	testEnv.Test(t, f.Feature())
}
