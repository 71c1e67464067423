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
	"errors"
	"strings"
	"time"

	"k8c.io/catalog-ingestor/internal/catalog"
	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/controllers/entityprovider"
	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/e2e-framework/klient"
	"sigs.k8s.io/e2e-framework/klient/wait"
)

const (
	// clusterName is the name the cluster under test is ingested as.
	clusterName = "e2e"

	// testNamespaceLabel marks namespaces created by the suite.
	testNamespaceLabel = "catalog-ingestor.k8c.io/e2e"

	catalogNamePrefix = "e2e"
)

var errClientNotInitialized = errors.New("client is not initialized")

type suite struct {
	client     client.Client
	restConfig *rest.Config
}

func (s *suite) withClient(kl klient.Client) error {
	scheme := runtime.NewScheme()
	schemeBuilder := runtime.SchemeBuilder{
		clientgoscheme.AddToScheme,
		apiextensionsv1.AddToScheme,
	}
	if err := schemeBuilder.AddToScheme(scheme); err != nil {
		return err
	}

	cl, err := client.New(kl.RESTConfig(), client.Options{Scheme: scheme})
	if err != nil {
		return err
	}

	s.client = cl
	s.restConfig = kl.RESTConfig()
	return nil
}

func (s *suite) createNamespace(ctx context.Context, name string, annotations map[string]string) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Labels:      map[string]string{testNamespaceLabel: "true"},
			Annotations: annotations,
		},
	}
	return waitFor(ctx, func(ctx context.Context) (bool, error) {
		if err := s.client.Create(ctx, ns); err != nil && !apierrors.IsAlreadyExists(err) {
			return false, nil
		}
		return true, nil
	})
}

func (s *suite) createDeployment(ctx context.Context, namespace, name string, annotations map[string]string) error {
	labels := map[string]string{"app": name}
	replicas := int32(0)

	deployment := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Namespace:   namespace,
			Labels:      labels,
			Annotations: annotations,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: "pause", Image: "registry.k8s.io/pause:3.10"}},
				},
			},
		},
	}
	return s.client.Create(ctx, deployment)
}

func (s *suite) deleteDeployment(ctx context.Context, namespace, name string) error {
	deployment := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace}}
	return client.IgnoreNotFound(s.client.Delete(ctx, deployment))
}

func (s *suite) createCRD(ctx context.Context, group, kind, plural string) error {
	crd := &apiextensionsv1.CustomResourceDefinition{
		ObjectMeta: metav1.ObjectMeta{
			Name:   plural + "." + group,
			Labels: map[string]string{testNamespaceLabel: "true"},
		},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: group,
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Kind:     kind,
				ListKind: kind + "List",
				Plural:   plural,
				Singular: strings.ToLower(kind),
			},
			Scope: apiextensionsv1.NamespaceScoped,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{{
				Name:    "v1",
				Served:  true,
				Storage: true,
				Schema: &apiextensionsv1.CustomResourceValidation{
					OpenAPIV3Schema: &apiextensionsv1.JSONSchemaProps{
						Type: "object",
						Properties: map[string]apiextensionsv1.JSONSchemaProps{
							"spec": {
								Type: "object",
								Properties: map[string]apiextensionsv1.JSONSchemaProps{
									"size": {Type: "string"},
								},
							},
						},
					},
				},
			}},
		},
	}
	return waitFor(ctx, func(ctx context.Context) (bool, error) {
		if err := s.client.Create(ctx, crd); err != nil && !apierrors.IsAlreadyExists(err) {
			return false, nil
		}
		return true, nil
	})
}

// ingestorConfig ingests only annotated workloads so that objects already
// present on the cluster do not interfere.
func ingestorConfig() *config.Config {
	cfg := config.Default()
	cfg.Clusters = []string{clusterName}
	cfg.InheritOwnerFromNamespace = true
	cfg.Components.OnlyIngestAnnotatedResources = true
	cfg.Crossplane.Enabled = false
	cfg.Catalog.Sink = config.SinkConfigMap
	return cfg
}

// runIngestor runs every enabled entity provider once, publishing into
// ConfigMaps in namespace.
func (s *suite) runIngestor(ctx context.Context, cfg *config.Config, namespace string) error {
	if s.client == nil {
		return errClientNotInitialized
	}

	log := ingestorLog()
	runners, err := entityprovider.NewRunners(&entityprovider.ControllerConfig{
		Log:     log,
		Config:  cfg,
		Fetcher: kubernetes.NewClusterFetcherFromConfigs(map[string]*rest.Config{clusterName: s.restConfig}),
		NewConnection: func(provider string) (catalog.Connection, error) {
			return catalog.NewConfigMapConnection(log, s.client, namespace, catalogNamePrefix, provider)
		},
	})
	if err != nil {
		return err
	}

	for _, r := range runners {
		if err := r.RunOnce(ctx); err != nil {
			return err
		}
	}
	return nil
}

// publishedEntities returns the records a provider published into
// namespace.
func (s *suite) publishedEntities(ctx context.Context, namespace, provider string) ([]catalogv1alpha1.Entity, error) {
	list := &corev1.ConfigMapList{}
	if err := s.client.List(ctx, list,
		client.InNamespace(namespace),
		client.MatchingLabels{catalogv1alpha1.LabelManagedBy: catalogv1alpha1.LabelManagedByIngestor},
	); err != nil {
		return nil, err
	}

	var out []catalogv1alpha1.Entity
	for _, cm := range list.Items {
		if cm.Annotations[catalogv1alpha1.AnnotationLocationKey] != "provider:"+provider {
			continue
		}
		entities, err := catalog.DecodeEntities([]byte(cm.Data[catalog.DataKey]))
		if err != nil {
			return nil, err
		}
		out = append(out, entities...)
	}
	return out, nil
}

func (s *suite) cleanupTestNamespaces(ctx context.Context) error {
	if s.client == nil {
		return errClientNotInitialized
	}

	return waitFor(ctx, func(ctx context.Context) (bool, error) {
		namespaces := corev1.NamespaceList{}
		if err := s.client.List(ctx, &namespaces, client.HasLabels{testNamespaceLabel}); err != nil {
			return false, err
		}

		for _, ns := range namespaces.Items {
			if err := s.client.Delete(ctx, &ns); err != nil && !apierrors.IsNotFound(err) {
				return false, nil
			}
		}

		if err := s.client.List(ctx, &namespaces, client.HasLabels{testNamespaceLabel}); err != nil {
			return false, err
		}

		return len(namespaces.Items) == 0, nil
	})
}

func (s *suite) cleanupTestCRDs(ctx context.Context) error {
	if s.client == nil {
		return errClientNotInitialized
	}

	return waitFor(ctx, func(ctx context.Context) (bool, error) {
		crds := apiextensionsv1.CustomResourceDefinitionList{}
		if err := s.client.List(ctx, &crds, client.HasLabels{testNamespaceLabel}); err != nil {
			return false, err
		}

		for _, crd := range crds.Items {
			if err := s.client.Delete(ctx, &crd); err != nil && !apierrors.IsNotFound(err) {
				return false, nil
			}
		}

		if err := s.client.List(ctx, &crds, client.HasLabels{testNamespaceLabel}); err != nil {
			return false, err
		}

		return len(crds.Items) == 0, nil
	})
}

func (s *suite) cleanup(ctx context.Context) error {
	namespaceErr := s.cleanupTestNamespaces(ctx)
	crdErr := s.cleanupTestCRDs(ctx)

	if namespaceErr != nil {
		return namespaceErr
	}
	return crdErr
}

const (
	timeout  = time.Minute * 2
	interval = time.Second * 1
)

func waitFor(ctx context.Context, f func(ctx context.Context) (bool, error)) error {
	err := wait.For(
		f,
		wait.WithTimeout(timeout),
		wait.WithInterval(interval),
		wait.WithContext(ctx),
	)

	return err
}
