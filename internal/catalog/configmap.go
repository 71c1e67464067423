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

package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	kerrors "k8s.io/apimachinery/pkg/util/errors"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
)

const (
	// DataKey is the ConfigMap key holding the YAML stream.
	DataKey = "entities.yaml"

	// maxConfigMapData is the size limit of ConfigMap data.
	maxConfigMapData = 1 << 20
)

// ConfigMapConnection publishes one ConfigMap per location key into a
// namespace, from where catalog consumers can mount or read them.
type ConfigMapConnection struct {
	client     ctrlruntimeclient.Client
	log        *zap.SugaredLogger
	namespace  string
	namePrefix string
	provider   string
}

var _ Connection = &ConfigMapConnection{}

func NewConfigMapConnection(log *zap.SugaredLogger, client ctrlruntimeclient.Client, namespace, namePrefix, provider string) (*ConfigMapConnection, error) {
	if provider == "" {
		return nil, ErrEmptyProvider
	}
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	return &ConfigMapConnection{
		client:     client,
		log:        log,
		namespace:  namespace,
		namePrefix: namePrefix,
		provider:   provider,
	}, nil
}

// Name returns the name of the ConfigMap of a location key.
func (c *ConfigMapConnection) Name(locationKey string) string {
	name := objectName(locationKey)
	if c.namePrefix != "" {
		name = objectName(c.namePrefix) + "-" + name
	}
	return name
}

func (c *ConfigMapConnection) labels() map[string]string {
	return map[string]string{
		catalogv1alpha1.LabelManagedBy: catalogv1alpha1.LabelManagedByIngestor,
		catalogv1alpha1.LabelProvider:  objectName(c.provider),
	}
}

func (c *ConfigMapConnection) ApplyMutation(ctx context.Context, m Mutation) error {
	keys, groups, err := groupByLocation(m)
	if err != nil {
		return err
	}

	var errs []error
	written := map[string]bool{}

	for _, key := range keys {
		data, err := EncodeEntities(groups[key])
		if err != nil {
			return err
		}
		if len(data) > maxConfigMapData {
			errs = append(errs, fmt.Errorf("records of %q exceed the ConfigMap size limit (%d bytes)", key, len(data)))
			continue
		}

		desired := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:        c.Name(key),
				Namespace:   c.namespace,
				Labels:      c.labels(),
				Annotations: map[string]string{catalogv1alpha1.AnnotationLocationKey: key},
			},
			Data: map[string]string{DataKey: string(data)},
		}
		written[desired.Name] = true

		if err := c.reconcileConfigMap(ctx, desired); err != nil {
			errs = append(errs, fmt.Errorf("location %q: %w", key, err))
		}
	}

	if err := c.prune(ctx, written); err != nil {
		errs = append(errs, err)
	}

	return kerrors.NewAggregate(errs)
}

// reconcileConfigMap creates or updates a ConfigMap.
func (c *ConfigMapConnection) reconcileConfigMap(ctx context.Context, desired *corev1.ConfigMap) error {
	existing := &corev1.ConfigMap{}

	err := c.client.Get(ctx, ctrlruntimeclient.ObjectKeyFromObject(desired), existing)
	if err != nil {
		if apierrors.IsNotFound(err) {
			c.log.Debugw("Creating ConfigMap", "namespace", desired.Namespace, "name", desired.Name)
			return c.client.Create(ctx, desired)
		}
		return fmt.Errorf("failed to get ConfigMap %q: %w", desired.Name, err)
	}

	c.log.Debugw("Updating ConfigMap", "namespace", desired.Namespace, "name", desired.Name)
	return kubernetes.PatchObject(ctx, c.client, existing, func() {
		kubernetes.EnsureLabels(existing, desired.Labels)
		kubernetes.EnsureAnnotations(existing, desired.Annotations)
		existing.Data = desired.Data
	})
}

// prune deletes ConfigMaps of the provider that were not written by the
// last mutation.
func (c *ConfigMapConnection) prune(ctx context.Context, written map[string]bool) error {
	list := &corev1.ConfigMapList{}
	if err := c.client.List(ctx, list,
		ctrlruntimeclient.InNamespace(c.namespace),
		ctrlruntimeclient.MatchingLabels(c.labels()),
	); err != nil {
		return fmt.Errorf("failed to list ConfigMaps: %w", err)
	}

	var errs []error
	for i := range list.Items {
		cm := &list.Items[i]
		if written[cm.Name] {
			continue
		}
		c.log.Debugw("Deleting stale ConfigMap", "namespace", cm.Namespace, "name", cm.Name)
		if err := c.client.Delete(ctx, cm); ctrlruntimeclient.IgnoreNotFound(err) != nil {
			errs = append(errs, fmt.Errorf("failed to delete ConfigMap %q: %w", cm.Name, err))
		}
	}
	return kerrors.NewAggregate(errs)
}
