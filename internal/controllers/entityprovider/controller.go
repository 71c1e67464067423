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

package entityprovider

import (
	"fmt"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/catalog"
	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/ingest"
	"k8c.io/catalog-ingestor/internal/ownership"
	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	"k8c.io/catalog-ingestor/internal/schema"
	"k8c.io/catalog-ingestor/internal/template"
	"k8c.io/catalog-ingestor/internal/translation"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	"sigs.k8s.io/controller-runtime/pkg/manager"
)

// ConnectionFactory returns the catalog connection of a provider.
type ConnectionFactory func(provider string) (catalog.Connection, error)

// ControllerConfig holds the configuration for the entity providers.
type ControllerConfig struct {
	Log     *zap.SugaredLogger
	Config  *config.Config
	Fetcher kubernetes.Fetcher

	// NewConnection is called once per enabled provider.
	NewConnection ConnectionFactory
}

func (c *ControllerConfig) validate() error {
	if c.Log == nil {
		return fmt.Errorf("log cannot be nil")
	}
	if c.Config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if c.Fetcher == nil {
		return fmt.Errorf("fetcher cannot be nil")
	}
	if c.NewConnection == nil {
		return fmt.Errorf("connection factory cannot be nil")
	}
	return nil
}

// NewRunners returns a Runner for every provider enabled in the
// configuration.
func NewRunners(cfg *ControllerConfig) ([]*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("failed to create entity providers: config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("failed to create entity providers: %w", err)
	}

	c := cfg.Config
	schemaOpts := schema.Options{
		Log:         cfg.Log.Named("schema"),
		Fetcher:     cfg.Fetcher,
		Clusters:    c.Clusters,
		Concurrency: c.FetchConcurrency,
	}

	crds, err := schema.NewCRDDataProvider(schemaOpts)
	if err != nil {
		return nil, err
	}
	xrds, err := schema.NewXRDDataProvider(schemaOpts)
	if err != nil {
		return nil, err
	}
	rgds, err := schema.NewRGDDataProvider(schemaOpts)
	if err != nil {
		return nil, err
	}

	generator, err := template.NewGenerator(template.Options{Log: cfg.Log.Named("template-generator"), Config: c})
	if err != nil {
		return nil, err
	}

	type enabledProvider struct {
		provider Provider
		runner   config.TaskRunner
	}
	var enabled []enabledProvider

	if c.Components.Enabled || c.Crossplane.Enabled || c.KRO.Enabled {
		p, err := newKubernetesProvider(cfg, crds, xrds, rgds)
		if err != nil {
			return nil, err
		}
		enabled = append(enabled, enabledProvider{provider: p, runner: c.Components.TaskRunner})
	}

	if c.Crossplane.Enabled && c.Crossplane.XRDs.Enabled {
		enabled = append(enabled, enabledProvider{
			provider: &templateProvider{
				name:      XRDTemplateEntityProvider,
				log:       cfg.Log.Named("xrd-template-entity-provider"),
				fetch:     xrds.FetchXRDObjects,
				generator: generator,
			},
			runner: c.Crossplane.XRDs.TaskRunner,
		})
	}

	if c.KRO.Enabled && c.KRO.RGDs.Enabled {
		enabled = append(enabled, enabledProvider{
			provider: &templateProvider{
				name:      RGDTemplateEntityProvider,
				log:       cfg.Log.Named("rgd-template-entity-provider"),
				fetch:     rgds.FetchRGDObjects,
				generator: generator,
			},
			runner: c.KRO.RGDs.TaskRunner,
		})
	}

	if c.GenericCRDTemplates.Enabled() {
		sel := schema.CRDSelector{
			LabelSelector: c.GenericCRDTemplates.CRDLabelSelector.String(),
			Names:         c.GenericCRDTemplates.CRDs,
		}
		enabled = append(enabled, enabledProvider{
			provider: &templateProvider{
				name:      CRDTemplateEntityProvider,
				log:       cfg.Log.Named("crd-template-entity-provider"),
				fetch:     crdFetcher(crds, sel),
				generator: generator,
			},
			runner: c.GenericCRDTemplates.TaskRunner,
		})
	}

	runners := make([]*Runner, 0, len(enabled))
	for _, e := range enabled {
		conn, err := cfg.NewConnection(e.provider.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog connection for %s: %w", e.provider.Name(), err)
		}
		runners = append(runners, NewRunner(cfg.Log, e.provider, conn, e.runner.Frequency, e.runner.Timeout))
	}

	return runners, nil
}

func newKubernetesProvider(cfg *ControllerConfig, crds *schema.CRDDataProvider, xrds *schema.XRDDataProvider, rgds *schema.RGDDataProvider) (*kubernetesProvider, error) {
	c := cfg.Config
	log := cfg.Log.Named("kubernetes-entity-provider")

	data, err := ingest.NewKubernetesDataProvider(ingest.Options{
		Log:     log,
		Fetcher: cfg.Fetcher,
		Config:  c,
		CRDs:    crds,
		XRDs:    xrds,
		RGDs:    rgds,
	})
	if err != nil {
		return nil, err
	}

	cache := ownership.NewCache(log.Named("ownership"), cfg.Fetcher, c.AnnotatedKey(catalogv1alpha1.AnnotationOwner))
	engine, err := translation.NewEngine(translation.Options{
		Log:      log.Named("translation"),
		Config:   c,
		Owners:   ownership.NewResolver(cache, c.DefaultOwner, c.InheritOwnerFromNamespace),
		Provider: KubernetesEntityProvider,
	})
	if err != nil {
		return nil, err
	}

	return &kubernetesProvider{
		log:    log,
		cfg:    c,
		cache:  cache,
		data:   data,
		engine: engine,
	}, nil
}

// Add creates the enabled entity providers and adds them to the Manager,
// which starts them once it is elected leader.
func Add(mgr manager.Manager, cfg *ControllerConfig) error {
	runners, err := NewRunners(cfg)
	if err != nil {
		return err
	}

	for _, r := range runners {
		if err := mgr.Add(r); err != nil {
			return fmt.Errorf("failed to add %s to the manager: %w", r.Name(), err)
		}
		cfg.Log.Infow("Registered entity provider", "provider", r.Name())
	}

	return nil
}
