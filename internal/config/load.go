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

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. INGESTOR_DEFAULTOWNER or INGESTOR_MAPPINGS_NAMEMODEL.
const EnvPrefix = "INGESTOR"

const (
	defaultFrequency = 10 * time.Minute
	defaultTimeout   = 5 * time.Minute
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("annotationPrefix", catalogv1alpha1.DefaultAnnotationPrefix)
	v.SetDefault("defaultOwner", catalogv1alpha1.DefaultOwner)
	v.SetDefault("inheritOwnerFromNamespace", false)
	v.SetDefault("fetchConcurrency", 8)

	v.SetDefault("mappings.namespaceModel", NamespaceModelDefault)
	v.SetDefault("mappings.systemModel", SystemModelNamespace)
	v.SetDefault("mappings.nameModel", NameModelName)
	v.SetDefault("mappings.titleModel", TitleModelName)
	v.SetDefault("mappings.referencesNamespaceModel", ReferencesNamespaceModelDefault)

	v.SetDefault("components.enabled", true)
	v.SetDefault("components.ingestAsResources", false)
	v.SetDefault("components.excludedNamespaces", []string{"kube-public", "kube-system"})
	v.SetDefault("components.onlyIngestAnnotatedResources", false)
	v.SetDefault("components.disableDefaultWorkloadTypes", false)
	setTaskRunnerDefaults(v, "components.taskRunner")

	v.SetDefault("crossplane.enabled", true)
	v.SetDefault("crossplane.claims.ingestAllClaims", true)
	v.SetDefault("crossplane.claims.ingestAsResources", false)
	v.SetDefault("crossplane.xrds.enabled", true)
	v.SetDefault("crossplane.xrds.ingestOnlyAsAPI", false)
	v.SetDefault("crossplane.xrds.convertDefaultValuesToPlaceholders", false)
	setTaskRunnerDefaults(v, "crossplane.xrds.taskRunner")
	setPublishPhaseDefaults(v, "crossplane.xrds.publishPhase")

	v.SetDefault("kro.enabled", false)
	v.SetDefault("kro.instances.ingestAsResources", false)
	v.SetDefault("kro.rgds.enabled", true)
	v.SetDefault("kro.rgds.ingestOnlyAsAPI", false)
	v.SetDefault("kro.rgds.convertDefaultValuesToPlaceholders", false)
	setTaskRunnerDefaults(v, "kro.rgds.taskRunner")
	setPublishPhaseDefaults(v, "kro.rgds.publishPhase")

	v.SetDefault("genericCRDTemplates.ingestOnlyAsAPI", false)
	setTaskRunnerDefaults(v, "genericCRDTemplates.taskRunner")
	setPublishPhaseDefaults(v, "genericCRDTemplates.publishPhase")

	v.SetDefault("api.serverURL", "/api/proxy/kubernetes")

	v.SetDefault("catalog.sink", SinkFile)
	v.SetDefault("catalog.directory", "./catalog")
	v.SetDefault("catalog.namespace", "default")
	v.SetDefault("catalog.namePrefix", "catalog-ingestor")
}

func setTaskRunnerDefaults(v *viper.Viper, path string) {
	v.SetDefault(path+".frequency", defaultFrequency)
	v.SetDefault(path+".timeout", defaultTimeout)
}

func setPublishPhaseDefaults(v *viper.Viper, path string) {
	v.SetDefault(path+".target", PublishTargetGitHub)
	v.SetDefault(path+".allowedTargets", []string{"github.com"})
	v.SetDefault(path+".allowRepoSelection", true)
	v.SetDefault(path+".requestUserCredentialsForRepoUrl", false)
	v.SetDefault(path+".git.targetBranch", "main")
}

// New returns a viper instance with defaults and environment overrides
// registered, reading from path if it is non-empty.
func New(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

// Load reads the configuration file at path (optional), applies defaults
// and environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := New(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// normalize lower-cases the naming models so that "Name-Cluster" and
// "name-cluster" select the same model.
func (c *Config) normalize() {
	c.Mappings.NamespaceModel = strings.ToLower(c.Mappings.NamespaceModel)
	c.Mappings.SystemModel = strings.ToLower(c.Mappings.SystemModel)
	c.Mappings.NameModel = strings.ToLower(c.Mappings.NameModel)
	c.Mappings.TitleModel = strings.ToLower(c.Mappings.TitleModel)
	c.Mappings.ReferencesNamespaceModel = strings.ToLower(c.Mappings.ReferencesNamespaceModel)
}

// Default returns the configuration obtained from defaults alone.
func Default() *Config {
	cfg, err := FromViper(New(""))
	if err != nil {
		// Defaults are static and covered by tests.
		panic(err)
	}
	return cfg
}
