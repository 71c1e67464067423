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

// Package config holds the configuration surface of the catalog ingestor.
//
// Every key is optional. Defaults are registered on the viper instance in
// Load, so a zero-length configuration file yields a working setup that
// ingests the built-in workload kinds of every kubeconfig context.
package config

import (
	"fmt"
	"strings"
	"time"

	kerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Naming models.
const (
	NamespaceModelCluster   = "cluster"
	NamespaceModelNamespace = "namespace"
	NamespaceModelDefault   = "default"

	SystemModelCluster          = "cluster"
	SystemModelNamespace        = "namespace"
	SystemModelClusterNamespace = "cluster-namespace"
	SystemModelDefault          = "default"

	NameModelName          = "name"
	NameModelNameKind      = "name-kind"
	NameModelNameCluster   = "name-cluster"
	NameModelNameNamespace = "name-namespace"

	TitleModelName          = "name"
	TitleModelNameCluster   = "name-cluster"
	TitleModelNameNamespace = "name-namespace"

	ReferencesNamespaceModelDefault = "default"
	ReferencesNamespaceModelSame    = "same"
)

// Publish targets.
const (
	PublishTargetGitHub         = "github"
	PublishTargetGitLab         = "gitlab"
	PublishTargetBitbucket      = "bitbucket"
	PublishTargetBitbucketCloud = "bitbucketCloud"
	PublishTargetYAML           = "yaml"
)

// Catalog sinks.
const (
	SinkFile      = "file"
	SinkConfigMap = "configmap"
)

// Config is the root configuration.
type Config struct {
	// Clusters is an explicit allow-list of cluster names. When empty every
	// cluster known to the fetcher is used.
	Clusters []string `mapstructure:"clusters"`

	// Kubeconfig is the path of the kubeconfig whose contexts are the
	// target clusters. Empty uses the default loading rules.
	Kubeconfig string `mapstructure:"kubeconfig"`

	AnnotationPrefix string `mapstructure:"annotationPrefix"`
	DefaultOwner     string `mapstructure:"defaultOwner"`

	// InheritOwnerFromNamespace makes objects without an owner annotation
	// inherit the owner annotation of their namespace.
	InheritOwnerFromNamespace bool `mapstructure:"inheritOwnerFromNamespace"`

	// FetchConcurrency bounds the number of concurrent list calls per cluster.
	FetchConcurrency int `mapstructure:"fetchConcurrency"`

	Mappings            Mappings            `mapstructure:"mappings"`
	Components          Components          `mapstructure:"components"`
	Crossplane          Crossplane          `mapstructure:"crossplane"`
	KRO                 KRO                 `mapstructure:"kro"`
	GenericCRDTemplates GenericCRDTemplates `mapstructure:"genericCRDTemplates"`
	API                 API                 `mapstructure:"api"`
	Catalog             Catalog             `mapstructure:"catalog"`
}

// Mappings selects the naming models.
type Mappings struct {
	NamespaceModel           string `mapstructure:"namespaceModel"`
	SystemModel              string `mapstructure:"systemModel"`
	NameModel                string `mapstructure:"nameModel"`
	TitleModel               string `mapstructure:"titleModel"`
	ReferencesNamespaceModel string `mapstructure:"referencesNamespaceModel"`
}

// TaskRunner configures how often a provider runs and how long a run may take.
type TaskRunner struct {
	Frequency time.Duration `mapstructure:"frequency"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// WorkloadType is an operator-configured kind ingested as a workload.
type WorkloadType struct {
	Group      string `mapstructure:"group"`
	APIVersion string `mapstructure:"apiVersion"`
	Plural     string `mapstructure:"plural"`

	// ComponentType is used as the record type of objects of this kind
	// unless the object carries a component-type annotation.
	ComponentType string `mapstructure:"componentType"`
}

type Components struct {
	Enabled                      bool           `mapstructure:"enabled"`
	IngestAsResources            bool           `mapstructure:"ingestAsResources"`
	ExcludedNamespaces           []string       `mapstructure:"excludedNamespaces"`
	OnlyIngestAnnotatedResources bool           `mapstructure:"onlyIngestAnnotatedResources"`
	DisableDefaultWorkloadTypes  bool           `mapstructure:"disableDefaultWorkloadTypes"`
	CustomWorkloadTypes          []WorkloadType `mapstructure:"customWorkloadTypes"`
	TaskRunner                   TaskRunner     `mapstructure:"taskRunner"`
}

type Crossplane struct {
	Enabled bool   `mapstructure:"enabled"`
	Claims  Claims `mapstructure:"claims"`
	XRDs    XRDs   `mapstructure:"xrds"`
}

type Claims struct {
	IngestAllClaims   bool `mapstructure:"ingestAllClaims"`
	IngestAsResources bool `mapstructure:"ingestAsResources"`
}

type XRDs struct {
	Enabled                            bool         `mapstructure:"enabled"`
	IngestOnlyAsAPI                    bool         `mapstructure:"ingestOnlyAsAPI"`
	ConvertDefaultValuesToPlaceholders bool         `mapstructure:"convertDefaultValuesToPlaceholders"`
	TaskRunner                         TaskRunner   `mapstructure:"taskRunner"`
	PublishPhase                       PublishPhase `mapstructure:"publishPhase"`
}

type KRO struct {
	Enabled   bool         `mapstructure:"enabled"`
	Instances KROInstances `mapstructure:"instances"`
	RGDs      RGDs         `mapstructure:"rgds"`
}

type KROInstances struct {
	IngestAsResources bool `mapstructure:"ingestAsResources"`
}

type RGDs struct {
	Enabled                            bool         `mapstructure:"enabled"`
	IngestOnlyAsAPI                    bool         `mapstructure:"ingestOnlyAsAPI"`
	ConvertDefaultValuesToPlaceholders bool         `mapstructure:"convertDefaultValuesToPlaceholders"`
	TaskRunner                         TaskRunner   `mapstructure:"taskRunner"`
	PublishPhase                       PublishPhase `mapstructure:"publishPhase"`
}

// GenericCRDTemplates selects plain CRDs for which templates and API
// descriptions are generated, either by label or by name.
type GenericCRDTemplates struct {
	CRDLabelSelector                   LabelSelector `mapstructure:"crdLabelSelector"`
	CRDs                               []string      `mapstructure:"crds"`
	IngestOnlyAsAPI                    bool          `mapstructure:"ingestOnlyAsAPI"`
	ConvertDefaultValuesToPlaceholders bool          `mapstructure:"convertDefaultValuesToPlaceholders"`
	TaskRunner                         TaskRunner    `mapstructure:"taskRunner"`
	PublishPhase                       PublishPhase  `mapstructure:"publishPhase"`
}

type LabelSelector struct {
	Key   string `mapstructure:"key"`
	Value string `mapstructure:"value"`
}

// String renders the selector in label-selector syntax.
func (s LabelSelector) String() string {
	if s.Key == "" {
		return ""
	}
	return s.Key + "=" + s.Value
}

// Enabled reports whether generic CRD templates are configured at all.
func (g GenericCRDTemplates) Enabled() bool {
	return g.CRDLabelSelector.Key != "" || len(g.CRDs) > 0
}

// PublishPhase configures the source-control phase of generated templates.
type PublishPhase struct {
	Target                           string   `mapstructure:"target"`
	AllowedTargets                   []string `mapstructure:"allowedTargets"`
	AllowRepoSelection               bool     `mapstructure:"allowRepoSelection"`
	RequestUserCredentialsForRepoURL bool     `mapstructure:"requestUserCredentialsForRepoUrl"`
	Git                              Git      `mapstructure:"git"`
}

type Git struct {
	RepoURL      string `mapstructure:"repoUrl"`
	TargetBranch string `mapstructure:"targetBranch"`
}

// API configures generated API descriptions.
type API struct {
	// ServerURL is the base URL under which cluster APIs are reachable.
	// Each target cluster gets a server entry "<ServerURL>/<cluster>".
	ServerURL string `mapstructure:"serverURL"`
}

// Catalog selects where the generated records are published.
type Catalog struct {
	Sink       string `mapstructure:"sink"`
	Directory  string `mapstructure:"directory"`
	Namespace  string `mapstructure:"namespace"`
	NamePrefix string `mapstructure:"namePrefix"`
}

// Validate checks enumerated values and required fields.
func (c *Config) Validate() error {
	var errs []error

	if c.AnnotationPrefix == "" {
		errs = append(errs, fmt.Errorf("annotationPrefix must not be empty"))
	}
	if c.DefaultOwner == "" {
		errs = append(errs, fmt.Errorf("defaultOwner must not be empty"))
	}
	if c.FetchConcurrency < 0 {
		errs = append(errs, fmt.Errorf("fetchConcurrency must be a non-negative number"))
	}

	errs = append(errs, oneOf("mappings.namespaceModel", c.Mappings.NamespaceModel,
		NamespaceModelCluster, NamespaceModelNamespace, NamespaceModelDefault)...)
	errs = append(errs, oneOf("mappings.systemModel", c.Mappings.SystemModel,
		SystemModelCluster, SystemModelNamespace, SystemModelClusterNamespace, SystemModelDefault)...)
	errs = append(errs, oneOf("mappings.nameModel", c.Mappings.NameModel,
		NameModelName, NameModelNameKind, NameModelNameCluster, NameModelNameNamespace)...)
	errs = append(errs, oneOf("mappings.titleModel", c.Mappings.TitleModel,
		TitleModelName, TitleModelNameCluster, TitleModelNameNamespace)...)
	errs = append(errs, oneOf("mappings.referencesNamespaceModel", c.Mappings.ReferencesNamespaceModel,
		ReferencesNamespaceModelDefault, ReferencesNamespaceModelSame)...)

	errs = append(errs, c.Components.TaskRunner.validate("components.taskRunner")...)
	errs = append(errs, c.Crossplane.XRDs.TaskRunner.validate("crossplane.xrds.taskRunner")...)
	errs = append(errs, c.KRO.RGDs.TaskRunner.validate("kro.rgds.taskRunner")...)
	errs = append(errs, c.GenericCRDTemplates.TaskRunner.validate("genericCRDTemplates.taskRunner")...)

	errs = append(errs, c.Crossplane.XRDs.PublishPhase.validate("crossplane.xrds.publishPhase")...)
	errs = append(errs, c.KRO.RGDs.PublishPhase.validate("kro.rgds.publishPhase")...)
	errs = append(errs, c.GenericCRDTemplates.PublishPhase.validate("genericCRDTemplates.publishPhase")...)

	for i, wt := range c.Components.CustomWorkloadTypes {
		if wt.APIVersion == "" || wt.Plural == "" {
			errs = append(errs, fmt.Errorf("components.customWorkloadTypes[%d]: apiVersion and plural are required", i))
		}
	}

	errs = append(errs, oneOf("catalog.sink", c.Catalog.Sink, SinkFile, SinkConfigMap)...)
	if c.Catalog.Sink == SinkFile && c.Catalog.Directory == "" {
		errs = append(errs, fmt.Errorf("catalog.directory is required for the %q sink", SinkFile))
	}
	if c.Catalog.Sink == SinkConfigMap && c.Catalog.Namespace == "" {
		errs = append(errs, fmt.Errorf("catalog.namespace is required for the %q sink", SinkConfigMap))
	}

	return kerrors.NewAggregate(errs)
}

func (t TaskRunner) validate(path string) []error {
	var errs []error
	if t.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("%s.frequency must be a positive duration", path))
	}
	if t.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s.timeout must be a positive duration", path))
	}
	return errs
}

func (p PublishPhase) validate(path string) []error {
	return oneOf(path+".target", p.Target,
		PublishTargetGitHub, PublishTargetGitLab, PublishTargetBitbucket, PublishTargetBitbucketCloud, PublishTargetYAML)
}

func oneOf(path, value string, allowed ...string) []error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return []error{fmt.Errorf("invalid %s %q; available: %s", path, value, strings.Join(allowed, ", "))}
}

// AnnotatedKey joins the configured annotation prefix and a suffix.
func (c *Config) AnnotatedKey(suffix string) string {
	return c.AnnotationPrefix + "/" + suffix
}

// IsExcludedNamespace reports whether objects in ns are ignored.
func (c *Config) IsExcludedNamespace(ns string) bool {
	for _, excluded := range c.Components.ExcludedNamespaces {
		if excluded == ns {
			return true
		}
	}
	return false
}
