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
	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/schema"

	giturl "github.com/kubescape/go-git-url"
)

const (
	strategyRuntime         = "runtime"
	strategyDirectReference = "direct-reference"
	strategyLabelSelector   = "label-selector"

	// Form fields that only steer the template and never end up in the
	// generated manifest.
	fieldOwner             = "owner"
	fieldClusters          = "clusters"
	fieldPushToGit         = "pushToGit"
	fieldRepoURL           = "repoUrl"
	fieldTargetBranch      = "targetBranch"
	fieldManifestLayout    = "manifestLayout"
	fieldSelectionStrategy = "compositionSelectionStrategy"
)

// controlFields are excluded from the generated manifest.
var controlFields = []string{
	fieldOwner,
	fieldClusters,
	fieldPushToGit,
	fieldRepoURL,
	fieldTargetBranch,
	fieldManifestLayout,
	fieldSelectionStrategy,
}

func metadataParameters(t target) map[string]any {
	props := map[string]any{
		"name": map[string]any{
			"title":       "Name",
			"type":        "string",
			"description": "The name of the resource",
			"pattern":     "^[a-z0-9]([-a-z0-9]*[a-z0-9])?$",
			"maxLength":   63,
		},
		fieldOwner: map[string]any{
			"title":    "Owner",
			"type":     "string",
			"ui:field": "OwnerPicker",
			"ui:options": map[string]any{
				"catalogFilter": map[string]any{"kind": []string{"Group", "User"}},
			},
		},
	}
	required := []string{"name"}

	if t.Namespaced {
		props["namespace"] = map[string]any{
			"title":       "Namespace",
			"type":        "string",
			"description": "The namespace of the resource",
			"default":     "default",
		}
		required = append(required, "namespace")
	}

	return map[string]any{
		"title":      "Resource Metadata",
		"required":   required,
		"properties": props,
	}
}

// specParameters returns the spec group, or nil if the version has no
// spec fields.
func specParameters(t target, placeholders bool) map[string]any {
	spec := specSchema(t.Schema)
	if spec == nil {
		return nil
	}

	props, required := fieldConverter{placeholders: placeholders}.properties(spec, reservedStepsField)
	if len(props) == 0 {
		return nil
	}

	group := map[string]any{
		"title":      "Resource Spec",
		"properties": props,
	}
	if len(required) > 0 {
		group["required"] = required
	}
	return group
}

// compositionSettings returns the composition related fields, with the
// selection strategy as a switch between reference, selector and runtime
// selection.
func compositionSettings(compositions []string) (map[string]any, map[string]any) {
	ref := map[string]any{
		"title": "Composition",
		"type":  "string",
	}
	if len(compositions) > 0 {
		ref["enum"] = compositions
	}

	props := map[string]any{
		fieldSelectionStrategy: map[string]any{
			"title":   "Composition Selection Strategy",
			"type":    "string",
			"enum":    []string{strategyRuntime, strategyDirectReference, strategyLabelSelector},
			"default": strategyRuntime,
		},
		"compositionUpdatePolicy": map[string]any{
			"title":   "Composition Update Policy",
			"type":    "string",
			"enum":    []string{"Automatic", "Manual"},
			"default": "Automatic",
		},
	}

	strategy := func(name string) map[string]any {
		return map[string]any{"const": name}
	}
	dependencies := map[string]any{
		fieldSelectionStrategy: map[string]any{
			"oneOf": []any{
				map[string]any{
					"properties": map[string]any{fieldSelectionStrategy: strategy(strategyRuntime)},
				},
				map[string]any{
					"properties": map[string]any{
						fieldSelectionStrategy: strategy(strategyDirectReference),
						"compositionRef":       ref,
					},
					"required": []string{"compositionRef"},
				},
				map[string]any{
					"properties": map[string]any{
						fieldSelectionStrategy: strategy(strategyLabelSelector),
						"compositionSelector": map[string]any{
							"title":                "Composition Selector Labels",
							"type":                 "object",
							"additionalProperties": map[string]any{"type": "string"},
						},
					},
					"required": []string{"compositionSelector"},
				},
			},
		},
	}

	return props, dependencies
}

// crossplaneParameters returns the Crossplane group. Legacy composites
// carry their settings flat, next to the connection secret and delete
// policy of the claim; v2 composites nest them under spec.crossplane.
func crossplaneParameters(d *schema.Descriptor) map[string]any {
	props, dependencies := compositionSettings(d.Compositions)

	if d.IsLegacy() {
		props["writeConnectionSecretToRef"] = map[string]any{
			"title":       "Connection Secret Name",
			"type":        "string",
			"description": "Name of the secret the connection details are written to",
		}
		props["compositeDeletePolicy"] = map[string]any{
			"title":   "Composite Delete Policy",
			"type":    "string",
			"enum":    []string{"Background", "Foreground"},
			"default": "Background",
		}
		return map[string]any{
			"title":        "Crossplane Settings",
			"properties":   props,
			"dependencies": dependencies,
		}
	}

	return map[string]any{
		"title": "Crossplane Settings",
		"properties": map[string]any{
			"crossplane": map[string]any{
				"title":        "Crossplane",
				"type":         "object",
				"properties":   props,
				"dependencies": dependencies,
			},
		},
	}
}

func clusterParameters(clusters []string) map[string]any {
	return map[string]any{
		"title":    "Target Clusters",
		"required": []string{fieldClusters},
		"properties": map[string]any{
			fieldClusters: map[string]any{
				"title":       "Target Clusters",
				"description": "The clusters the resource is created in",
				"type":        "array",
				"minItems":    1,
				"uniqueItems": true,
				"ui:widget":   "checkboxes",
				"items": map[string]any{
					"type": "string",
					"enum": clusters,
				},
			},
		},
	}
}

// repoPickerValue converts a repository URL into the value format of the
// repository picker, "{host}?owner={owner}&repo={repo}".
func repoPickerValue(repoURL string) string {
	if repoURL == "" {
		return ""
	}
	u, err := giturl.NewGitURL(repoURL)
	if err != nil {
		return ""
	}
	return u.GetHostName() + "?owner=" + u.GetOwnerName() + "&repo=" + u.GetRepoName()
}

// publishParameters returns the source control group, or nil when
// manifests are only rendered.
func publishParameters(p config.PublishPhase) map[string]any {
	if p.Target == config.PublishTargetYAML {
		return nil
	}

	repo := map[string]any{
		"title": "Repository Location",
		"type":  "string",
	}
	if p.AllowRepoSelection {
		options := map[string]any{"allowedHosts": p.AllowedTargets}
		if p.RequestUserCredentialsForRepoURL {
			options["requestUserCredentials"] = map[string]any{"secretsKey": userTokenSecret}
		}
		repo["ui:field"] = "RepoUrlPicker"
		repo["ui:options"] = options
	} else {
		repo["ui:disabled"] = true
	}
	if def := repoPickerValue(p.Git.RepoURL); def != "" {
		repo["default"] = def
	}

	branch := map[string]any{
		"title":   "Target Branch",
		"type":    "string",
		"default": p.Git.TargetBranch,
	}
	layout := map[string]any{
		"title":   "Manifest Layout",
		"type":    "string",
		"enum":    []string{"cluster-scoped", "namespace-scoped", "custom"},
		"default": "cluster-scoped",
	}

	return map[string]any{
		"title": "Creation Settings",
		"properties": map[string]any{
			fieldPushToGit: map[string]any{
				"title":   "Push Manifest to GitOps Repository",
				"type":    "boolean",
				"default": true,
			},
		},
		"dependencies": map[string]any{
			fieldPushToGit: map[string]any{
				"oneOf": []any{
					map[string]any{
						"properties": map[string]any{fieldPushToGit: map[string]any{"const": false}},
					},
					map[string]any{
						"properties": map[string]any{
							fieldPushToGit:      map[string]any{"const": true},
							fieldRepoURL:        repo,
							fieldTargetBranch:   branch,
							fieldManifestLayout: layout,
						},
						"required": []string{fieldRepoURL, fieldTargetBranch},
					},
				},
			},
		},
	}
}

// Parameters composes the form of a template.
func Parameters(d *schema.Descriptor, v schema.Version, s Settings) []map[string]any {
	t := targetFor(d, v)

	groups := []map[string]any{metadataParameters(t)}
	if spec := specParameters(t, s.ConvertDefaultValuesToPlaceholders); spec != nil {
		groups = append(groups, spec)
	}
	if d.Source == schema.SourceXRD {
		groups = append(groups, crossplaneParameters(d))
	}
	groups = append(groups, clusterParameters(d.Clusters))
	if publish := publishParameters(s.PublishPhase); publish != nil {
		groups = append(groups, publish)
	}
	return groups
}
