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
	"bytes"
	"fmt"
	gotemplate "text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"k8c.io/catalog-ingestor/internal/config"
)

const userTokenSecret = "USER_OAUTH_TOKEN"

// pullRequestActions maps publish targets to scaffolder actions.
var pullRequestActions = map[string]string{
	config.PublishTargetGitHub:         "publish:github:pull-request",
	config.PublishTargetGitLab:         "publish:gitlab:merge-request",
	config.PublishTargetBitbucket:      "publish:bitbucketServer:pull-request",
	config.PublishTargetBitbucketCloud: "publish:bitbucketCloud:pull-request",
}

// The skeleton uses [[ ]] delimiters since ${{ }} expressions are
// evaluated by the scaffolder at runtime and must be kept verbatim.
const stepsSkeleton = `
- id: generateManifest
  name: Generate Kubernetes Resource Manifest
  action: [[ .ManifestAction ]]
  input:
    parameters: '${{ parameters }}'
    nameParam: name
    namespaceParam: [[ if .Namespaced ]]namespace[[ else ]]""[[ end ]]
    excludeParams: [[ toJson .ExcludeParams ]]
    apiVersion: [[ .APIVersion | quote ]]
    kind: [[ .Kind | quote ]]
    clusters: '${{ parameters.clusters }}'
    removeEmptyParams: true
[[- if .PullRequestAction ]]
- id: create-pull-request
  name: Create Pull Request
  action: [[ .PullRequestAction ]]
  if: '${{ parameters.pushToGit }}'
  input:
    repoUrl: '${{ parameters.repoUrl }}'
    branchName: 'create-${{ parameters.name }}-[[ .Kind | lower ]]'
    title: 'Create [[ .Kind ]] ${{ parameters.name }}'
    description: 'Create [[ .Kind ]] ${{ parameters.name }}'
    targetBranchName: '${{ parameters.targetBranch }}'
    sourcePath: ./
    targetPath: '${{ parameters.manifestLayout }}'
[[- if .UserCredentials ]]
    token: '${{ secrets.[[ .TokenSecret ]] }}'
[[- end ]]
[[- end ]]
`

var stepsTemplate = gotemplate.Must(gotemplate.New("steps").
	Delims("[[", "]]").
	Funcs(sprig.TxtFuncMap()).
	Parse(stepsSkeleton))

type stepsData struct {
	ManifestAction    string
	APIVersion        string
	Kind              string
	Namespaced        bool
	ExcludeParams     []string
	PullRequestAction string
	UserCredentials   bool
	TokenSecret       string
}

func newStepsData(t target, action string, p config.PublishPhase) stepsData {
	return stepsData{
		ManifestAction:    action,
		APIVersion:        t.APIVersion(),
		Kind:              t.Kind,
		Namespaced:        t.Namespaced,
		ExcludeParams:     controlFields,
		PullRequestAction: pullRequestActions[p.Target],
		UserCredentials:   p.RequestUserCredentialsForRepoURL,
		TokenSecret:       userTokenSecret,
	}
}

// renderSteps renders the step skeleton and splices extra steps in right
// after manifest generation.
func renderSteps(data stepsData, extra []map[string]any) ([]map[string]any, error) {
	var buf bytes.Buffer
	if err := stepsTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render steps: %w", err)
	}

	var steps []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &steps); err != nil {
		return nil, fmt.Errorf("failed to parse rendered steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("rendered steps are empty")
	}

	out := make([]map[string]any, 0, len(steps)+len(extra))
	out = append(out, steps[0])
	out = append(out, extra...)
	out = append(out, steps[1:]...)
	return out, nil
}

// output returns the links shown after a template ran.
func output(data stepsData) map[string]any {
	links := []any{
		map[string]any{
			"title": "Download YAML Manifest",
			"url":   "data:application/yaml;charset=utf-8,${{ steps.generateManifest.output.manifest }}",
		},
	}
	if data.PullRequestAction != "" {
		links = append(links, map[string]any{
			"title": "Open Pull Request",
			"if":    "${{ parameters.pushToGit }}",
			"url":   "${{ steps['create-pull-request'].output.remoteUrl }}",
		})
	}
	return map[string]any{"links": links}
}
