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
	"strings"

	giturl "github.com/kubescape/go-git-url"
)

const defaultSourceBranch = "main"

// SourceLocation returns the "url:" location of a branch of a repository,
// in the URL layout of the repository's git provider. Unknown hosts get
// the GitHub layout.
func SourceLocation(repoURL, branch string) string {
	repoURL = strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(repoURL), "/"), ".git")
	if repoURL == "" {
		return ""
	}
	if branch == "" {
		branch = defaultSourceBranch
	}

	gitURL, err := giturl.NewGitURL(repoURL)
	if err != nil {
		return "url:" + repoURL + "/tree/" + branch + "/"
	}

	base := "https://" + gitURL.GetHostName() + "/" + gitURL.GetOwnerName() + "/" + gitURL.GetRepoName()
	switch gitURL.GetProvider() {
	case "gitlab":
		return "url:" + base + "/-/tree/" + branch + "/"
	case "bitbucket":
		return "url:" + base + "/src/" + branch + "/"
	case "azure":
		return "url:" + repoURL + "?version=GB" + branch
	default:
		return "url:" + base + "/tree/" + branch + "/"
	}
}

// TechdocsRef returns the techdocs reference for a documentation path
// inside the repository.
func TechdocsRef(repoURL, branch, path string) string {
	location := SourceLocation(repoURL, branch)
	if location == "" {
		return ""
	}
	path = strings.Trim(path, "/")
	if path == "" || path == "." {
		return location
	}
	if strings.Contains(location, "?version=") {
		return location + "&path=/" + path
	}
	return location + path
}
