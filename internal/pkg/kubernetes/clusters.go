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

package kubernetes

import (
	"context"
	"fmt"
	"sort"
)

// ResolveClusters returns the sorted allow-list when one is configured and
// every cluster known to the fetcher otherwise.
func ResolveClusters(ctx context.Context, f Fetcher, allowList []string) ([]string, error) {
	if len(allowList) > 0 {
		clusters := append([]string(nil), allowList...)
		sort.Strings(clusters)
		return clusters, nil
	}

	clusters, err := f.ListClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	return clusters, nil
}
