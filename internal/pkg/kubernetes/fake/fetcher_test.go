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

package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
)

func TestFetcherProxyReturnsCopy(t *testing.T) {
	f := NewFetcher("prod").AddProxy("prod", "/api/v1/namespaces/team-a", Object("v1", "Namespace", "", "team-a", nil, map[string]string{
		"terasky.backstage.io/owner": "team-a-owners",
	}))

	first, err := f.Proxy(context.Background(), "prod", "/api/v1/namespaces/team-a")
	require.NoError(t, err)
	first["metadata"].(map[string]any)["name"] = "changed"

	second, err := f.Proxy(context.Background(), "prod", "/api/v1/namespaces/team-a")
	require.NoError(t, err)
	assert.Equal(t, "team-a", second["metadata"].(map[string]any)["name"])
	assert.Equal(t, 2, f.Calls("proxy", "prod", "/api/v1/namespaces/team-a"))
}

func TestFetcherProxyErrors(t *testing.T) {
	f := NewFetcher("prod").FailProxy("prod", "/api/v1/namespaces/broken", errors.New("forbidden"))

	_, err := f.Proxy(context.Background(), "prod", "/api/v1/namespaces/broken")
	assert.EqualError(t, err, "forbidden")

	_, err = f.Proxy(context.Background(), "prod", "/api/v1/namespaces/missing")
	assert.Error(t, err)
}

func TestFetcherFetchResources(t *testing.T) {
	f := NewFetcher("prod").Add("prod", "apps/v1/deployments",
		Deployment("team-a", "web", map[string]string{"app": "web"}, nil, nil),
		Deployment("team-b", "api", map[string]string{"app": "api"}, nil, nil),
	)

	items, err := f.FetchResources(context.Background(), kubernetes.FetchRequest{
		ClusterName:  "prod",
		ResourcePath: "apps/v1/namespaces/team-a/deployments",
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "web", items[0].GetName())

	items, err = f.FetchResources(context.Background(), kubernetes.FetchRequest{
		ClusterName:  "prod",
		ResourcePath: "apps/v1/deployments",
		Query:        kubernetes.Query{LabelSelector: "app=api"},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "api", items[0].GetName())
}
