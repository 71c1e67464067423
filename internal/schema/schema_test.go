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

package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/pkg/kubernetes/fake"
)

func testOptions(f *fake.Fetcher) Options {
	return Options{Log: zap.NewNop().Sugar(), Fetcher: f}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		errorMsg string
	}{
		{
			name:     "nil log",
			opts:     Options{Fetcher: fake.NewFetcher()},
			errorMsg: "log cannot be nil",
		},
		{
			name:     "nil fetcher",
			opts:     Options{Log: zap.NewNop().Sugar()},
			errorMsg: "fetcher cannot be nil",
		},
		{
			name:     "negative concurrency",
			opts:     Options{Log: zap.NewNop().Sugar(), Fetcher: fake.NewFetcher(), Concurrency: -1},
			errorMsg: "concurrency must be a non-negative number",
		},
		{
			name: "valid",
			opts: Options{Log: zap.NewNop().Sugar(), Fetcher: fake.NewFetcher()},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.validate()
			if tc.errorMsg == "" {
				if err != nil {
					t.Errorf("expected no error but got: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tc.errorMsg {
				t.Errorf("expected error %q, got %v", tc.errorMsg, err)
			}
		})
	}
}

func TestCRDDataProviderFetchCRDObjects(t *testing.T) {
	database := fake.CRD(fake.CRDSpec{
		Group: "example.com", Kind: "Database", Plural: "databases", Namespaced: true,
		Versions: []string{"v1", "v1beta1"}, Categories: []string{"claim"},
	})
	broken := fake.CRD(fake.CRDSpec{
		Group: "example.com", Kind: "Broken", Plural: "brokens", Versions: []string{"v1"}, NoStorage: true,
	})
	bucket := fake.CRD(fake.CRDSpec{
		Group: "storage.example.com", Kind: "Bucket", Plural: "buckets", Versions: []string{"v1alpha1"},
	})

	f := fake.NewFetcher("prod", "staging").
		Add("prod", CRDPath, database, broken, bucket).
		Add("staging", CRDPath, fake.CRD(fake.CRDSpec{
			Group: "example.com", Kind: "Database", Plural: "databases", Namespaced: true, Versions: []string{"v1"},
		}))

	p, err := NewCRDDataProvider(testOptions(f))
	require.NoError(t, err)

	descriptors, err := p.FetchCRDObjects(context.Background(), CRDSelector{})
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	db := descriptors[0]
	assert.Equal(t, "databases.example.com", db.Name)
	assert.Equal(t, SourceCRD, db.Source)
	assert.Equal(t, ScopeNamespaced, db.Scope)
	assert.Equal(t, []string{"prod", "staging"}, db.Clusters)
	assert.True(t, db.HasCategory(CategoryClaim))
	require.NotNil(t, db.StorageVersion())
	assert.Equal(t, "v1", db.StorageVersion().Name)
	assert.Len(t, db.ServedVersions(), 2, "the prod definition is kept")
	assert.Equal(t, "example.com/v1beta1", db.APIVersion("v1beta1"))

	assert.Equal(t, "buckets.storage.example.com", descriptors[1].Name)
	assert.Equal(t, ScopeCluster, descriptors[1].Scope)

	named, err := p.FetchCRDObjects(context.Background(), CRDSelector{Names: []string{"buckets.storage.example.com"}})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "Bucket", named[0].Kind)
}

func TestCRDDataProviderLabelSelector(t *testing.T) {
	labelled := fake.CRD(fake.CRDSpec{
		Group: "example.com", Kind: "Database", Plural: "databases", Versions: []string{"v1"},
		Labels: map[string]string{"catalog": "true"},
	})
	unlabelled := fake.CRD(fake.CRDSpec{Group: "example.com", Kind: "Cache", Plural: "caches", Versions: []string{"v1"}})

	f := fake.NewFetcher("prod").Add("prod", CRDPath, labelled, unlabelled)
	p, err := NewCRDDataProvider(testOptions(f))
	require.NoError(t, err)

	descriptors, err := p.FetchCRDObjects(context.Background(), CRDSelector{LabelSelector: "catalog=true"})
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "Database", descriptors[0].Kind)
}

func TestCRDDataProviderIsolatesClusterFailures(t *testing.T) {
	f := fake.NewFetcher("broken", "prod").
		FailList("broken", CRDPath, errors.New("connection refused")).
		Add("prod", CRDPath, fake.CRD(fake.CRDSpec{Group: "example.com", Kind: "Database", Plural: "databases", Versions: []string{"v1"}}))

	p, err := NewCRDDataProvider(testOptions(f))
	require.NoError(t, err)

	descriptors, err := p.FetchCRDObjects(context.Background(), CRDSelector{})
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, []string{"prod"}, descriptors[0].Clusters)
}

func TestCRDDataProviderClusterDiscoveryFailure(t *testing.T) {
	f := fake.NewFetcher().FailListClusters(errors.New("no kubeconfig"))

	p, err := NewCRDDataProvider(testOptions(f))
	require.NoError(t, err)

	_, err = p.FetchCRDObjects(context.Background(), CRDSelector{})
	require.Error(t, err)
}

func TestCRDDataProviderAllowList(t *testing.T) {
	f := fake.NewFetcher("prod", "staging").
		Add("staging", CRDPath, fake.CRD(fake.CRDSpec{Group: "example.com", Kind: "Database", Plural: "databases", Versions: []string{"v1"}}))

	opts := testOptions(f)
	opts.Clusters = []string{"prod"}
	p, err := NewCRDDataProvider(opts)
	require.NoError(t, err)

	descriptors, err := p.FetchCRDObjects(context.Background(), CRDSelector{})
	require.NoError(t, err)
	assert.Empty(t, descriptors)
	assert.Equal(t, 0, f.Calls("list", "staging", CRDPath))
}

func TestCRDMapping(t *testing.T) {
	f := fake.NewFetcher("prod", "staging").
		Add("prod", CRDPath, fake.CRD(fake.CRDSpec{Group: "example.com", Kind: "Database", Plural: "databases", Versions: []string{"v1"}})).
		Add("staging", CRDPath, fake.CRD(fake.CRDSpec{Group: "example.org", Kind: "Queue", Plural: "queues", Versions: []string{"v1"}}))

	p, err := NewCRDDataProvider(testOptions(f))
	require.NoError(t, err)

	descriptors, err := p.FetchCRDObjects(context.Background(), CRDSelector{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Database": "databases", "Queue": "queues"}, CRDMapping(descriptors))
}

func TestXRDDataProviderFetchXRDObjects(t *testing.T) {
	legacy := fake.XRD(fake.XRDSpec{
		Group: "platform.example.com", Kind: "XDatabase", Plural: "xdatabases",
		ClaimKind: "Database", ClaimPlural: "databases", Versions: []string{"v1alpha1"},
	})
	v2 := fake.XRD(fake.XRDSpec{
		Group: "platform.example.com", Kind: "App", Plural: "apps", Scope: "Namespaced", Versions: []string{"v1", "v1beta1"},
	})
	noVersions := fake.XRD(fake.XRDSpec{Group: "platform.example.com", Kind: "Empty", Plural: "empties"})

	f := fake.NewFetcher("prod").
		Add("prod", XRDPath, legacy, v2, noVersions).
		Add("prod", CompositionPath,
			fake.Composition("xdatabase-aws", "platform.example.com/v1alpha1", "XDatabase", "function-patch-and-transform", "function-auto-ready"),
			fake.Composition("xdatabase-gcp", "platform.example.com/v1alpha1", "XDatabase"),
			fake.Composition("app-default", "platform.example.com/v1", "App"),
		).
		Add("prod", CRDPath, fake.CRD(fake.CRDSpec{
			Group: "platform.example.com", Kind: "XDatabase", Plural: "xdatabases", Versions: []string{"v1alpha1"},
		}))

	p, err := NewXRDDataProvider(testOptions(f))
	require.NoError(t, err)

	descriptors, err := p.FetchXRDObjects(context.Background())
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	xdb := descriptors[0]
	assert.Equal(t, SourceXRD, xdb.Source)
	assert.False(t, xdb.IsV2)
	assert.True(t, xdb.IsLegacy())
	assert.Equal(t, ScopeLegacyCluster, xdb.Scope)
	require.NotNil(t, xdb.ClaimNames)
	assert.Equal(t, ClaimNames{Kind: "Database", Plural: "databases"}, *xdb.ClaimNames)
	assert.Equal(t, []string{"xdatabase-aws", "xdatabase-gcp"}, xdb.Compositions)
	require.NotNil(t, xdb.GeneratedCRD)
	assert.Equal(t, "xdatabases.platform.example.com", xdb.GeneratedCRD.Name)

	app := descriptors[1]
	assert.True(t, app.IsV2)
	assert.False(t, app.IsLegacy())
	assert.Equal(t, ScopeNamespaced, app.Scope)
	assert.True(t, app.Namespaced())
	assert.Nil(t, app.ClaimNames)
	assert.Equal(t, []string{"app-default"}, app.Compositions)
	assert.Nil(t, app.GeneratedCRD)
	assert.Equal(t, "v1", app.StorageVersion().Name)
}

func TestFetchCompositions(t *testing.T) {
	f := fake.NewFetcher("prod").Add("prod", CompositionPath,
		fake.Composition("xdatabase-aws", "platform.example.com/v1alpha1", "XDatabase", "function-go-templating", "function-auto-ready"))

	compositions, err := FetchCompositions(context.Background(), f, "prod")
	require.NoError(t, err)
	require.Len(t, compositions, 1)
	assert.Equal(t, Composition{
		Name:           "xdatabase-aws",
		CompositeGroup: "platform.example.com",
		CompositeKind:  "XDatabase",
		Functions:      []string{"function-go-templating", "function-auto-ready"},
	}, compositions[0])
}

func TestRGDDataProviderFetchRGDObjects(t *testing.T) {
	generated := fake.CRD(fake.CRDSpec{
		Group: "kro.run", Kind: "WebApp", Plural: "webapps", Namespaced: true, Versions: []string{"v1alpha1"},
		Labels: map[string]string{LabelRGDID: "rgd-uid-1"},
	})

	f := fake.NewFetcher("prod").
		Add("prod", RGDPath,
			fake.RGD("webapp", "rgd-uid-1", "", "v1alpha1", "WebApp", RGDStateActive),
			fake.RGD("inactive", "rgd-uid-2", "", "v1alpha1", "Inactive", "Inactive"),
			fake.RGD("orphan", "rgd-uid-3", "example.com", "v1", "Orphan", RGDStateActive),
		).
		Add("prod", CRDPath, generated)

	p, err := NewRGDDataProvider(testOptions(f))
	require.NoError(t, err)

	descriptors, err := p.FetchRGDObjects(context.Background())
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	d := descriptors[0]
	assert.Equal(t, SourceRGD, d.Source)
	assert.Equal(t, "webapp", d.Name)
	assert.Equal(t, "rgd-uid-1", d.UID)
	assert.Equal(t, map[string]string{"prod": "rgd-uid-1"}, d.ClusterUIDs)
	assert.Equal(t, DefaultKROGroup, d.Group)
	assert.Equal(t, "WebApp", d.Kind)
	assert.Equal(t, "webapps", d.Plural)
	assert.Equal(t, ScopeNamespaced, d.Scope)
	require.NotNil(t, d.GeneratedCRD)
}
