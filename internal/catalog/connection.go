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

// Package catalog publishes generated records. A Connection is bound to
// one entity provider and replaces everything that provider published
// before on every full mutation.
package catalog

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

var (
	ErrEmptyLocationKey    = errors.New("location key must not be empty")
	ErrUnsupportedMutation = errors.New("unsupported mutation type")
	ErrEmptyProvider       = errors.New("provider must not be empty")
)

type MutationType string

const MutationFull MutationType = "full"

// DeferredEntity is a record together with the location it is published
// under.
type DeferredEntity struct {
	Entity      catalogv1alpha1.Entity
	LocationKey string
}

// Mutation is a change of the records published by a provider.
type Mutation struct {
	Type     MutationType
	Entities []DeferredEntity
}

// Connection publishes the records of one provider.
type Connection interface {
	ApplyMutation(ctx context.Context, m Mutation) error
}

// groupByLocation validates m and groups its records by location key.
// The keys are returned in sorted order.
func groupByLocation(m Mutation) ([]string, map[string][]catalogv1alpha1.Entity, error) {
	if m.Type != MutationFull {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedMutation, m.Type)
	}

	groups := map[string][]catalogv1alpha1.Entity{}
	for _, e := range m.Entities {
		if e.LocationKey == "" {
			return nil, nil, fmt.Errorf("%w: %s", ErrEmptyLocationKey, e.Entity.Ref())
		}
		groups[e.LocationKey] = append(groups[e.LocationKey], e.Entity)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups, nil
}

// EncodeEntities renders records as a YAML stream.
func EncodeEntities(entities []catalogv1alpha1.Entity) ([]byte, error) {
	var buf bytes.Buffer
	for i := range entities {
		raw, err := yaml.Marshal(&entities[i])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", entities[i].Ref(), err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// DecodeEntities parses a YAML stream written by EncodeEntities.
func DecodeEntities(data []byte) ([]catalogv1alpha1.Entity, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(data)))

	var out []catalogv1alpha1.Entity
	for {
		doc, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}

		var e catalogv1alpha1.Entity
		if err := yaml.Unmarshal(doc, &e); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		out = append(out, e)
	}
}

var invalidNameChars = regexp.MustCompile(`[^a-z0-9.-]+`)

// objectName turns a provider name or location key into a string usable
// in file and object names.
func objectName(s string) string {
	return strings.Trim(invalidNameChars.ReplaceAllString(strings.ToLower(s), "-"), "-.")
}
