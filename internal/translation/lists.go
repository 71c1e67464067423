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

	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	utiljson "k8s.io/apimachinery/pkg/util/json"
)

// SplitList splits a comma or newline separated annotation value. Entries
// are trimmed and empty entries dropped; the order is kept.
func SplitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParseKeyValues parses a list of "key=value" entries as accepted by
// SplitList. Entries without "=" or with an empty key are ignored.
func ParseKeyValues(value string) map[string]string {
	out := map[string]string{}
	for _, entry := range SplitList(value) {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// ParseLinks decodes a JSON array of links.
func ParseLinks(value string) ([]catalogv1alpha1.Link, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	var links []catalogv1alpha1.Link
	if err := utiljson.Unmarshal([]byte(value), &links); err != nil {
		return nil, err
	}

	out := links[:0]
	for _, l := range links {
		if l.URL != "" {
			out = append(out, l)
		}
	}
	return out, nil
}
