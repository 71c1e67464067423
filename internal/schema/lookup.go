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
	"strings"

	"go.uber.org/zap"
)

// LookupKey identifies a defined resource by kind, group and version.
type LookupKey struct {
	Kind    string
	Group   string
	Version string
}

// Canonical returns the case-folded key used for all map accesses.
func (k LookupKey) Canonical() LookupKey {
	return LookupKey{
		Kind:    strings.ToLower(k.Kind),
		Group:   strings.ToLower(k.Group),
		Version: strings.ToLower(k.Version),
	}
}

func (k LookupKey) String() string {
	return k.Kind + "|" + k.Group + "|" + k.Version
}

// Collision records a key claimed by two different descriptors. The
// descriptor inserted first is kept.
type Collision struct {
	Key     LookupKey
	Kept    string
	Ignored string
}

// Lookup maps lookup keys to descriptors, ignoring case.
type Lookup struct {
	entries    map[LookupKey]*Descriptor
	collisions []Collision
}

func NewLookup() *Lookup {
	return &Lookup{entries: map[LookupKey]*Descriptor{}}
}

// Insert adds d under key. It returns false if the canonical key already
// points to a different descriptor; the existing entry is kept and the
// collision recorded.
func (l *Lookup) Insert(key LookupKey, d *Descriptor) bool {
	canonical := key.Canonical()

	if existing, ok := l.entries[canonical]; ok {
		if existing.Source == d.Source && existing.Name == d.Name {
			return true
		}
		l.collisions = append(l.collisions, Collision{Key: key, Kept: existing.Name, Ignored: d.Name})
		return false
	}

	l.entries[canonical] = d
	return true
}

// Get returns the descriptor for key, ignoring case.
func (l *Lookup) Get(key LookupKey) (*Descriptor, bool) {
	if l == nil {
		return nil, false
	}
	d, ok := l.entries[key.Canonical()]
	return d, ok
}

func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Collisions returns all keys that were claimed more than once.
func (l *Lookup) Collisions() []Collision {
	return l.collisions
}

// BuildCompositeKindLookup indexes XRD descriptors by composite kind,
// group and every declared version.
func BuildCompositeKindLookup(log *zap.SugaredLogger, descriptors []Descriptor) *Lookup {
	return buildLookup(log, descriptors, SourceXRD)
}

// BuildRGDLookup indexes RGD descriptors by instance kind, group and
// every declared version.
func BuildRGDLookup(log *zap.SugaredLogger, descriptors []Descriptor) *Lookup {
	return buildLookup(log, descriptors, SourceRGD)
}

func buildLookup(log *zap.SugaredLogger, descriptors []Descriptor, source Source) *Lookup {
	lookup := NewLookup()

	for i := range descriptors {
		d := &descriptors[i]
		if d.Source != source {
			continue
		}
		for _, v := range d.Versions {
			key := LookupKey{Kind: d.Kind, Group: d.Group, Version: v.Name}
			if !lookup.Insert(key, d) {
				existing, _ := lookup.Get(key)
				log.Warnw("Lookup key is defined by more than one object, keeping the first",
					"key", key.String(), "kept", existing.Name, "ignored", d.Name)
			}
		}
	}

	return lookup
}
