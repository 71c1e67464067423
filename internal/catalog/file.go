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

package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	kerrors "k8s.io/apimachinery/pkg/util/errors"
)

const fileSuffix = ".yaml"

// FileConnection writes one YAML stream per location key into a
// directory. Files are replaced atomically.
type FileConnection struct {
	log      *zap.SugaredLogger
	dir      string
	provider string
}

var _ Connection = &FileConnection{}

func NewFileConnection(log *zap.SugaredLogger, dir, provider string) (*FileConnection, error) {
	if provider == "" {
		return nil, ErrEmptyProvider
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}
	return &FileConnection{log: log, dir: dir, provider: provider}, nil
}

func (c *FileConnection) prefix() string {
	return objectName(c.provider) + "_"
}

// Path returns the file the records of a location key are written to.
func (c *FileConnection) Path(locationKey string) string {
	return filepath.Join(c.dir, c.prefix()+objectName(locationKey)+fileSuffix)
}

func (c *FileConnection) ApplyMutation(_ context.Context, m Mutation) error {
	keys, groups, err := groupByLocation(m)
	if err != nil {
		return err
	}

	written := map[string]bool{}
	for _, key := range keys {
		data, err := EncodeEntities(groups[key])
		if err != nil {
			return err
		}
		path := c.Path(key)
		if err := writeFileAtomic(path, data); err != nil {
			return fmt.Errorf("failed to write records of %q: %w", key, err)
		}
		written[path] = true
		c.log.Debugw("Wrote records", "locationKey", key, "path", path, "records", len(groups[key]))
	}

	return c.prune(written)
}

// prune removes files of the provider that were not written by the last
// mutation.
func (c *FileConnection) prune(written map[string]bool) error {
	existing, err := filepath.Glob(filepath.Join(c.dir, c.prefix()+"*"+fileSuffix))
	if err != nil {
		return fmt.Errorf("failed to list catalog files: %w", err)
	}

	var errs []error
	for _, path := range existing {
		if written[path] {
			continue
		}
		c.log.Debugw("Removing stale records", "path", path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return kerrors.NewAggregate(errs)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
