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
	"fmt"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/config"

	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// NewConnection returns the connection of a provider for the configured
// sink. client is only used by the ConfigMap sink.
func NewConnection(log *zap.SugaredLogger, cfg config.Catalog, client ctrlruntimeclient.Client, provider string) (Connection, error) {
	switch cfg.Sink {
	case config.SinkFile:
		return NewFileConnection(log, cfg.Directory, provider)
	case config.SinkConfigMap:
		return NewConfigMapConnection(log, client, cfg.Namespace, cfg.NamePrefix, provider)
	default:
		return nil, fmt.Errorf("unknown catalog sink %q", cfg.Sink)
	}
}
