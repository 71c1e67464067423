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

package entityprovider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/catalog"
	"k8c.io/catalog-ingestor/internal/pkg/metrics"
	catalogv1alpha1 "k8c.io/catalog-ingestor/pkg/apis/catalog/v1alpha1"

	"k8s.io/apimachinery/pkg/util/wait"
	"sigs.k8s.io/controller-runtime/pkg/manager"
)

// ErrRunTimeout is returned by RunOnce when a run exceeds its timeout.
var ErrRunTimeout = errors.New("run exceeded its timeout")

// Runner runs a Provider periodically and publishes its records.
type Runner struct {
	log       *zap.SugaredLogger
	provider  Provider
	conn      catalog.Connection
	frequency time.Duration
	timeout   time.Duration
}

var (
	_ manager.Runnable               = &Runner{}
	_ manager.LeaderElectionRunnable = &Runner{}
)

func NewRunner(log *zap.SugaredLogger, provider Provider, conn catalog.Connection, frequency, timeout time.Duration) *Runner {
	return &Runner{
		log:       log.With("provider", provider.Name()),
		provider:  provider,
		conn:      conn,
		frequency: frequency,
		timeout:   timeout,
	}
}

func (r *Runner) Name() string {
	return r.provider.Name()
}

// LocationKey is the location all records of the runner are published
// under.
func (r *Runner) LocationKey() string {
	return "provider:" + r.provider.Name()
}

// Start runs the provider immediately and then every frequency until ctx
// is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.log.Infow("Starting entity provider", "frequency", r.frequency, "timeout", r.timeout)

	wait.UntilWithContext(ctx, func(ctx context.Context) {
		if err := r.RunOnce(ctx); err != nil {
			r.log.Errorw("Entity provider run failed, previously published records are kept", "error", err)
		}
	}, r.frequency)

	r.log.Info("Stopped entity provider")
	return nil
}

// NeedLeaderElection makes only the leader publish records.
func (r *Runner) NeedLeaderElection() bool {
	return true
}

// RunOnce computes the records and applies them as one full mutation.
// Nothing is published if computing the records fails or takes longer
// than the timeout.
func (r *Runner) RunOnce(ctx context.Context) error {
	name := r.provider.Name()
	started := time.Now()

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	entities, err := r.provider.Entities(runCtx)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		metrics.ObserveRun(name, metrics.ResultTimeout, started)
		return fmt.Errorf("%w of %s", ErrRunTimeout, r.timeout)
	}
	if err != nil {
		metrics.ObserveRun(name, metrics.ResultError, started)
		return fmt.Errorf("failed to compute records: %w", err)
	}

	if err := r.conn.ApplyMutation(runCtx, r.mutation(entities)); err != nil {
		metrics.ObserveRun(name, metrics.ResultError, started)
		return fmt.Errorf("failed to apply mutation: %w", err)
	}

	metrics.Entities.WithLabelValues(name).Set(float64(len(entities)))
	metrics.ObserveRun(name, metrics.ResultSuccess, started)
	r.log.Infow("Published records", "records", len(entities), "duration", time.Since(started).String())
	return nil
}

func (r *Runner) mutation(entities []catalogv1alpha1.Entity) catalog.Mutation {
	key := r.LocationKey()

	m := catalog.Mutation{
		Type:     catalog.MutationFull,
		Entities: make([]catalog.DeferredEntity, 0, len(entities)),
	}
	for _, e := range entities {
		annotations := make(map[string]string, len(e.Metadata.Annotations)+2)
		for k, v := range e.Metadata.Annotations {
			annotations[k] = v
		}
		annotations[catalogv1alpha1.AnnotationManagedByLocation] = key
		annotations[catalogv1alpha1.AnnotationManagedByOriginLocation] = key
		e.Metadata.Annotations = annotations

		m.Entities = append(m.Entities, catalog.DeferredEntity{Entity: e, LocationKey: key})
	}
	return m
}
