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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"k8c.io/catalog-ingestor/internal/controllers/entityprovider"

	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
	ctrlruntimeconfig "sigs.k8s.io/controller-runtime/pkg/client/config"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
)

func newRunCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the manager and run the enabled entity providers periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runManager(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.enableLeaderElection, "leader-elect", true, "Enable leader election so that only one replica publishes records")
	flags.StringVar(&opts.leaderElectionNS, "leader-election-namespace", "", "Namespace of the leader election lease; defaults to the in-cluster namespace")
	flags.StringVar(&opts.healthProbeAddress, "health-probe-address", "127.0.0.1:8085", "The address on which the liveness check on /healthz and readiness check on /readyz will be available")
	flags.StringVar(&opts.metricsAddress, "metrics-address", "127.0.0.1:8080", "The address on which Prometheus metrics will be available under /metrics")
	return cmd
}

func newClient() (ctrlruntimeclient.Client, error) {
	restConfig, err := ctrlruntimeconfig.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster config: %w", err)
	}
	return ctrlruntimeclient.New(restConfig, ctrlruntimeclient.Options{Scheme: scheme})
}

func runManager(ctx context.Context, opts *options) error {
	l, cfg, fetcher, err := setup(opts)
	if err != nil {
		return err
	}

	restConfig, err := ctrlruntimeconfig.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load cluster config: %w", err)
	}

	mgr, err := manager.New(restConfig, manager.Options{
		Scheme:                  scheme,
		LeaderElection:          opts.enableLeaderElection,
		LeaderElectionID:        "catalog-ingestor",
		LeaderElectionNamespace: opts.leaderElectionNS,
		HealthProbeBindAddress:  opts.healthProbeAddress,
		Metrics: metricsserver.Options{
			BindAddress: opts.metricsAddress,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create manager: %w", err)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("failed to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return fmt.Errorf("failed to set up ready check: %w", err)
	}

	err = entityprovider.Add(mgr, &entityprovider.ControllerConfig{
		Log:           l.Named("entity-provider"),
		Config:        cfg,
		Fetcher:       fetcher,
		NewConnection: connectionFactory(l, cfg, mgr.GetClient()),
	})
	if err != nil {
		return fmt.Errorf("failed to add entity providers: %w", err)
	}

	l.Infow("Starting manager", "sink", cfg.Catalog.Sink)

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start manager: %w", err)
	}
	return nil
}
