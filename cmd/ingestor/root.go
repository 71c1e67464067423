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
	"go.uber.org/zap"

	"k8c.io/catalog-ingestor/internal/catalog"
	"k8c.io/catalog-ingestor/internal/config"
	"k8c.io/catalog-ingestor/internal/controllers/entityprovider"
	"k8c.io/catalog-ingestor/internal/pkg/kubernetes"
	cilog "k8c.io/catalog-ingestor/internal/pkg/log"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrlruntimeclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// version is set at build time.
var version = "dev"

var (
	scheme = runtime.NewScheme()
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
}

type options struct {
	configPath           string
	log                  cilog.Options
	enableLeaderElection bool
	leaderElectionNS     string
	healthProbeAddress   string
	metricsAddress       string
}

func newRootCommand() *cobra.Command {
	opts := &options{log: cilog.NewDefaultOptions()}

	cmd := &cobra.Command{
		Use:          "catalog-ingestor",
		Short:        "Publishes Kubernetes workloads and APIs as developer catalog records",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return opts.log.Validate()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path of the configuration file; defaults and INGESTOR_* environment variables are used when empty")
	opts.log.AddPFlags(flags)

	cmd.AddCommand(
		newRunCommand(opts),
		newOnceCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newOnceCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run every enabled entity provider once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), opts)
		},
	}
}

// setup loads the configuration and builds the logger and cluster fetcher
// shared by all commands.
func setup(opts *options) (*zap.SugaredLogger, *config.Config, *kubernetes.ClusterFetcher, error) {
	l := cilog.Setup(opts.log, version)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	fetcher, err := kubernetes.NewClusterFetcher(cfg.Kubeconfig)
	if err != nil {
		return nil, nil, nil, err
	}

	return l, cfg, fetcher, nil
}

func connectionFactory(log *zap.SugaredLogger, cfg *config.Config, client ctrlruntimeclient.Client) entityprovider.ConnectionFactory {
	return func(provider string) (catalog.Connection, error) {
		return catalog.NewConnection(log.Named("catalog"), cfg.Catalog, client, provider)
	}
}

func runOnce(ctx context.Context, opts *options) error {
	l, cfg, fetcher, err := setup(opts)
	if err != nil {
		return err
	}

	var client ctrlruntimeclient.Client
	if cfg.Catalog.Sink == config.SinkConfigMap {
		if client, err = newClient(); err != nil {
			return err
		}
	}

	runners, err := entityprovider.NewRunners(&entityprovider.ControllerConfig{
		Log:           l.Named("entity-provider"),
		Config:        cfg,
		Fetcher:       fetcher,
		NewConnection: connectionFactory(l, cfg, client),
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range runners {
		if err := r.RunOnce(ctx); err != nil {
			l.Errorw("Entity provider run failed", "provider", r.Name(), "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d entity providers failed", failed, len(runners))
	}

	l.Infow("All entity providers completed", "providers", len(runners))
	return nil
}
