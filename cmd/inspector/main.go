// Command inspector queries the audit store from the terminal using the same
// services as the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imannovv/gravitee-audit/internal/config"
	"github.com/imannovv/gravitee-audit/internal/pkg/logger"
	"github.com/imannovv/gravitee-audit/internal/query"
	"github.com/imannovv/gravitee-audit/internal/repository"
	"github.com/imannovv/gravitee-audit/internal/service"
	"github.com/spf13/cobra"
)

var (
	configFile string
	auditLimit int64
	auditUser  string
	auditEvent string
)

type services struct {
	store     repository.Backend
	audits    *service.AuditService
	aggregate *service.AggregateService
	directory *service.DirectoryService
}

func open(ctx context.Context) (*services, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, "text")

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	resolver := service.NewResolver(store)
	enricher := service.NewEnricher(resolver, cfg.Enrichment.Concurrency)
	return &services{
		store:     store,
		audits:    service.NewAuditService(store, service.NewFilterBuilder(store), enricher),
		aggregate: service.NewAggregateService(store, resolver, enricher),
		directory: service.NewDirectoryService(store, resolver, cfg.Enrichment.Concurrency),
	}, nil
}

// withServices opens the store for one command and closes it afterwards.
func withServices(fn func(ctx context.Context, s *services) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := open(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.store.Close(context.Background()) }()

		out, err := fn(ctx, s)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}

var rootCmd = &cobra.Command{
	Use:           "inspector",
	Short:         "Inspect Gravitee audit data from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Print document counts per collection",
	Args:  cobra.NoArgs,
	RunE: withServices(func(ctx context.Context, s *services) (any, error) {
		counts := map[string]int64{}
		for _, c := range []repository.Collection{repository.Audits, repository.Users, repository.APIs, repository.Applications} {
			n, err := s.store.Count(ctx, c, query.MatchAll{})
			if err != nil {
				return nil, fmt.Errorf("count %s: %w", c, err)
			}
			counts[string(c)] = n
		}
		return counts, nil
	}),
}

var auditsCmd = &cobra.Command{
	Use:   "audits",
	Short: "List the newest audit records",
	Args:  cobra.NoArgs,
	RunE: withServices(func(ctx context.Context, s *services) (any, error) {
		return s.audits.List(ctx, service.AuditFilterParams{User: auditUser, Event: auditEvent}, service.Page{Limit: auditLimit})
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard statistics",
	Args:  cobra.NoArgs,
	RunE: withServices(func(ctx context.Context, s *services) (any, error) {
		return s.aggregate.Stats(ctx)
	}),
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Print critical events of the last 24 hours",
	Args:  cobra.NoArgs,
	RunE: withServices(func(ctx context.Context, s *services) (any, error) {
		return s.aggregate.Alerts(ctx)
	}),
}

var appCmd = &cobra.Command{
	Use:   "app <id>",
	Short: "Show one application with its resolved owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(ctx context.Context, s *services) (any, error) {
			return s.directory.Application(ctx, args[0])
		})(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: ./config.yaml or ./configs/config.yaml)")

	auditsCmd.Flags().Int64Var(&auditLimit, "limit", 20, "Maximum number of records")
	auditsCmd.Flags().StringVar(&auditUser, "user", "", "Filter by actor name, login or id")
	auditsCmd.Flags().StringVar(&auditEvent, "event", "", "Filter by event type")

	rootCmd.AddCommand(countsCmd, auditsCmd, statsCmd, alertsCmd, appCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
