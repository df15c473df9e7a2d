package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/cost-sentinel/pkg/services/config"
	"github.com/de-tools/cost-sentinel/pkg/services/costquery"
	"github.com/de-tools/cost-sentinel/pkg/services/discovery"
	"github.com/de-tools/cost-sentinel/pkg/services/lowusage"
	"github.com/de-tools/cost-sentinel/pkg/services/metrics"
	"github.com/de-tools/cost-sentinel/pkg/services/monitor"
	"github.com/de-tools/cost-sentinel/pkg/store/postgres"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the Azure cost and usage monitoring pipeline once",
		RunE:  run,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return fmt.Errorf("failed to acquire Azure credentials: %w", err)
	}

	costClient, err := armcostmanagement.NewQueryClient(cred, nil)
	if err != nil {
		return fmt.Errorf("failed to create cost management client: %w", err)
	}
	metricsClient, err := armmonitor.NewMetricsClient(cred, nil)
	if err != nil {
		return fmt.Errorf("failed to create monitor metrics client: %w", err)
	}
	resourcesClient, err := armresources.NewClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return fmt.Errorf("failed to create resources client: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close database connection")
		}
	}()

	store, err := postgres.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create monitoring store: %w", err)
	}

	explorer := costquery.NewExplorer(costClient, cfg.Scope)
	discoverer := discovery.NewExplorer(func() discovery.ResourcePager {
		return resourcesClient.NewListPager(nil)
	}, cfg.MaxResources)
	fetcher := metrics.NewFetcher(metricsClient)
	classifier := lowusage.NewClassifier(discoverer, fetcher, cfg.MaxMetricsPerResource)

	runner := monitor.NewRunner(explorer, classifier, store, monitor.Config{
		TagKeys:       cfg.TagKeys,
		RetentionDays: cfg.RetentionDays,
	})

	logger.Info().Str("scope", cfg.Scope).Msg("starting monitoring run")
	return runner.Run(ctx)
}
