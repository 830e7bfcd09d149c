package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bxl-digital/compare-cli/internal/compare"
	"github.com/bxl-digital/compare-cli/internal/registry"
	"github.com/bxl-digital/compare-cli/pkg/backend"
)

var (
	fetchUserID  string
	fetchModelID string
	fetchCar     string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Pull a saved comparison from the backend and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("backend"); err != nil {
			return err
		}
		ctx := cmd.Context()

		client := newBackendClient()
		payload, err := client.GetComparison(ctx, fetchUserID, fetchModelID)
		if err != nil {
			return err
		}

		ds, err := backend.Flatten(payload, registry.Default())
		if err != nil {
			return err
		}
		zap.L().Info("fetched comparison",
			zap.String("model", payload.Model),
			zap.Int("cars", len(ds.Cars)),
			zap.Int("sources", ds.ActiveSources()))

		car, err := pickCar(ds, fetchCar)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		builder := compare.NewBuilder(st)
		rows, err := builder.BuildRows(ctx, ds, car)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), car)
		fmt.Fprintln(cmd.OutOrStdout(), renderRows(rows, ds.SourceNames))
		fmt.Fprintln(cmd.OutOrStdout(), renderMetrics(compare.Aggregate(rows, ds.ActiveSources()), ds.SourceNames))
		return nil
	},
}

// newBackendClient builds an API client from the loaded config.
func newBackendClient() backend.Client {
	return backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token,
		backend.WithHTTPClient(httpClientWithTimeout(cfg.Backend.TimeoutSecs)),
		backend.WithRateLimit(cfg.Backend.RatePerSecond),
		backend.WithMaxRetries(cfg.Backend.MaxRetries),
	)
}

func httpClientWithTimeout(secs int) *http.Client {
	return &http.Client{Timeout: time.Duration(secs) * time.Second}
}

func init() {
	fetchCmd.Flags().StringVar(&fetchUserID, "user", "", "backend user id")
	fetchCmd.Flags().StringVar(&fetchModelID, "model", "", "backend model id")
	fetchCmd.Flags().StringVar(&fetchCar, "car", "", "car to display (default: the only one)")
	fetchCmd.MarkFlagRequired("user")
	fetchCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(fetchCmd)
}
