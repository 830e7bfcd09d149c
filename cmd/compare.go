package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bxl-digital/compare-cli/internal/compare"
	"github.com/bxl-digital/compare-cli/internal/ingest"
	"github.com/bxl-digital/compare-cli/internal/model"
)

var (
	compareFiles []string
	compareCar   string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Reconcile source files and print the comparison table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("local"); err != nil {
			return err
		}
		ctx := cmd.Context()

		ds, err := ingest.LoadPaths(ctx, compareFiles)
		if err != nil {
			return err
		}

		car, err := pickCar(ds, compareCar)
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

		zap.L().Info("comparison built",
			zap.String("car", car),
			zap.Int("features", len(rows)),
			zap.Int("sources", ds.ActiveSources()))

		fmt.Fprintln(cmd.OutOrStdout(), car)
		fmt.Fprintln(cmd.OutOrStdout(), renderRows(rows, ds.SourceNames))
		fmt.Fprintln(cmd.OutOrStdout(), renderMetrics(compare.Aggregate(rows, ds.ActiveSources()), ds.SourceNames))
		return nil
	},
}

// pickCar resolves the selected car, defaulting to the only one when the
// dataset has exactly one.
func pickCar(ds *model.Dataset, requested string) (string, error) {
	if requested != "" {
		if _, ok := ds.FeatureOrder[requested]; !ok {
			return "", eris.Errorf("car %q not in dataset (have %v)", requested, ds.Cars)
		}
		return requested, nil
	}
	if len(ds.Cars) == 1 {
		return ds.Cars[0], nil
	}
	return "", eris.Errorf("dataset has %d cars, pick one with --car (have %v)", len(ds.Cars), ds.Cars)
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareFiles, "files", nil, "3 or 4 source files (csv/xlsx)")
	compareCmd.Flags().StringVar(&compareCar, "car", "", "car to compare (default: the only one)")
	compareCmd.MarkFlagRequired("files")
	rootCmd.AddCommand(compareCmd)
}
