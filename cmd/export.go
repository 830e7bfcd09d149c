package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bxl-digital/compare-cli/internal/compare"
	"github.com/bxl-digital/compare-cli/internal/export"
	"github.com/bxl-digital/compare-cli/internal/ingest"
	"github.com/bxl-digital/compare-cli/internal/model"
)

var (
	exportFiles  []string
	exportCar    string
	exportAll    bool
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the consolidated final values to CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("local"); err != nil {
			return err
		}
		if exportFormat != "csv" && exportFormat != "xlsx" {
			return eris.Errorf("unsupported format %q, want csv or xlsx", exportFormat)
		}
		if !exportAll && exportCar == "" {
			return eris.New("pick --car or --all")
		}
		ctx := cmd.Context()

		ds, err := ingest.LoadPaths(ctx, exportFiles)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		builder := compare.NewBuilder(st)
		now := time.Now()

		if exportAll {
			return writeAllCars(ctx, ds, builder, now)
		}

		if _, ok := ds.FeatureOrder[exportCar]; !ok {
			return eris.Errorf("car %q not in dataset (have %v)", exportCar, ds.Cars)
		}
		rows, err := builder.BuildRows(ctx, ds, exportCar)
		if err != nil {
			return err
		}

		path := filepath.Join(exportOut, export.CarFilename(exportCar, exportFormat, now))
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "export: create file")
		}
		defer f.Close()

		if exportFormat == "xlsx" {
			err = export.CarXLSX(f, rows)
		} else {
			err = export.CarCSV(f, rows)
		}
		if err != nil {
			return err
		}
		zap.L().Info("exported car", zap.String("car", exportCar), zap.String("path", path))
		return nil
	},
}

func writeAllCars(ctx context.Context, ds *model.Dataset, builder *compare.Builder, now time.Time) error {
	resolve := func(car, feature string) (string, error) {
		return builder.FinalValue(ctx, ds, car, feature)
	}

	path := filepath.Join(exportOut, export.AllCarsFilename(exportFormat, now))
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close()

	if exportFormat == "xlsx" {
		err = export.AllCarsXLSX(f, ds.Cars, ds.FeatureOrder, resolve)
	} else {
		err = export.AllCarsCSV(f, ds.Cars, ds.FeatureOrder, resolve)
	}
	if err != nil {
		return err
	}
	zap.L().Info("exported all cars", zap.Int("cars", len(ds.Cars)), zap.String("path", path))
	return nil
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportFiles, "files", nil, "3 or 4 source files (csv/xlsx)")
	exportCmd.Flags().StringVar(&exportCar, "car", "", "export one car's final data")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export all cars side by side")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "output directory")
	exportCmd.MarkFlagRequired("files")
	rootCmd.AddCommand(exportCmd)
}
