package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bxl-digital/compare-cli/internal/compare"
	"github.com/bxl-digital/compare-cli/internal/ingest"
	"github.com/bxl-digital/compare-cli/internal/registry"
	"github.com/bxl-digital/compare-cli/pkg/backend"
)

var (
	pushFiles   []string
	pushCar     string
	pushCountry string
	pushBrand   string
	pushModel   string
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload one car's consolidated comparison to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("backend"); err != nil {
			return err
		}
		if pushCountry == "" || pushBrand == "" || pushModel == "" {
			return eris.New("push requires --country, --brand and --model")
		}
		ctx := cmd.Context()

		ds, err := ingest.LoadPaths(ctx, pushFiles)
		if err != nil {
			return err
		}
		car, err := pickCar(ds, pushCar)
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

		payload := backend.BuildSavePayload(pushCountry, pushBrand, pushModel, rows, registry.Default())
		if err := newBackendClient().SaveComparison(ctx, payload); err != nil {
			return err
		}

		zap.L().Info("pushed comparison",
			zap.String("car", car),
			zap.String("country", pushCountry),
			zap.String("brand", pushBrand),
			zap.String("model", pushModel),
			zap.Int("features", len(rows)))
		return nil
	},
}

func init() {
	pushCmd.Flags().StringSliceVar(&pushFiles, "files", nil, "3 or 4 source files (csv/xlsx)")
	pushCmd.Flags().StringVar(&pushCar, "car", "", "car to upload (default: the only one)")
	pushCmd.Flags().StringVar(&pushCountry, "country", "", "country name")
	pushCmd.Flags().StringVar(&pushBrand, "brand", "", "brand name")
	pushCmd.Flags().StringVar(&pushModel, "model", "", "model name")
	pushCmd.MarkFlagRequired("files")
	rootCmd.AddCommand(pushCmd)
}
