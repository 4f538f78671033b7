/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/pkgw/dasch-science-lambda/internal/metastore"
	"github.com/pkgw/dasch-science-lambda/internal/querycatsvc"
	"github.com/pkgw/dasch-science-lambda/pkg/skybin"
)

/*****************************************************************************************************************/

var (
	querycatRefcat string
	querycatRA     float64
	querycatDec    float64
	querycatRadius float64
)

/*****************************************************************************************************************/

var querycatCommand = &cobra.Command{
	Use:   "querycat",
	Short: "cone-search a reference catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := metastore.OpenSQLiteStore(dbPath)
		if err != nil {
			return fmt.Errorf("opening sqlite mirror %q: %w", dbPath, err)
		}

		bin64, err := skybin.NewBin64()
		if err != nil {
			return err
		}

		svc := &querycatsvc.Service{Store: store, Bin64: bin64}

		rows, err := svc.Handle(context.Background(), []byte(fmt.Sprintf(
			`{"refcat":%q,"ra_deg":%s,"dec_deg":%s,"radius_arcsec":%s}`,
			querycatRefcat, formatFloat(querycatRA), formatFloat(querycatDec), formatFloat(querycatRadius),
		)))
		if err != nil {
			return err
		}

		for _, row := range rows.([]string) {
			fmt.Println(row)
		}

		return nil
	},
}

/*****************************************************************************************************************/

func init() {
	querycatCommand.Flags().StringVar(&querycatRefcat, "refcat", "", "reference catalog: apass or atlas")
	querycatCommand.Flags().Float64Var(&querycatRA, "ra", math.NaN(), "right ascension in degrees")
	querycatCommand.Flags().Float64Var(&querycatDec, "dec", math.NaN(), "declination in degrees")
	querycatCommand.Flags().Float64Var(&querycatRadius, "radius", math.NaN(), "search radius in arcseconds")
	querycatCommand.MarkFlagRequired("refcat")
	querycatCommand.MarkFlagRequired("ra")
	querycatCommand.MarkFlagRequired("dec")
	querycatCommand.MarkFlagRequired("radius")
}

/*****************************************************************************************************************/
