/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/pkgw/dasch-science-lambda/internal/metastore"
	"github.com/pkgw/dasch-science-lambda/internal/queryexpssvc"
	"github.com/pkgw/dasch-science-lambda/pkg/skybin"
)

/*****************************************************************************************************************/

var (
	queryexpsRA  float64
	queryexpsDec float64
)

/*****************************************************************************************************************/

var queryexpsCommand = &cobra.Command{
	Use:   "queryexps",
	Short: "list the plate/exposure/solution footprints covering a sky point",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := metastore.OpenSQLiteStore(dbPath)
		if err != nil {
			return fmt.Errorf("opening sqlite mirror %q: %w", dbPath, err)
		}

		bin1, err := skybin.NewBin1()
		if err != nil {
			return err
		}

		svc := &queryexpssvc.Service{Store: store, Bin1: bin1}

		rows, err := svc.Handle(context.Background(), []byte(fmt.Sprintf(
			`{"ra_deg":%s,"dec_deg":%s}`,
			formatFloat(queryexpsRA), formatFloat(queryexpsDec),
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

func formatFloat(v float64) string {
	return fmt.Sprintf("%.10f", v)
}

/*****************************************************************************************************************/

func init() {
	queryexpsCommand.Flags().Float64Var(&queryexpsRA, "ra", math.NaN(), "right ascension in degrees")
	queryexpsCommand.Flags().Float64Var(&queryexpsDec, "dec", math.NaN(), "declination in degrees")
	queryexpsCommand.MarkFlagRequired("ra")
	queryexpsCommand.MarkFlagRequired("dec")
}

/*****************************************************************************************************************/
