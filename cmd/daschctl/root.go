/*****************************************************************************************************************/

// Command daschctl is a local command-line harness for the three
// science handlers, useful for exercising them against a seeded
// offline sqlite mirror without standing up a Lambda deployment.
package main

/*****************************************************************************************************************/

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

/*****************************************************************************************************************/

var dbPath string

/*****************************************************************************************************************/

var rootCommand = &cobra.Command{
	Use:   "daschctl",
	Short: "daschctl drives the cutout/queryexps/querycat handlers from the command line.",
	Long:  "daschctl drives the cutout/queryexps/querycat handlers from the command line, against an offline sqlite mirror of the plate/refcat metadata store.",
}

/*****************************************************************************************************************/

func init() {
	rootCommand.PersistentFlags().StringVar(
		&dbPath,
		"db",
		"dasch.db",
		"path to the offline sqlite mirror of the plate/refcat metadata store",
	)

	rootCommand.AddCommand(cutoutCommand)
	rootCommand.AddCommand(queryexpsCommand)
	rootCommand.AddCommand(querycatCommand)
}

/*****************************************************************************************************************/

func main() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

/*****************************************************************************************************************/
