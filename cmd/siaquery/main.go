package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hugr-lab/sia-go/cmd/siaquery/commands"
)

var rootCmd = &cobra.Command{
	Use:   "siaquery",
	Short: "Search astronomical image archives over SIA v2",
	Long: `siaquery searches Simple Image Access v2 services and serves ObsCore
tables as SIA v2 archives.

Available commands:
  search - Run an image search against an SIA v2 service or Flight archive
  adql   - Translate search constraints into an ObsTAP ADQL query
  serve  - Serve an ObsCore table over HTTP and Arrow Flight

Examples:
  siaquery search https://sia.example/v2 --pos "CIRCLE 10.68 41.27 0.1" --calib 2
  siaquery search grpc://localhost:8815/hst --band "5e-7 7e-7" --maxrec 20
  siaquery adql --collection HST --exptime "300 +Inf"
  siaquery serve --data obscore.csv --http :8080 --flight :8815`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: commands.LoadConfig,
}

func init() {
	commands.AddConfigFlags(rootCmd)

	rootCmd.AddCommand(commands.SearchCmd)
	rootCmd.AddCommand(commands.ADQLCmd)
	rootCmd.AddCommand(commands.ServeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
