package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugr-lab/sia-go/adql"
)

// ADQLCmd prints the ObsTAP query equivalent to a search.
var ADQLCmd = &cobra.Command{
	Use:   "adql",
	Short: "Translate search constraints into ADQL",
	Long: `Translate search constraints into an ADQL query over an ObsCore table,
for services that only offer TAP.`,
	Args: cobra.NoArgs,
	RunE: runADQL,
}

var (
	adqlConstraints *constraintFlags
	adqlTable       string
	adqlColumns     []string
	adqlMapping     map[string]string
)

func init() {
	adqlConstraints = addConstraintFlags(ADQLCmd)
	ADQLCmd.Flags().StringVar(&adqlTable, "table", adql.DefaultTable, "ObsCore table name")
	ADQLCmd.Flags().StringSliceVar(&adqlColumns, "select", nil, "Selected columns (default *)")
	ADQLCmd.Flags().StringToStringVar(&adqlMapping, "map", nil, "Column renames, obscore=actual")
}

func runADQL(cmd *cobra.Command, _ []string) error {
	reg, err := adqlConstraints.Registry()
	if err != nil {
		return err
	}
	if ignored := reg.Ignored(); len(ignored) > 0 {
		logger.Warn("Ignoring unknown keywords", "keywords", ignored)
	}

	enc := adql.NewEncoder(&adql.Options{
		Table:         adqlTable,
		Columns:       adqlColumns,
		ColumnMapping: adqlMapping,
	})
	_, err = fmt.Fprintln(cmd.OutOrStdout(), enc.Encode(reg))
	return err
}
