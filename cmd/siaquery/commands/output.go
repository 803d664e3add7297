package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	"github.com/hugr-lab/sia-go"
	"github.com/hugr-lab/sia-go/obscore"
	"github.com/hugr-lab/sia-go/table"
)

var defaultColumns = []string{
	obscore.ColObsID,
	obscore.ColDataType,
	obscore.ColCalibLevel,
	obscore.ColTargetName,
	obscore.ColRA,
	obscore.ColDec,
	obscore.ColTimeMin,
	obscore.ColExpTime,
	obscore.ColInstrument,
	obscore.ColAccessURL,
}

// writeResults renders res as a table or in one of the wire formats.
func writeResults(w io.Writer, res *sia.Results, output string, columns []string) error {
	if output == "table" {
		return renderTable(w, res, columns)
	}

	f, ok := table.FormatFor(output)
	if !ok {
		return errors.Newf("unknown output %q", output)
	}
	if err := table.Encode(w, f, res.Table()); err != nil {
		return errors.Wrap(err, "write results")
	}
	if res.Overflow() && f != table.FormatVOTable {
		pterm.Warning.Println("Results were truncated at MAXREC")
	}
	return nil
}

func renderTable(w io.Writer, res *sia.Results, columns []string) error {
	tbl := res.Table()

	var shown []string
	for _, c := range columns {
		if tbl.HasColumn(c) {
			shown = append(shown, c)
		}
	}

	data := [][]string{shown}
	for i := 0; i < tbl.NumRows(); i++ {
		row := make([]string, len(shown))
		for j, c := range shown {
			v, _ := tbl.Value(i, c)
			row[j] = formatCell(v)
		}
		data = append(data, row)
	}

	if len(shown) > 0 {
		if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
			return errors.Wrap(err, "render table")
		}
	}

	pterm.Info.Printfln("%d records from %s", res.Len(), res.QueryURL())
	if res.Overflow() {
		pterm.Warning.Println("Results were truncated at MAXREC; narrow the search or raise --maxrec")
	}
	return nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', 10, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
