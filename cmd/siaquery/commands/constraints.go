package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugr-lab/sia-go/param"
)

var axisUsage = map[param.Axis]string{
	param.Pos:        `Position in deg: "CIRCLE ra dec r", "RANGE ra1 ra2 dec1 dec2" or "POLYGON ra1 dec1 ra2 dec2 ..."`,
	param.Band:       `Wavelength interval "lo hi" in m`,
	param.Time:       `Time interval "lo hi" in MJD`,
	param.Pol:        "Polarization state (I, Q, U, V, RR, LL, ...)",
	param.FOV:        `Field of view interval "lo hi" in deg`,
	param.SpatRes:    `Spatial resolution interval "lo hi" in arcsec`,
	param.SpecRP:     `Spectral resolving power interval "lo hi"`,
	param.ExpTime:    `Exposure time interval "lo hi" in s`,
	param.TimeRes:    `Time resolution interval "lo hi" in s`,
	param.ID:         "Publisher dataset identifier",
	param.Facility:   "Facility name",
	param.Collection: "Collection name",
	param.Instrument: "Instrument name",
	param.DataType:   "Data product type (image, cube)",
	param.Calib:      "Calibration level, 0 to 4",
	param.Target:     "Target name",
	param.Format:     "Data format MIME type",
}

// constraintFlags holds one repeatable flag per query axis. Repeated
// values of a flag are OR-ed by the service.
type constraintFlags struct {
	axes   map[param.Axis]*[]string
	maxRec int
}

func addConstraintFlags(cmd *cobra.Command) *constraintFlags {
	c := &constraintFlags{axes: make(map[param.Axis]*[]string)}
	for _, a := range param.Axes() {
		vals := new([]string)
		c.axes[a] = vals
		cmd.Flags().StringArrayVar(vals, flagName(a), nil, axisUsage[a])
	}
	cmd.Flags().IntVar(&c.maxRec, "maxrec", 0, "Maximum number of records to return")
	return c
}

func flagName(a param.Axis) string {
	return strings.ToLower(param.KeywordFor(a))
}

// Values returns the flags in wire order.
func (c *constraintFlags) Values() param.Values {
	var out param.Values
	for _, a := range param.Axes() {
		if vals := *c.axes[a]; len(vals) > 0 {
			out = append(out, param.Entry{Keyword: param.KeywordFor(a), Values: vals})
		}
	}
	if c.maxRec != 0 {
		out = append(out, param.Entry{Keyword: param.MaxRecKeyword, Values: []string{strconv.Itoa(c.maxRec)}})
	}
	return out
}

// Registry validates the flags.
func (c *constraintFlags) Registry() (*param.Registry, error) {
	return param.ParseValues(c.Values())
}
