// Package sia is a client for IVOA Simple Image Access v2 services.
//
// A search is built from typed constraints, one parameter per search axis.
// Values given for the same axis are OR-ed; different axes are AND-ed by the
// service. The result is an ObsCore table whose rows are exposed as Records
// with typed, unit-attached accessors.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "math"
//
//	    "github.com/hugr-lab/sia-go"
//	    "github.com/hugr-lab/sia-go/param"
//	)
//
//	func main() {
//	    ctx := context.Background()
//
//	    results, err := sia.Search(ctx, "https://archive.example.org/sia", sia.Constraints{
//	        Pos:        param.Circle{RA: 10.68, Dec: 41.27, Radius: 0.1},
//	        CalibLevel: []int{2, 3},
//	        ExpTime:    param.Interval{Lo: 30, Hi: math.Inf(1)},
//	        MaxRecords: 100,
//	    }, sia.ClientConfig{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer results.Release()
//
//	    for _, rec := range results.All() {
//	        id, _ := rec.ObsID()
//	        exp, _ := rec.ExpTime()
//	        fmt.Println(id, exp)
//	    }
//	}
//
// # Building Queries
//
// Constraints accepts, per axis, a single value or a slice of values; nil and
// empty values add nothing. The same constraints can be added after creation
// with the per-axis methods of Query:
//
//	q, err := svc.NewQuery(sia.Constraints{})
//	q.Band().Add(param.QuantityInterval{
//	    Lo: quantity.New(400, quantity.Nanometer),
//	    Hi: quantity.New(700, quantity.Nanometer),
//	})
//	q.Add(param.Pol, []string{"I", "Q"})
//	q.SetMaxRecords(500)
//
// Invalid values are rejected with *ValidationError before any request is
// sent.
//
// # Errors
//
// Every failure is one of the typed kinds re-exported from the dalerr package
// and can be inspected with errors.As or matched with errors.Is against the
// Err* sentinels.
//
// # Transports
//
// Requests go through a transport.Querier. The default is an HTTP transport;
// transport.FlightClient queries an archive server over Arrow Flight.
package sia
