package adql

import (
	"math"
	"strconv"
	"strings"
)

// escapeString escapes single quotes in a string value.
func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteLiteral returns an ADQL string literal with proper escaping.
func quoteLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// numberLiteral renders a finite float in the shortest form that round
// trips, with an upper-case exponent marker. Non-finite values have no ADQL
// literal and render as NULL, which compares false with everything.
func numberLiteral(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "NULL"
	}
	return strings.ToUpper(strconv.FormatFloat(v, 'g', -1, 64))
}

// quoteIdentifier returns a delimited identifier if needed. Dotted table
// names are quoted part by part.
func quoteIdentifier(name string) string {
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		for i, p := range parts {
			parts[i] = quoteIdentifier(p)
		}
		return strings.Join(parts, ".")
	}
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

// needsQuoting returns true if the identifier is not a regular ADQL
// identifier or collides with a reserved word.
func needsQuoting(name string) bool {
	if len(name) == 0 {
		return true
	}

	c := name[0]
	if !isLetter(c) {
		return true
	}
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}

	switch strings.ToUpper(name) {
	case "SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "NULL", "TOP", "AS",
		"IN", "IS", "LIKE", "BETWEEN", "EXISTS", "ORDER", "BY", "GROUP",
		"HAVING", "JOIN", "ON", "DISTINCT", "ALL", "ASC", "DESC",
		"POINT", "CIRCLE", "BOX", "POLYGON", "REGION", "CONTAINS",
		"INTERSECTS", "AREA", "CENTROID", "COORD1", "COORD2", "COORDSYS",
		"DISTANCE", "FIRST", "LAST", "UNION", "EXCEPT", "INTERSECT":
		return true
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
