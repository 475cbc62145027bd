package spreadsheet

import (
	"regexp"
	"strings"
)

// QuoteSheetName returns name quoted for use as an A1 range. The name is
// always wrapped in single quotes, with embedded quotes doubled, so that
// titles such as "Q1" or "FY2024" are not read as cell references.
func QuoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

var (
	a1CellRangeRe   = regexp.MustCompile(`^(\$?[A-Za-z]{1,3}\$?[0-9]+|(\$?[A-Za-z]{1,3})?(\$?[0-9]+)?:(\$?[A-Za-z]{1,3})?(\$?[0-9]+)?)$`)
	r1c1CellRangeRe = regexp.MustCompile(`(?i)^R[0-9]*C[0-9]*(:R[0-9]*C[0-9]*)?$`)
)

// isCellRange reports whether s is a bare A1 or R1C1 cell range with no
// worksheet part, such as "A1", "A1:C3", "A:C" or "R1C1".
func isCellRange(s string) bool {
	if s == ":" {
		return false
	}
	return a1CellRangeRe.MatchString(s) || r1c1CellRangeRe.MatchString(s)
}

// SheetFromRange extracts the worksheet name from an A1 range such as
// "'My Quotes'!A:C". A range without a sheet part is treated as a bare
// worksheet name, which is how the API resolves it, unless it reads as a
// cell range ("A1:C3"), which names no worksheet.
func SheetFromRange(a1 string) (string, bool) {
	raw := strings.TrimSpace(a1)
	if raw == "" {
		return "", false
	}

	idx := strings.LastIndex(raw, "!")
	if idx == -1 {
		if isCellRange(raw) {
			return "", false
		}
		return unquoteSheetName(raw)
	}
	return unquoteSheetName(raw[:idx])
}

func unquoteSheetName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if strings.HasPrefix(name, "'") {
		if !strings.HasSuffix(name, "'") || len(name) < 2 {
			return "", false
		}
		inner := name[1 : len(name)-1]
		return strings.ReplaceAll(inner, "''", "'"), inner != ""
	}
	return name, true
}
