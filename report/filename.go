package report

import (
	"strconv"
	"strings"
)

// ResolveFilename picks the download name. A filename= parameter in the
// content-disposition header wins; a header without one falls back to
// donation-report-{type}; no header at all yields {type}-report-{year}.pdf.
func ResolveFilename(disposition string, present bool, kind Type, year int) string {
	if !present {
		return string(kind) + "-report-" + strconv.Itoa(year) + ".pdf"
	}
	fallback := "donation-report-" + string(kind)
	_, rest, found := strings.Cut(disposition, "filename=")
	if !found {
		return fallback
	}
	value, _, _ := strings.Cut(rest, ";")
	value = strings.NewReplacer(`"`, "", `'`, "", "/", "_", `\`, "_").Replace(value)
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
