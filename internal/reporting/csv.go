package reporting

import (
	"fmt"
	"strings"

	"token-audit/internal/audit"
)

// RenderHoldersCSV renders the holders table as CSV string.
func RenderHoldersCSV(v *audit.View) string {
	var sb strings.Builder

	// Header
	sb.WriteString("address,tag,percent,is_contract,is_locked\n")

	// Rows
	for _, h := range v.Holders {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%t,%t\n",
			h.Address,
			csvField(h.Tag),
			h.Percent,
			h.Contract,
			h.Locked,
		))
	}

	return sb.String()
}

func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
