package reporting

import (
	"fmt"
	"strings"
	"time"

	"token-audit/internal/audit"
	"token-audit/internal/format"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	v := r.View

	// Header
	sb.WriteString("# Audit Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Chain: %s (%s) | Contract: `%s`\n\n", v.ChainLabel, v.ChainCode, v.Address))

	if v.Empty {
		sb.WriteString(fmt.Sprintf("**%s** %s\n", audit.EmptyTitle, v.EmptyMessage))
		return sb.String()
	}

	// Project
	sb.WriteString(fmt.Sprintf("## Project: %s (%s)\n\n", v.Name, v.Symbol))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Creator | %s |\n", mdLink(v.Creator)))
	sb.WriteString(fmt.Sprintf("| Owner | %s |\n", mdLink(v.Owner)))
	sb.WriteString(fmt.Sprintf("| Explorer | %s |\n", mdLink(v.Explorer)))
	if v.Pair != nil {
		sb.WriteString(fmt.Sprintf("| Pair | %s |\n", mdLink(*v.Pair)))
	}
	sb.WriteString(fmt.Sprintf("| Token Decimals | %s |\n", v.Decimals))
	sb.WriteString(fmt.Sprintf("| Total Supply | %s |\n", v.TotalSupply))
	sb.WriteString(fmt.Sprintf("| Circulating Supply | %s |\n", v.CirculatingSupply))
	sb.WriteString(fmt.Sprintf("| Honeypot Test | %s |\n", v.Honeypot))
	sb.WriteString(fmt.Sprintf("| Market Cap | %s |\n", v.MarketCap))
	sb.WriteString(fmt.Sprintf("| Transactions | %s |\n", v.Transactions))
	sb.WriteString("\n")

	// Taxes
	sb.WriteString("## Taxes\n\n")
	sb.WriteString(fmt.Sprintf("Buy Tax: %s / Sell Tax: %s\n\n", taxText(v.BuyTax), taxText(v.SellTax)))
	sb.WriteString(fmt.Sprintf("More than %d%% is considered a high tax rate, and anything beyond 50%% tax rate means it may not be tradable.\n\n", audit.HighTaxThreshold))

	// Security
	sb.WriteString("## Security Overview\n\n")
	sb.WriteString("| Check | Value | Risk |\n")
	sb.WriteString("|-------|-------|------|\n")
	for _, row := range v.Security {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", row.Label, row.Value, row.Risk))
	}
	sb.WriteString("\n")

	// Holders
	sb.WriteString(fmt.Sprintf("## Holders (%s)\n\n", v.HolderCount))
	writeHolders(&sb, v.Holders)

	if len(v.LPHolders) > 0 {
		sb.WriteString(fmt.Sprintf("## LP Holders (%s)\n\n", v.LPHolderCount))
		writeHolders(&sb, v.LPHolders)
	}

	// Liquidity
	sb.WriteString("## Liquidity\n\n")
	if len(v.Dexes) > 0 {
		sb.WriteString("| DEX | Liquidity | Pair |\n")
		sb.WriteString("|-----|-----------|------|\n")
		for _, d := range v.Dexes {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", d.Name, d.Liquidity, mdLink(d.Pair)))
		}
	} else {
		sb.WriteString("No liquidity pairs found.\n")
	}
	sb.WriteString("\n")

	// Links
	if len(v.Footer) > 0 {
		sb.WriteString("## Links\n\n")
		for _, l := range v.Footer {
			sb.WriteString(fmt.Sprintf("- %s\n", mdLink(l)))
		}
		sb.WriteString("\n")
	}

	// Notifications (failed market fetches)
	if len(v.Notifications) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, n := range v.Notifications {
			sb.WriteString(fmt.Sprintf("- %s\n", n.Title))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeHolders(sb *strings.Builder, rows []audit.HolderRow) {
	if len(rows) == 0 {
		sb.WriteString("No holders reported.\n\n")
		return
	}
	sb.WriteString("| Address | Tag | Percent | Locked |\n")
	sb.WriteString("|---------|-----|---------|--------|\n")
	for _, h := range rows {
		locked := "No"
		if h.Locked {
			locked = "Yes"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", mdLink(h.Link), h.Tag, h.Percent, locked))
	}
	sb.WriteString("\n")
}

func mdLink(l audit.Link) string {
	return fmt.Sprintf("[%s](%s)", l.Text, l.URL)
}

func taxText(r format.Rate) string {
	if r.High {
		return r.Text + " (high)"
	}
	return r.Text
}
