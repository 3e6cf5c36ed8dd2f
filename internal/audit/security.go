package audit

import "token-audit/internal/domain"

// securityFlag describes one scan flag. riskyValue is the raw value that
// marks the contract as risky.
type securityFlag struct {
	label      string
	riskyValue string
	value      func(*domain.ScanResult) string
}

var securityFlags = []securityFlag{
	{"Contract verified", "0", func(s *domain.ScanResult) string { return s.IsOpenSource }},
	{"Proxy contract", "1", func(s *domain.ScanResult) string { return s.IsProxy }},
	{"Mintable", "1", func(s *domain.ScanResult) string { return s.IsMintable }},
	{"Can take back ownership", "1", func(s *domain.ScanResult) string { return s.CanTakeBackOwnership }},
	{"Owner can change balance", "1", func(s *domain.ScanResult) string { return s.OwnerChangeBalance }},
	{"Hidden owner", "1", func(s *domain.ScanResult) string { return s.HiddenOwner }},
	{"Self-destruct", "1", func(s *domain.ScanResult) string { return s.Selfdestruct }},
	{"External call", "1", func(s *domain.ScanResult) string { return s.ExternalCall }},
	{"Cannot buy", "1", func(s *domain.ScanResult) string { return s.CannotBuy }},
	{"Cannot sell all", "1", func(s *domain.ScanResult) string { return s.CannotSellAll }},
	{"Trading cooldown", "1", func(s *domain.ScanResult) string { return s.TradingCooldown }},
	{"Anti-whale", "1", func(s *domain.ScanResult) string { return s.IsAntiWhale }},
	{"Blacklist", "1", func(s *domain.ScanResult) string { return s.IsBlacklisted }},
	{"Whitelist", "1", func(s *domain.ScanResult) string { return s.IsWhitelisted }},
	{"Transfer pausable", "1", func(s *domain.ScanResult) string { return s.TransferPausable }},
	{"Tax modifiable", "1", func(s *domain.ScanResult) string { return s.SlippageModifiable }},
	{"Personal tax modifiable", "1", func(s *domain.ScanResult) string { return s.PersonalSlippageModifiable }},
	{"Listed on DEX", "0", func(s *domain.ScanResult) string { return s.IsInDex }},
}

func securityRows(scan *domain.ScanResult) []SecurityRow {
	rows := make([]SecurityRow, 0, len(securityFlags))
	for _, f := range securityFlags {
		raw := f.value(scan)
		row := SecurityRow{Label: f.label, Value: yesNo(raw), Risk: RiskUnknown}
		switch {
		case raw == "":
		case raw == f.riskyValue:
			row.Risk = RiskRisky
		case raw == "0" || raw == "1":
			row.Risk = RiskSafe
		}
		rows = append(rows, row)
	}
	return rows
}

func yesNo(raw string) string {
	switch raw {
	case "1":
		return "Yes"
	case "0":
		return "No"
	case "":
		return "-"
	}
	return raw
}
