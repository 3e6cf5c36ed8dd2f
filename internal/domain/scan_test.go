package domain

import (
	"encoding/json"
	"testing"
)

func TestScanResult_IsEmpty(t *testing.T) {
	var nilScan *ScanResult
	if !nilScan.IsEmpty() {
		t.Error("nil scan should be empty")
	}

	var decoded ScanResult
	if err := json.Unmarshal([]byte(`{}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.IsEmpty() {
		t.Error("scan decoded from {} should be empty")
	}

	withName := &ScanResult{TokenName: "Pepe"}
	if withName.IsEmpty() {
		t.Error("scan with a name should not be empty")
	}

	withDex := &ScanResult{Dex: []DexPair{{Name: "UniswapV2", Pair: "0xpair"}}}
	if withDex.IsEmpty() {
		t.Error("scan with only a dex list should not be empty")
	}
}

func TestScanResult_DecodeProviderPayload(t *testing.T) {
	payload := `{
		"token_name": "Pepe",
		"token_symbol": "PEPE",
		"total_supply": "420690000000000",
		"is_honeypot": "0",
		"buy_tax": "0",
		"sell_tax": "0.05",
		"holders": [{"address": "0xabc", "tag": "", "is_contract": 0, "balance": "10", "percent": "0.1", "is_locked": 1}],
		"dex": [{"name": "UniswapV2", "liquidity": "1234.5", "pair": "0xpair", "liquidity_type": "UniV2"}]
	}`

	var scan ScanResult
	if err := json.Unmarshal([]byte(payload), &scan); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if scan.TokenSymbol != "PEPE" {
		t.Errorf("expected symbol PEPE, got %s", scan.TokenSymbol)
	}
	if scan.SellTax != "0.05" {
		t.Errorf("expected sell tax 0.05, got %s", scan.SellTax)
	}
	if len(scan.Holders) != 1 || scan.Holders[0].IsLocked != 1 {
		t.Errorf("unexpected holders: %+v", scan.Holders)
	}
	if len(scan.Dex) != 1 || scan.Dex[0].Pair != "0xpair" {
		t.Errorf("unexpected dex list: %+v", scan.Dex)
	}
}
