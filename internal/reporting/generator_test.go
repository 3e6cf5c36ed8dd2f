package reporting

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"token-audit/internal/chains"
	"token-audit/internal/domain"
	"token-audit/internal/query"
	"token-audit/internal/upstream"
)

const usdtBSC = "0x55d398326f99059fF775485246999027B3197955"

type stubScans struct {
	scan *domain.ScanResult
	err  error
}

func (s stubScans) TokenSecurity(ctx context.Context, chainID domain.ChainID, address string) (*domain.ScanResult, error) {
	return s.scan, s.err
}

type stubMarket struct {
	infoErr error
	calls   int32
}

func (s *stubMarket) TokenInfo(ctx context.Context, chain, address string) (*domain.TokenInfoResponse, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.infoErr != nil {
		return nil, s.infoErr
	}
	return &domain.TokenInfoResponse{StatusCode: 200, Data: &domain.TokenInfo{Mcap: 98765.432, Transactions: 321}}, nil
}

func (s *stubMarket) Token(ctx context.Context, chain, address string) (*domain.TokenResponse, error) {
	atomic.AddInt32(&s.calls, 1)
	return &domain.TokenResponse{StatusCode: 200, Data: &domain.Token{Decimals: 18}}, nil
}

func newGenerator(scans query.ScanSource, market query.MarketSource) *Generator {
	loader := query.NewLoader(query.LoaderOptions{
		Cache:  query.NewCache(time.Minute),
		Scans:  scans,
		Market: market,
		Logger: log.New(io.Discard, "", 0),
	})
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return NewGenerator(chains.MustDefault(), loader).WithClock(func() time.Time { return fixed })
}

func testScan() *domain.ScanResult {
	return &domain.ScanResult{
		TokenName:   "Binance-Peg BSC-USD",
		TokenSymbol: "BSC-USD",
		TotalSupply: "3379997906.5",
		IsHoneypot:  "0",
		BuyTax:      "0",
		SellTax:     "0.15",
		HolderCount: "5000000",
		Holders: []domain.Holder{
			{Address: "0x8894e0a0c962cb723c1976a4421c95949be2d4e3", Tag: "Binance, Hot Wallet", Percent: "0.25"},
		},
		Dex: []domain.DexPair{{Name: "PancakeV2", Liquidity: "1000", Pair: "0x16b9a82891338f9ba80e2d6970fdda79d1eb0dae"}},
	}
}

func TestGenerate(t *testing.T) {
	market := &stubMarket{}
	g := newGenerator(stubScans{scan: testScan()}, market)

	report, err := g.Generate(context.Background(), domain.ChainBSC, usdtBSC)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if atomic.LoadInt32(&market.calls) != 2 {
		t.Errorf("expected 2 market calls, got %d", market.calls)
	}
	if report.View.MarketCap != "$ 98,765.43" {
		t.Errorf("unexpected market cap %q", report.View.MarketCap)
	}
	if report.View.SellTax.Text != "15.0%" || !report.View.SellTax.High {
		t.Errorf("unexpected sell tax %+v", report.View.SellTax)
	}
	if !report.GeneratedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("clock not applied: %v", report.GeneratedAt)
	}
}

func TestGenerate_Validation(t *testing.T) {
	g := newGenerator(stubScans{scan: testScan()}, &stubMarket{})

	if _, err := g.Generate(context.Background(), "999", usdtBSC); !errors.Is(err, chains.ErrUnknownChain) {
		t.Errorf("expected ErrUnknownChain, got %v", err)
	}
	if _, err := g.Generate(context.Background(), domain.ChainBSC, "0x1234"); !errors.Is(err, chains.ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestGenerate_ScanFailure(t *testing.T) {
	scanErr := &upstream.HTTPError{Provider: "goplus", StatusCode: 500, Description: "internal"}
	g := newGenerator(stubScans{err: scanErr}, &stubMarket{})

	_, err := g.Generate(context.Background(), domain.ChainBSC, usdtBSC)
	var httpErr *upstream.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
}

func TestGenerate_EmptyScanSkipsMarket(t *testing.T) {
	market := &stubMarket{}
	g := newGenerator(stubScans{scan: &domain.ScanResult{}}, market)

	report, err := g.Generate(context.Background(), domain.ChainBSC, usdtBSC)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !report.View.Empty {
		t.Error("expected empty view")
	}
	if atomic.LoadInt32(&market.calls) != 0 {
		t.Errorf("expected no market calls, got %d", market.calls)
	}
}

func TestRenderMarkdown(t *testing.T) {
	market := &stubMarket{infoErr: errors.New("connection reset")}
	g := newGenerator(stubScans{scan: testScan()}, market)
	report, err := g.Generate(context.Background(), domain.ChainBSC, usdtBSC)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)

	wants := []string{
		"# Audit Report",
		"Generated: 2024-05-01T12:00:00Z",
		"Chain: BNB Smart Chain (BSC) | Contract: `" + usdtBSC + "`",
		"## Project: BINANCE-PEG BSC-USD (BSC-USD)",
		"| Total Supply | 3,379,997,906.5 |",
		"| Token Decimals | 18 |",
		"| Market Cap | - |",
		"| Honeypot Test | PASSED |",
		"Buy Tax: 0.0% / Sell Tax: 15.0% (high)",
		"| [0x889...4e3](https://bscscan.com/address/0x8894e0a0c962cb723c1976a4421c95949be2d4e3) | Binance, Hot Wallet | 25.00% | No |",
		"| PancakeV2 | $ 1,000 |",
		"- [DexTools](https://www.dextools.io/app/en/bnb/pair-explorer/0x16b9a82891338f9ba80e2d6970fdda79d1eb0dae)",
		"## Warnings",
		"- connection reset",
	}
	for _, want := range wants {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	g := newGenerator(stubScans{scan: &domain.ScanResult{}}, &stubMarket{})
	report, err := g.Generate(context.Background(), domain.ChainAvalanche, usdtBSC)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "**ERROR!** Did you choose the right chain? You scanned this contract on AVAX.") {
		t.Errorf("missing empty panel:\n%s", md)
	}
	if strings.Contains(md, "## Project") {
		t.Error("empty report must not render project section")
	}
}

func TestRenderHoldersCSV(t *testing.T) {
	g := newGenerator(stubScans{scan: testScan()}, &stubMarket{})
	report, err := g.Generate(context.Background(), domain.ChainBSC, usdtBSC)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	csv := RenderHoldersCSV(report.View)
	want := "address,tag,percent,is_contract,is_locked\n" +
		"0x8894e0a0c962cb723c1976a4421c95949be2d4e3,\"Binance, Hot Wallet\",25.00%,false,false\n"
	if csv != want {
		t.Errorf("unexpected csv:\n%s", csv)
	}
}
