package query

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-audit/internal/domain"
	"token-audit/internal/upstream"
)

type fakeMarket struct {
	infoCalls  int32
	tokenCalls int32
	delay      time.Duration

	infoErr  error
	tokenErr error

	mu     sync.Mutex
	chains []string
}

func (f *fakeMarket) TokenInfo(ctx context.Context, chain, address string) (*domain.TokenInfoResponse, error) {
	atomic.AddInt32(&f.infoCalls, 1)
	f.record(chain)
	time.Sleep(f.delay)
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &domain.TokenInfoResponse{StatusCode: 200, Data: &domain.TokenInfo{Mcap: 1234.5, Transactions: 42}}, nil
}

func (f *fakeMarket) Token(ctx context.Context, chain, address string) (*domain.TokenResponse, error) {
	atomic.AddInt32(&f.tokenCalls, 1)
	f.record(chain)
	time.Sleep(f.delay)
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return &domain.TokenResponse{StatusCode: 200, Data: &domain.Token{Name: "Tether", Decimals: 6}}, nil
}

func (f *fakeMarket) record(chain string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chains = append(f.chains, chain)
}

type fakeScans struct {
	calls int32
	scan  *domain.ScanResult
}

func (f *fakeScans) TokenSecurity(ctx context.Context, chainID domain.ChainID, address string) (*domain.ScanResult, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.scan, nil
}

func newTestLoader(market MarketSource, scans ScanSource) *Loader {
	return NewLoader(LoaderOptions{
		Cache:  NewCache(time.Minute),
		Market: market,
		Scans:  scans,
		Logger: log.New(io.Discard, "", 0),
	})
}

func bscRequest(scan *domain.ScanResult) Request {
	return Request{
		ChainID: domain.ChainBSC,
		Chain:   domain.ChainInfo{ID: domain.ChainBSC, Code: "BSC", Dext: "bsc"},
		Address: "0x55d398326f99059ff775485246999027b3197955",
		Scan:    scan,
	}
}

func TestLoader_EmptyScanIssuesNoFetch(t *testing.T) {
	market := &fakeMarket{}
	l := newTestLoader(market, nil)

	for _, scan := range []*domain.ScanResult{nil, {}} {
		snap := l.Load(context.Background(), bscRequest(scan))
		assert.Equal(t, StatusIdle, snap.Info.Status)
		assert.Equal(t, StatusIdle, snap.Token.Status)
	}

	req := bscRequest(&domain.ScanResult{TokenName: "USDT"})
	req.ChainID = ""
	l.Load(context.Background(), req)

	req = bscRequest(&domain.ScanResult{TokenName: "USDT"})
	req.Address = ""
	l.Load(context.Background(), req)

	assert.Zero(t, atomic.LoadInt32(&market.infoCalls))
	assert.Zero(t, atomic.LoadInt32(&market.tokenCalls))
}

func TestLoader_FetchesOncePerPair(t *testing.T) {
	market := &fakeMarket{delay: 10 * time.Millisecond}
	l := newTestLoader(market, nil)
	req := bscRequest(&domain.ScanResult{TokenName: "USDT"})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := l.Load(context.Background(), req)
			assert.Equal(t, StatusSuccess, snap.Info.Status)
			assert.Equal(t, StatusSuccess, snap.Token.Status)
		}()
	}
	wg.Wait()

	snap := l.Load(context.Background(), req)
	require.NotNil(t, snap.Token.Data)
	assert.Equal(t, "Tether", snap.Token.Data.Data.Name)
	assert.Equal(t, int64(42), snap.Info.Data.Data.Transactions)

	assert.Equal(t, int32(1), atomic.LoadInt32(&market.infoCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&market.tokenCalls))

	other := req
	other.Address = "0xdac17f958d2ee523a2206206994597c13d831ec7"
	l.Load(context.Background(), other)
	assert.Equal(t, int32(2), atomic.LoadInt32(&market.infoCalls))
}

func TestLoader_SendsDexSlugUpstream(t *testing.T) {
	market := &fakeMarket{}
	l := newTestLoader(market, nil)
	l.Load(context.Background(), bscRequest(&domain.ScanResult{TokenName: "USDT"}))

	assert.Equal(t, []string{"bsc", "bsc"}, market.chains)
}

func TestLoader_Transitions(t *testing.T) {
	market := &fakeMarket{tokenErr: errors.New("dial tcp: connection refused")}
	l := newTestLoader(market, nil)

	var mu sync.Mutex
	seen := map[Kind][]Status{}
	run := l.Start(context.Background(), bscRequest(&domain.ScanResult{TokenName: "USDT"}), func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		seen[u.Kind] = append(seen[u.Kind], u.Status)
	})
	snap := run.Wait()

	assert.Equal(t, []Status{StatusLoading, StatusSuccess}, seen[KindInfo])
	assert.Equal(t, []Status{StatusLoading, StatusError}, seen[KindToken])
	assert.True(t, snap.Token.Status.Done())
	require.NotNil(t, snap.Token.Notification)
	assert.Equal(t, "dial tcp: connection refused", snap.Token.Notification.Title)
	assert.Len(t, snap.Notifications(), 1)
}

func TestLoader_StructuredErrorNotification(t *testing.T) {
	market := &fakeMarket{
		infoErr:  &upstream.HTTPError{Provider: "dextools", StatusCode: 403, Description: "Invalid API key"},
		tokenErr: &upstream.HTTPError{Provider: "dextools", StatusCode: 500},
	}
	l := newTestLoader(market, nil)
	snap := l.Load(context.Background(), bscRequest(&domain.ScanResult{TokenName: "USDT"}))

	assert.Equal(t, []Notification{
		{Title: "Invalid API key", Status: "error"},
		{Title: DefaultErrorTitle, Status: "error"},
	}, snap.Notifications())
}

func TestLoader_ScanAndRefetch(t *testing.T) {
	scans := &fakeScans{scan: &domain.ScanResult{TokenName: "USDT"}}
	market := &fakeMarket{}
	l := newTestLoader(market, scans)
	ctx := context.Background()

	scan, err := l.Scan(ctx, domain.ChainBSC, "0xABC")
	require.NoError(t, err)
	assert.Equal(t, "USDT", scan.TokenName)
	_, _ = l.Scan(ctx, domain.ChainBSC, "0xabc")
	assert.Equal(t, int32(1), atomic.LoadInt32(&scans.calls))

	l.Refetch(domain.ChainBSC, "0xabc")
	_, _ = l.Scan(ctx, domain.ChainBSC, "0xabc")
	assert.Equal(t, int32(2), atomic.LoadInt32(&scans.calls))
}
