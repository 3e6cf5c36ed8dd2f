package query

import (
	"context"
	"log"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"token-audit/internal/domain"
	"token-audit/internal/observability"
	"token-audit/internal/tracing"
)

// ScanSource returns the security-scan record for a contract.
type ScanSource interface {
	TokenSecurity(ctx context.Context, chainID domain.ChainID, address string) (*domain.ScanResult, error)
}

// MarketSource returns market data for a contract. chain is the provider's slug.
type MarketSource interface {
	TokenInfo(ctx context.Context, chain, address string) (*domain.TokenInfoResponse, error)
	Token(ctx context.Context, chain, address string) (*domain.TokenResponse, error)
}

// Request describes one audit render.
type Request struct {
	ChainID domain.ChainID
	Chain   domain.ChainInfo
	Address string
	Scan    *domain.ScanResult
}

// Enabled reports whether the market fetches should run at all.
func (r Request) Enabled() bool {
	return r.ChainID != "" && r.Address != "" && !r.Scan.IsEmpty()
}

// Update is one state transition of one fetch.
type Update struct {
	Kind         Kind
	Status       Status
	Info         *domain.TokenInfoResponse
	Token        *domain.TokenResponse
	Err          error
	Notification *Notification
}

// Observer receives fetch transitions. Calls are serialized.
type Observer func(Update)

// Snapshot is the state of both market fetches.
type Snapshot struct {
	Info  Result[domain.TokenInfoResponse]
	Token Result[domain.TokenResponse]
}

// Notifications returns the notifications raised by failed fetches, info first.
func (s Snapshot) Notifications() []Notification {
	var out []Notification
	if s.Info.Notification != nil {
		out = append(out, *s.Info.Notification)
	}
	if s.Token.Notification != nil {
		out = append(out, *s.Token.Notification)
	}
	return out
}

// LoaderOptions configures Loader.
type LoaderOptions struct {
	Cache  *Cache
	Scans  ScanSource
	Market MarketSource
	Logger *log.Logger
}

// Loader runs the fetches of an audit through the request cache.
type Loader struct {
	cache  *Cache
	scans  ScanSource
	market MarketSource
	logger *log.Logger
}

// NewLoader creates a loader. A nil Cache gets a DefaultTTL cache.
func NewLoader(opts LoaderOptions) *Loader {
	if opts.Cache == nil {
		opts.Cache = NewCache(DefaultTTL)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stdout, "[query] ", log.LstdFlags|log.Lshortfile)
	}
	return &Loader{
		cache:  opts.Cache,
		scans:  opts.Scans,
		market: opts.Market,
		logger: opts.Logger,
	}
}

// Scan fetches the security-scan record through the cache.
func (l *Loader) Scan(ctx context.Context, chainID domain.ChainID, address string) (*domain.ScanResult, error) {
	key := NewKey(chainID, address, KindScan)
	scan, err := Fetch(ctx, l.cache, key, func(ctx context.Context) (*domain.ScanResult, error) {
		return l.scans.TokenSecurity(ctx, chainID, address)
	})
	if err != nil {
		l.logger.Printf("scan %s failed: %v", key, err)
		observability.RecordNotification(string(KindScan))
		return nil, err
	}
	return scan, nil
}

// Refetch drops every cached result for the contract.
func (l *Loader) Refetch(chainID domain.ChainID, address string) {
	l.cache.Invalidate(
		NewKey(chainID, address, KindScan),
		NewKey(chainID, address, KindInfo),
		NewKey(chainID, address, KindToken),
	)
}

// Run is a started pair of market fetches.
type Run struct {
	done chan struct{}

	mu   sync.Mutex
	snap Snapshot
}

// Wait blocks until both fetches are done and returns their final state.
func (r *Run) Wait() Snapshot {
	<-r.done
	return r.Snapshot()
}

// Done is closed once both fetches have finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Snapshot returns the current state of both fetches.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Start launches the info and token fetches concurrently. A disabled request
// leaves both fetches idle and issues no upstream call. observe may be nil.
func (l *Loader) Start(ctx context.Context, req Request, observe Observer) *Run {
	run := &Run{
		done: make(chan struct{}),
		snap: Snapshot{
			Info:  Result[domain.TokenInfoResponse]{Status: StatusIdle},
			Token: Result[domain.TokenResponse]{Status: StatusIdle},
		},
	}
	if !req.Enabled() {
		close(run.done)
		return run
	}

	ctx, span := tracing.Tracer("token-audit/query").Start(ctx, "query.load")
	span.SetAttributes(
		attribute.String("chain.id", string(req.ChainID)),
		attribute.String("contract.address", req.Address),
	)

	var emitMu sync.Mutex
	emit := func(u Update) {
		run.mu.Lock()
		switch u.Kind {
		case KindInfo:
			run.snap.Info = Result[domain.TokenInfoResponse]{Status: u.Status, Data: u.Info, Err: u.Err, Notification: u.Notification}
		case KindToken:
			run.snap.Token = Result[domain.TokenResponse]{Status: u.Status, Data: u.Token, Err: u.Err, Notification: u.Notification}
		}
		run.mu.Unlock()

		if observe != nil {
			emitMu.Lock()
			observe(u)
			emitMu.Unlock()
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		emit(Update{Kind: KindInfo, Status: StatusLoading})
		info, err := Fetch(ctx, l.cache, NewKey(req.ChainID, req.Address, KindInfo), func(ctx context.Context) (*domain.TokenInfoResponse, error) {
			return l.market.TokenInfo(ctx, req.Chain.Dext, req.Address)
		})
		u := l.settle(req, KindInfo, err)
		u.Info = info
		emit(u)
	}()
	go func() {
		defer wg.Done()
		emit(Update{Kind: KindToken, Status: StatusLoading})
		token, err := Fetch(ctx, l.cache, NewKey(req.ChainID, req.Address, KindToken), func(ctx context.Context) (*domain.TokenResponse, error) {
			return l.market.Token(ctx, req.Chain.Dext, req.Address)
		})
		u := l.settle(req, KindToken, err)
		u.Token = token
		emit(u)
	}()

	go func() {
		wg.Wait()
		span.End()
		close(run.done)
	}()
	return run
}

// Load is the blocking form of Start.
func (l *Loader) Load(ctx context.Context, req Request) Snapshot {
	return l.Start(ctx, req, nil).Wait()
}

func (l *Loader) settle(req Request, kind Kind, err error) Update {
	if err == nil {
		return Update{Kind: kind, Status: StatusSuccess}
	}

	n := NotificationFor(err)
	l.logger.Printf("%s fetch for %s on chain %s failed: %v", kind, req.Address, req.ChainID, err)
	observability.RecordNotification(string(kind))
	return Update{Kind: kind, Status: StatusError, Err: err, Notification: &n}
}
