// Package query is the data-fetch layer of the audit page: independent fetches
// keyed by (chain, address, kind), a request cache that deduplicates in-flight
// calls, a per-fetch state machine and transient error notifications.
package query

import (
	"strings"

	"token-audit/internal/domain"
)

// Kind names what a fetch retrieves.
type Kind string

const (
	KindScan  Kind = "scan"
	KindInfo  Kind = "info"
	KindToken Kind = "token"
)

// Key identifies one fetch in the request cache.
type Key struct {
	Chain   domain.ChainID
	Address string
	Kind    Kind
}

// NewKey builds a key. EVM addresses differ only in case, so the address is lower-cased
// unless it is case-sensitive (base58).
func NewKey(chain domain.ChainID, address string, kind Kind) Key {
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		address = strings.ToLower(address)
	}
	return Key{Chain: chain, Address: address, Kind: kind}
}

func (k Key) String() string {
	return string(k.Chain) + "|" + k.Address + "|" + string(k.Kind)
}

// Status is the state of one fetch: idle -> loading -> success | error.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Done reports whether the fetch reached a terminal state.
func (s Status) Done() bool {
	return s == StatusSuccess || s == StatusError
}

// Result is the outcome of one fetch.
type Result[T any] struct {
	Status       Status
	Data         *T
	Err          error
	Notification *Notification
}

// Loading reports whether the fetch is in flight.
func (r Result[T]) Loading() bool {
	return r.Status == StatusLoading
}
