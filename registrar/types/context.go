// Package types defines the data model of the registrar verification core:
// identity contexts, per-field challenges, judgement states, and the
// notification messages appended to the event log.
package types

import (
	"time"
)

// ChainName identifies the network an identity belongs to.
type ChainName string

// Networks served by the registrar.
const (
	Polkadot ChainName = "polkadot"
	Kusama   ChainName = "kusama"
)

// ChainAddress is an on-chain account address. The registrar treats it as an
// opaque string.
type ChainAddress string

// IdentityContext is the primary key for all identity-scoped state.
type IdentityContext struct {
	Address ChainAddress `json:"address"`
	Chain   ChainName    `json:"chain"`
}

// Timestamp is a wall-clock time in seconds since the unix epoch. The event
// log is ordered at this one second granularity, so events appended within
// the same second carry equal timestamps.
type Timestamp uint64

// Now returns the current wall-clock timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().Unix())
}

// Add returns the timestamp offset forward by secs.
func (t Timestamp) Add(secs uint64) Timestamp {
	return t + Timestamp(secs)
}
