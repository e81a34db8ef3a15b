// Package domain defines the commit attempt model and the ports the pipeline depends on
package domain

import (
	"context"
	"time"

	"basematch/internal/core/swipe"
)

// Outcome is the terminal result of an attempt
type Outcome string

// Outcome values
const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeFailed    Outcome = "failed"
)

// Strategy names
const (
	StrategySmartWallet = "smart-wallet"
	StrategyDirect      = "direct"
)

// Identity is the cached signing identity the preconditions are checked against
type Identity struct {
	Address   string `json:"address,omitempty"`
	ChainID   uint64 `json:"chain_id,omitempty"`
	Connected bool   `json:"connected"`
}

// Payload is the index-aligned pair of arrays written by batchSwipe
type Payload struct {
	Subjects []string `json:"subject_ids"`
	Liked    []bool   `json:"liked_flags"`
}

// PayloadOf splits a queue snapshot, preserving its order
func PayloadOf(ds []swipe.Decision) Payload {
	subjects, liked := swipe.Split(ds)
	return Payload{Subjects: subjects, Liked: liked}
}

// Len is the number of decisions carried
func (p Payload) Len() int { return len(p.Subjects) }

// Attempt is one run of the pipeline; it is never persisted in the decision store
type Attempt struct {
	ID         string    `json:"id"`
	Payload    Payload   `json:"payload"`
	Calldata   []byte    `json:"-"`
	Strategy   string    `json:"strategy,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	TxID       string    `json:"tx_id,omitempty"`
	Tried      []string  `json:"tried"`
	Err        error     `json:"-"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Confirmed reports whether a strategy succeeded
func (a Attempt) Confirmed() bool { return a.Outcome == OutcomeConfirmed }

// ShortTx is the transaction id as shown in confirmations, e.g. 0x1234ab…
func (a Attempt) ShortTx() string { return ShortID(a.TxID) }

// ShortID keeps the first 8 characters of an id followed by an ellipsis
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "…"
}

// Journal records finished attempts for later analysis
type Journal interface {
	Record(ctx context.Context, a Attempt) error
}

// CommitPort is what the session drives
type CommitPort interface {
	Precheck(id Identity) error
	Commit(ctx context.Context, id Identity, snapshot []swipe.Decision) (Attempt, error)
	Last() (Attempt, bool)
	InFlight() bool
	Order() []string
}
