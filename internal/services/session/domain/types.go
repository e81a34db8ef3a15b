// Package domain defines the session view, its events and the ports the session owner drives
package domain

import (
	"context"
	"time"

	"basematch/internal/core/swipe"
	commitdom "basematch/internal/services/commit/domain"
	matchdom "basematch/internal/services/matches/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Enqueue results reported to metrics and callers
const (
	EnqueueAccepted  = "accepted"
	EnqueueDuplicate = "duplicate"
	EnqueueFull      = "full"
)

// Event types published on the session feed
const (
	EventQueue           = "queue"
	EventCommitStarted   = "commit.started"
	EventCommitConfirmed = "commit.confirmed"
	EventCommitFailed    = "commit.failed"
	EventMatch           = "match"
	EventIdentity        = "identity"
)

// Event is one item on the session feed
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// View is the session summary served to clients
type View struct {
	QueueSize     int                `json:"queue_size"`
	QueueCapacity int                `json:"queue_capacity"`
	Gender        swipe.Gender       `json:"gender"`
	SaveCount     int                `json:"save_count"`
	Identity      commitdom.Identity `json:"identity"`
	ExpectedChain uint64             `json:"expected_chain_id"`
	CommitRunning bool               `json:"commit_running"`
	Notifier      matchdom.State     `json:"notifier"`
	Location      string             `json:"location,omitempty"`
}

// SwipeResult answers an enqueue
type SwipeResult struct {
	Accepted  bool   `json:"accepted"`
	Result    string `json:"result"`
	QueueSize int    `json:"queue_size"`
	Full      bool   `json:"full"`
}

// CommitResult is the confirmation shown after a save
type CommitResult struct {
	Attempt   commitdom.Attempt `json:"attempt"`
	ShortTx   string            `json:"short_tx,omitempty"`
	QueueSize int               `json:"queue_size"`
	SaveCount int               `json:"save_count"`
}

// Store persists swipe.State
type Store interface {
	Load(ctx context.Context) (swipe.State, error)
	Save(ctx context.Context, st swipe.State) error
}

// Wallet is the identity half of the wallet RPC
type Wallet interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (uint64, error)
	SwitchChain(ctx context.Context, chainID uint64) error
}
