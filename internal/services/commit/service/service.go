// Package service implements the commit pipeline: precondition checks, the ordered
// strategy list and the guard that keeps one submission in flight at a time
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"basematch/internal/adapters/ledger"
	"basematch/internal/core/swipe"
	perr "basematch/internal/platform/errors"
	"basematch/internal/platform/logger"
	"basematch/internal/platform/metrics"
	dom "basematch/internal/services/commit/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Config for the pipeline
type Config struct {
	ChainID    uint64
	Strategies []Strategy
	Journal    dom.Journal
	Metrics    *metrics.Registry
}

// Pipeline turns a queue snapshot into one batchSwipe submission
type Pipeline struct {
	contract   *ledger.Contract
	chainID    uint64
	strategies []Strategy
	journal    dom.Journal
	metrics    *metrics.Registry
	log        *logger.Logger

	busy atomic.Bool

	mu   sync.Mutex
	last *dom.Attempt

	now   func() time.Time
	newID func() string
}

var _ dom.CommitPort = (*Pipeline)(nil)

// New builds a pipeline; at least one strategy is required
func New(contract *ledger.Contract, cfg Config) *Pipeline {
	if contract == nil {
		panic("commit.New requires a contract")
	}
	if len(cfg.Strategies) == 0 {
		panic("commit.New requires at least one strategy")
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = ledger.BaseChainID
	}
	return &Pipeline{
		contract:   contract,
		chainID:    cfg.ChainID,
		strategies: cfg.Strategies,
		journal:    cfg.Journal,
		metrics:    cfg.Metrics,
		log:        logger.Named("commit"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Order lists strategy names in evaluation order
func (p *Pipeline) Order() []string {
	out := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		out[i] = s.Name()
	}
	return out
}

// ChainID is the network every submission must target
func (p *Pipeline) ChainID() uint64 { return p.chainID }

// InFlight reports whether a submission is running
func (p *Pipeline) InFlight() bool { return p.busy.Load() }

// Last returns the most recent finished attempt
func (p *Pipeline) Last() (dom.Attempt, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return dom.Attempt{}, false
	}
	return *p.last, true
}

// Precheck validates identity and network without touching the ledger
func (p *Pipeline) Precheck(id dom.Identity) error {
	if !id.Connected || !common.IsHexAddress(id.Address) {
		return perr.NotConnectedf("connect a wallet to save your swipes")
	}
	if id.ChainID != p.chainID {
		return perr.WrongNetworkf("wallet is on chain %d, switch to %d", id.ChainID, p.chainID)
	}
	return nil
}

// Commit submits the snapshot. Preconditions fail before anything is sent; a second
// call while one is in flight gets ErrorCodeConflict. The returned attempt is the
// zero value when nothing was submitted
func (p *Pipeline) Commit(ctx context.Context, id dom.Identity, snapshot []swipe.Decision) (dom.Attempt, error) {
	if err := p.Precheck(id); err != nil {
		return dom.Attempt{}, err
	}
	if len(snapshot) == 0 {
		return dom.Attempt{}, perr.InvalidArgf("swipe first: nothing to save")
	}
	if !p.busy.CompareAndSwap(false, true) {
		return dom.Attempt{}, perr.Conflictf("a save is already in progress")
	}
	defer p.busy.Store(false)

	a := dom.Attempt{
		ID:        p.newID(),
		Payload:   dom.PayloadOf(snapshot),
		Outcome:   dom.OutcomeFailed,
		StartedAt: p.now(),
	}
	log := p.log.With().Str("attempt", a.ID).Int("size", a.Payload.Len()).Logger()

	calldata, err := p.contract.PackBatchSwipe(a.Payload.Subjects, a.Payload.Liked)
	if err != nil {
		return dom.Attempt{}, err
	}
	a.Calldata = calldata

	in := Submission{
		From:     common.HexToAddress(id.Address),
		To:       p.contract.Address(),
		ChainID:  p.chainID,
		Calldata: calldata,
	}

	var errs []error
	for _, s := range p.strategies {
		if !s.Available(id) {
			continue
		}
		a.Tried = append(a.Tried, s.Name())
		txID, err := s.Submit(ctx, in)
		if err != nil {
			p.metrics.CommitAttempt(s.Name(), string(dom.OutcomeFailed))
			log.Warn().Err(err).Str("strategy", s.Name()).Msg("strategy failed")
			errs = append(errs, err)
			continue
		}
		p.metrics.CommitAttempt(s.Name(), string(dom.OutcomeConfirmed))
		a.Strategy = s.Name()
		a.TxID = txID
		a.Outcome = dom.OutcomeConfirmed
		break
	}

	if !a.Confirmed() {
		a.Err = terminal(a.Tried, errs)
		a.Error = a.Err.Error()
	}
	a.FinishedAt = p.now()
	p.finish(ctx, a)

	if a.Err != nil {
		log.Error().Err(a.Err).Strs("tried", a.Tried).Msg("commit failed")
		return a, a.Err
	}
	log.Info().Str("strategy", a.Strategy).Str("tx", a.ShortTx()).Msg("commit confirmed")
	return a, nil
}

func (p *Pipeline) finish(ctx context.Context, a dom.Attempt) {
	p.mu.Lock()
	p.last = &a
	p.mu.Unlock()

	p.metrics.ObserveCommit(string(a.Outcome), a.FinishedAt.Sub(a.StartedAt).Seconds())
	if p.journal == nil {
		return
	}
	// journaling must not outlive or fail the commit
	if err := p.journal.Record(context.WithoutCancel(ctx), a); err != nil {
		p.log.Warn().Err(err).Str("attempt", a.ID).Msg("journal write failed")
	}
}

func terminal(tried []string, errs []error) error {
	if len(tried) == 0 {
		return perr.Newf(perr.ErrorCodeSubmission, "no submission strategy is available for this wallet")
	}
	return perr.Wrap(errors.Join(errs...), perr.ErrorCodeSubmission,
		"could not save swipes via "+strings.Join(tried, ", ")+"; try again")
}
