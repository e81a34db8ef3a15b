// Package service implements the session: the single owner of swipe state. Every accepted
// transition is persisted before it becomes visible, inside one critical section
package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"basematch/internal/adapters/ledger"
	"basematch/internal/core/odds"
	"basematch/internal/core/swipe"
	perr "basematch/internal/platform/errors"
	"basematch/internal/platform/logger"
	"basematch/internal/platform/metrics"
	canddom "basematch/internal/services/candidates/domain"
	candsvc "basematch/internal/services/candidates/service"
	commitdom "basematch/internal/services/commit/domain"
	matchdom "basematch/internal/services/matches/domain"
	dom "basematch/internal/services/session/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Notifier is the slice of the match notifier the session drives
type Notifier interface {
	Start(self string)
	Stop()
	State() matchdom.State
	Current() (matchdom.Found, bool)
	Dismiss() (matchdom.Found, bool)
	Predict(p matchdom.Partner, after time.Duration)
}

// Config for the session
type Config struct {
	ChainID uint64
	// Odds enables predicted matches on likes; nil disables them
	Odds         *odds.Params
	PredictDelay time.Duration
	// ClientFID is the host client's fid, used to pick chat links
	ClientFID int64
}

// Deps are the collaborators the session owns or drives
type Deps struct {
	Store    dom.Store
	Commit   commitdom.CommitPort
	Supply   canddom.SupplyPort
	Wallet   dom.Wallet
	Notifier Notifier
	Hub      *Hub
	Metrics  *metrics.Registry
}

// Session owns swipe.State, the cached identity and the candidate working set
type Session struct {
	deps Deps
	cfg  Config
	log  *logger.Logger
	set  candsvc.Set

	mu       sync.Mutex
	st       swipe.State
	id       commitdom.Identity
	location string

	// committing spans snapshot through settle
	committing atomic.Bool

	trigger chan struct{}
	draw    func() float64
}

// New builds a session; Load must be called before use
func New(deps Deps, cfg Config) *Session {
	if deps.Store == nil || deps.Commit == nil {
		panic("session.New requires a store and a commit pipeline")
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = ledger.BaseChainID
	}
	if cfg.PredictDelay <= 0 {
		cfg.PredictDelay = 1500 * time.Millisecond
	}
	return &Session{
		deps:    deps,
		cfg:     cfg,
		log:     logger.Named("session"),
		st:      swipe.NewState(0),
		trigger: make(chan struct{}, 1),
		draw:    rand.Float64,
	}
}

// Load restores persisted state. Corrupt data already fell back to defaults in the store
func (s *Session) Load(ctx context.Context) error {
	st, err := s.deps.Store.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
	s.deps.Metrics.SetQueueSize(st.Queue.Len())
	s.log.Info().Int("queue", st.Queue.Len()).Str("gender", string(st.Gender)).Int("saves", st.SaveCount).Msg("session loaded")
	return nil
}

// apply persists next and makes it current; callers hold s.mu
func (s *Session) apply(ctx context.Context, next swipe.State) error {
	if err := s.deps.Store.Save(ctx, next); err != nil {
		return err
	}
	s.st = next
	s.deps.Metrics.SetQueueSize(next.Queue.Len())
	return nil
}

// State returns the current state value
func (s *Session) State() swipe.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// View summarizes the session
func (s *Session) View() dom.View {
	s.mu.Lock()
	v := dom.View{
		QueueSize:     s.st.Queue.Len(),
		QueueCapacity: s.st.Queue.Cap(),
		Gender:        s.st.Gender,
		SaveCount:     s.st.SaveCount,
		Identity:      s.id,
		ExpectedChain: s.cfg.ChainID,
		Location:      s.location,
	}
	s.mu.Unlock()
	v.CommitRunning = s.committing.Load() || s.deps.Commit.InFlight()
	v.Notifier = matchdom.StateIdle
	if s.deps.Notifier != nil {
		v.Notifier = s.deps.Notifier.State()
	}
	return v
}

// Queue returns the pending decisions in order
func (s *Session) Queue() []swipe.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Queue.Snapshot()
}

// SetPreference stores the discovery preference
func (s *Session) SetPreference(ctx context.Context, g swipe.Gender) (dom.View, error) {
	if !g.Valid() {
		return dom.View{}, perr.WithField(perr.InvalidArgf("gender must be male or female"), "gender")
	}
	s.mu.Lock()
	err := s.apply(ctx, s.st.SetPreference(g))
	s.mu.Unlock()
	if err != nil {
		return dom.View{}, err
	}
	return s.View(), nil
}

// Swipe records a decision. Duplicates and decisions past capacity are silent no-ops.
// Filling the queue schedules an automatic commit
func (s *Session) Swipe(ctx context.Context, subject string, liked bool) (dom.SwipeResult, error) {
	id, ok := ledger.Canonical(subject)
	if !ok {
		return dom.SwipeResult{}, perr.WithField(perr.InvalidArgf("subject %q is not an address", subject), "subject_id")
	}
	profile, known := s.set.Find(id)

	s.mu.Lock()
	next, accepted := s.st.Enqueue(id, liked)
	res := dom.SwipeResult{Accepted: accepted, Result: dom.EnqueueAccepted}
	switch {
	case accepted:
		if err := s.apply(ctx, next); err != nil {
			s.mu.Unlock()
			return dom.SwipeResult{}, err
		}
	case s.st.Queue.Contains(id):
		res.Result = dom.EnqueueDuplicate
	default:
		res.Result = dom.EnqueueFull
	}
	res.QueueSize = s.st.Queue.Len()
	res.Full = s.st.Queue.Full()
	saves, mine := s.st.SaveCount, s.location
	s.mu.Unlock()

	if res.Result != dom.EnqueueFull {
		s.set.Remove(id)
	}
	s.deps.Metrics.Enqueue(res.Result)
	if !accepted {
		return res, nil
	}
	s.deps.Hub.Publish(dom.EventQueue, res)
	if res.Full {
		s.Trigger()
	}
	if liked && known {
		s.predict(profile, mine, saves)
	}
	return res, nil
}

func (s *Session) predict(p canddom.Profile, mine string, saves int) {
	if s.cfg.Odds == nil || s.deps.Notifier == nil {
		return
	}
	if !s.cfg.Odds.Roll(s.draw(), mine, p.Location, saves) {
		return
	}
	s.deps.Notifier.Predict(Partner(p), s.cfg.PredictDelay)
}

// Trigger asks the run loop for a commit; repeated triggers coalesce
func (s *Session) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Commit saves the queue through the pipeline. On success the committed prefix is
// settled and persisted; decisions added meanwhile stay queued. On failure nothing changes.
// One commit runs at a time from snapshot to settle; a second call gets ErrorCodeConflict.
// The submission outlives ctx: only the wallet decides a pending signature
func (s *Session) Commit(ctx context.Context) (dom.CommitResult, error) {
	if !s.committing.CompareAndSwap(false, true) {
		return dom.CommitResult{}, perr.Conflictf("a save is already in progress")
	}
	defer s.committing.Store(false)
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	id, snap := s.id, s.st.Queue.Snapshot()
	s.mu.Unlock()

	if err := s.precheck(id, snap); err != nil {
		return dom.CommitResult{}, err
	}
	s.deps.Hub.Publish(dom.EventCommitStarted, map[string]int{"size": len(snap)})
	a, err := s.deps.Commit.Commit(ctx, id, snap)
	if err != nil {
		if a.ID != "" {
			s.deps.Hub.Publish(dom.EventCommitFailed, a)
		}
		return dom.CommitResult{Attempt: a}, err
	}

	s.mu.Lock()
	next := s.st.Settle(len(snap))
	if saveErr := s.apply(ctx, next); saveErr != nil {
		// the batch is on the ledger; keep memory settled so a retry cannot resubmit it
		s.log.Error().Err(saveErr).Str("attempt", a.ID).Msg("persist after confirmed commit failed")
		s.st = next
		s.deps.Metrics.SetQueueSize(next.Queue.Len())
	}
	res := dom.CommitResult{Attempt: a, ShortTx: a.ShortTx(), QueueSize: s.st.Queue.Len(), SaveCount: s.st.SaveCount}
	s.mu.Unlock()

	s.deps.Hub.Publish(dom.EventCommitConfirmed, res)
	return res, nil
}

// precheck fails fast without taking the pipeline guard
func (s *Session) precheck(id commitdom.Identity, snap []swipe.Decision) error {
	if err := s.deps.Commit.Precheck(id); err != nil {
		return err
	}
	if len(snap) == 0 {
		return perr.InvalidArgf("swipe first: nothing to save")
	}
	return nil
}

// LastCommit is the outcome of the most recent attempt
func (s *Session) LastCommit() (commitdom.Attempt, bool) { return s.deps.Commit.Last() }

// Run performs automatic commits until ctx ends. A failed automatic commit leaves the
// queue full; the user retries explicitly
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.trigger:
			res, err := s.Commit(ctx)
			switch {
			case err == nil:
				s.log.Info().Str("tx", res.ShortTx).Msg("automatic commit confirmed")
			case perr.IsCode(err, perr.ErrorCodeConflict):
			default:
				s.log.Warn().Err(err).Msg("automatic commit failed")
			}
		}
	}
}

// Connect requests accounts from the wallet and starts listening for matches
func (s *Session) Connect(ctx context.Context) (commitdom.Identity, error) {
	if s.deps.Wallet == nil {
		return commitdom.Identity{}, perr.NotConnectedf("no wallet endpoint configured")
	}
	accts, err := s.deps.Wallet.RequestAccounts(ctx)
	if err != nil {
		return commitdom.Identity{}, err
	}
	return s.adopt(ctx, accts)
}

// SyncIdentity refreshes the cached identity without prompting the user
func (s *Session) SyncIdentity(ctx context.Context) (commitdom.Identity, error) {
	if s.deps.Wallet == nil {
		return commitdom.Identity{}, nil
	}
	accts, err := s.deps.Wallet.Accounts(ctx)
	if err != nil {
		return commitdom.Identity{}, err
	}
	return s.adopt(ctx, accts)
}

func (s *Session) adopt(ctx context.Context, accts []common.Address) (commitdom.Identity, error) {
	id := commitdom.Identity{}
	if len(accts) > 0 {
		chain, err := s.deps.Wallet.ChainID(ctx)
		if err != nil {
			return commitdom.Identity{}, err
		}
		id = commitdom.Identity{Address: accts[0].Hex(), ChainID: chain, Connected: true}
	}

	s.mu.Lock()
	s.id = id
	s.mu.Unlock()

	if s.deps.Notifier != nil {
		if id.Connected {
			s.deps.Notifier.Start(id.Address)
		} else {
			s.deps.Notifier.Stop()
		}
	}
	s.deps.Hub.Publish(dom.EventIdentity, id)
	return id, nil
}

// SwitchNetwork asks the wallet to move to the expected chain and re-reads the chain id
func (s *Session) SwitchNetwork(ctx context.Context) (commitdom.Identity, error) {
	if s.deps.Wallet == nil {
		return commitdom.Identity{}, perr.NotConnectedf("no wallet endpoint configured")
	}
	if err := s.deps.Wallet.SwitchChain(ctx, s.cfg.ChainID); err != nil {
		return commitdom.Identity{}, err
	}
	chain, err := s.deps.Wallet.ChainID(ctx)
	if err != nil {
		return commitdom.Identity{}, err
	}
	s.mu.Lock()
	s.id.ChainID = chain
	id := s.id
	s.mu.Unlock()
	s.deps.Hub.Publish(dom.EventIdentity, id)
	return id, nil
}

// Identity is the cached signing identity
func (s *Session) Identity() commitdom.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Locate sets the viewer's location from their profile, falling back to fallback
func (s *Session) Locate(ctx context.Context, fid int64, fallback string) string {
	loc := ""
	if s.deps.Supply != nil && fid > 0 {
		var err error
		if loc, err = s.deps.Supply.Locate(ctx, fid); err != nil {
			s.log.Warn().Err(err).Int64("fid", fid).Msg("locate viewer failed")
		}
	}
	if loc == "" {
		loc = fallback
	}
	s.mu.Lock()
	s.location = loc
	s.mu.Unlock()
	return loc
}

// Refresh replaces the working set with a fresh batch
func (s *Session) Refresh(ctx context.Context) ([]canddom.Profile, error) {
	if s.deps.Supply == nil {
		return nil, perr.Unavailablef("no profile supply configured")
	}
	s.mu.Lock()
	loc := s.location
	s.mu.Unlock()

	ps, err := s.deps.Supply.Fetch(ctx, loc)
	if err != nil {
		return nil, err
	}
	s.set.Replace(ps)
	return s.Candidates(), nil
}

// Candidates is the visible working set: other gender only, queued subjects hidden
func (s *Session) Candidates() []canddom.Profile {
	s.mu.Lock()
	g, q := s.st.Gender, s.st.Queue
	s.mu.Unlock()
	return s.set.Visible(g, q)
}

// Resolve implements matches.Resolver over the working set
func (s *Session) Resolve(addr string) (matchdom.Partner, bool) {
	p, ok := s.set.Find(addr)
	if !ok {
		return matchdom.Partner{}, false
	}
	return Partner(p), true
}

// CurrentMatch is the displayed match with its chat link
func (s *Session) CurrentMatch() (MatchView, bool) {
	if s.deps.Notifier == nil {
		return MatchView{}, false
	}
	f, ok := s.deps.Notifier.Current()
	if !ok {
		return MatchView{}, false
	}
	return MatchView{Found: f, ChatURL: matchdom.ChatLink(f.Partner, s.cfg.ClientFID)}, true
}

// DismissMatch closes the displayed match and returns the next one, if any
func (s *Session) DismissMatch() (MatchView, bool) {
	if s.deps.Notifier == nil {
		return MatchView{}, false
	}
	f, ok := s.deps.Notifier.Dismiss()
	if !ok {
		return MatchView{}, false
	}
	return MatchView{Found: f, ChatURL: matchdom.ChatLink(f.Partner, s.cfg.ClientFID)}, true
}

// OnMatch publishes a surfaced match on the feed; wire it as the notifier's OnFound
func (s *Session) OnMatch(f matchdom.Found) {
	s.deps.Hub.Publish(dom.EventMatch, MatchView{Found: f, ChatURL: matchdom.ChatLink(f.Partner, s.cfg.ClientFID)})
}

// MatchView is a match ready to render
type MatchView struct {
	matchdom.Found
	ChatURL string `json:"chat_url"`
}

// Partner converts a candidate to the match partner view
func Partner(p canddom.Profile) matchdom.Partner {
	return matchdom.Partner{
		Address:     p.SubjectID,
		FID:         p.FID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		PfpURL:      p.PfpURL,
	}
}
