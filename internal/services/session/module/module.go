// Package module wires the swipe session, its commit pipeline and its match feed
package module

import (
	"context"
	"sync"

	"basematch/internal/adapters/ledger"
	"basematch/internal/adapters/neynar"
	"basematch/internal/modkit"
	"basematch/internal/modkit/httpkit"
	"basematch/internal/platform/logger"
	candsvc "basematch/internal/services/candidates/service"
	commitdom "basematch/internal/services/commit/domain"
	commitrepo "basematch/internal/services/commit/repo"
	commitsvc "basematch/internal/services/commit/service"
	decmod "basematch/internal/services/decisions/module"
	matchdom "basematch/internal/services/matches/domain"
	matchsvc "basematch/internal/services/matches/service"
	dom "basematch/internal/services/session/domain"
	sessionhttp "basematch/internal/services/session/http"
	svc "basematch/internal/services/session/service"
)

// Module owns one session and the goroutines that feed it
type Module struct {
	deps  modkit.Deps
	built modkit.Built
	ports Ports

	session  *svc.Session
	notifier *matchsvc.Notifier
	hub      *svc.Hub
	watcher  *ledger.Watcher

	closers []func()
	log     *logger.Logger
}

// New constructs the session module. Non zero fields of overrides win over config
func New(ctx context.Context, deps modkit.Deps, overrides Options, opts ...modkit.Option) (*Module, error) {
	o := merge(FromConfig(deps.Cfg), overrides)
	m := &Module{deps: deps, log: logger.Named("session.module")}

	store, err := decmod.Open(ctx, deps.Backends(), decmod.FromConfig(deps.Cfg))
	if err != nil {
		return nil, err
	}

	contract, err := ledger.NewContract(o.Contract)
	if err != nil {
		return nil, err
	}

	// strategies and the session take interfaces; a nil *Wallet must stay an untyped nil
	var (
		batch  commitsvc.BatchSender
		sender commitsvc.TxSender
		wallet dom.Wallet
	)
	if o.WalletRPC != "" {
		w, rc, err := ledger.DialWallet(ctx, o.WalletRPC)
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, rc.Close)
		batch, sender, wallet = w, w, w
	} else {
		m.log.Warn().Msg("BASEMATCH_WALLET_RPC not set; commits will fail with not connected")
	}

	smart, err := commitsvc.NewSmartWallet(batch, o.SmartWallet, o.BuilderCode)
	if err != nil {
		return nil, err
	}
	var journal commitdom.Journal = commitrepo.Discard{}
	if ch := deps.Backends().CH; ch != nil {
		journal = commitrepo.NewClickHouse(ch)
	}
	pipeline := commitsvc.New(contract, commitsvc.Config{
		ChainID:    o.ChainID,
		Strategies: []commitsvc.Strategy{smart, commitsvc.NewDirect(sender)},
		Journal:    journal,
		Metrics:    deps.Metrics,
	})

	supply := candsvc.New(neynar.NewClient(neynar.Options{
		BaseURL:    o.NeynarBaseURL,
		APIKey:     o.NeynarAPIKey,
		RatePerSec: o.NeynarRPS,
	}), candsvc.Config{Batch: o.NeynarBatch, Metrics: deps.Metrics})

	m.hub = svc.NewHub(o.HubBuffer)

	// the notifier and the session reference each other through callbacks
	var session *svc.Session
	m.notifier = matchsvc.New(matchsvc.Config{
		Inbox:    o.MatchInbox,
		Metrics:  deps.Metrics,
		Resolver: matchdom.ResolverFunc(func(addr string) (matchdom.Partner, bool) { return session.Resolve(addr) }),
		OnFound:  func(f matchdom.Found) { session.OnMatch(f) },
	})

	cfg := svc.Config{ChainID: o.ChainID, PredictDelay: o.PredictDelay, ClientFID: o.ClientFID}
	if o.PredictOn {
		p := o.Odds
		cfg.Odds = &p
	}
	session = svc.New(svc.Deps{
		Store:    store,
		Commit:   pipeline,
		Supply:   supply,
		Wallet:   wallet,
		Notifier: m.notifier,
		Hub:      m.hub,
		Metrics:  deps.Metrics,
	}, cfg)
	if err := session.Load(ctx); err != nil {
		m.Close()
		return nil, err
	}
	m.session = session

	if o.EventsWS != "" {
		ec, err := ledger.DialEvents(ctx, o.EventsWS)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.closers = append(m.closers, ec.Close)
		m.watcher = ledger.NewWatcher(ec, contract, 0)
	}

	m.ports = Ports{Store: store, Commit: pipeline, Notifier: m.notifier}
	m.built = modkit.Build(append([]modkit.Option{
		modkit.WithName("session"),
		modkit.WithPorts(m.ports),
		modkit.WithRegister(func(r httpkit.Router) { sessionhttp.Register(r, m.session) }),
	}, opts...)...)

	m.log.Info().
		Uint64("chain_id", o.ChainID).
		Str("contract", contract.Address().Hex()).
		Strs("strategies", pipeline.Order()).
		Bool("match_feed", m.watcher != nil).
		Bool("predict", o.PredictOn).
		Msg("session module ready")
	return m, nil
}

// Session returns the owned session
func (m *Module) Session() *svc.Session { return m.session }

// Hub returns the session event feed
func (m *Module) Hub() *svc.Hub { return m.hub }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// MountRoutes mounts the session endpoints
func (m *Module) MountRoutes(r httpkit.Router) { m.built.Mount(r) }

// Run drives automatic commits, the match inbox and the ledger subscription until ctx ends.
// It tries to restore a previously connected identity first
func (m *Module) Run(ctx context.Context) error {
	if _, err := m.session.SyncIdentity(ctx); err != nil {
		m.log.Debug().Err(err).Msg("no identity restored")
	}

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				m.log.Error().Err(err).Str("loop", name).Msg("session loop stopped")
			}
		}()
	}
	run("commit", m.session.Run)
	run("matches", m.notifier.Run)
	if m.watcher != nil {
		run("ledger", func(ctx context.Context) error {
			return m.watcher.Watch(ctx, func(x ledger.Match) {
				m.notifier.Offer(matchdom.Event{
					User1:  x.User1.Hex(),
					User2:  x.User2.Hex(),
					TxHash: x.TxHash.Hex(),
					Source: matchdom.SourceLedger,
				})
			})
		})
	}
	wg.Wait()
	return nil
}

// Close releases RPC clients
func (m *Module) Close() {
	for i := len(m.closers) - 1; i >= 0; i-- {
		m.closers[i]()
	}
	m.closers = nil
}

func merge(o, x Options) Options {
	if x.ChainID != 0 {
		o.ChainID = x.ChainID
	}
	if x.Contract != "" {
		o.Contract = x.Contract
	}
	if x.WalletRPC != "" {
		o.WalletRPC = x.WalletRPC
	}
	if x.EventsWS != "" {
		o.EventsWS = x.EventsWS
	}
	if x.BuilderCode != "" {
		o.BuilderCode = x.BuilderCode
	}
	if x.MatchInbox != 0 {
		o.MatchInbox = x.MatchInbox
	}
	if x.HubBuffer != 0 {
		o.HubBuffer = x.HubBuffer
	}
	if x.PredictOn {
		o.PredictOn = true
	}
	if x.PredictDelay != 0 {
		o.PredictDelay = x.PredictDelay
	}
	if x.ClientFID != 0 {
		o.ClientFID = x.ClientFID
	}
	if x.NeynarBaseURL != "" {
		o.NeynarBaseURL = x.NeynarBaseURL
	}
	if x.NeynarAPIKey != "" {
		o.NeynarAPIKey = x.NeynarAPIKey
	}
	if x.NeynarBatch != 0 {
		o.NeynarBatch = x.NeynarBatch
	}
	if x.NeynarRPS != 0 {
		o.NeynarRPS = x.NeynarRPS
	}
	return o
}
