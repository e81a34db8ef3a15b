// Package service implements the match notifier: a small state machine fed by a bounded inbox
package service

import (
	"context"
	"sync"
	"time"

	"basematch/internal/core/swipe"
	"basematch/internal/platform/logger"
	"basematch/internal/platform/metrics"
	dom "basematch/internal/services/matches/domain"
)

// DefaultInbox is the inbox capacity when none is configured
const DefaultInbox = 64

// Config for the notifier
type Config struct {
	Inbox    int
	Resolver dom.Resolver
	Metrics  *metrics.Registry
	// OnFound is called outside the lock whenever a match becomes the displayed one
	OnFound func(dom.Found)
}

// Notifier surfaces matches that involve the local address
type Notifier struct {
	inbox    chan dom.Event
	resolver dom.Resolver
	metrics  *metrics.Registry
	onFound  func(dom.Found)
	log      *logger.Logger

	mu      sync.Mutex
	state   dom.State
	self    string
	current *dom.Found
	pending []dom.Found
	timers  []*time.Timer
}

// New builds an idle notifier
func New(cfg Config) *Notifier {
	if cfg.Inbox <= 0 {
		cfg.Inbox = DefaultInbox
	}
	if cfg.Resolver == nil {
		cfg.Resolver = dom.ResolverFunc(func(string) (dom.Partner, bool) { return dom.Partner{}, false })
	}
	return &Notifier{
		inbox:    make(chan dom.Event, cfg.Inbox),
		resolver: cfg.Resolver,
		metrics:  cfg.Metrics,
		onFound:  cfg.OnFound,
		log:      logger.Named("matches"),
		state:    dom.StateIdle,
	}
}

// Start listens for matches involving self; restarting with another address clears displayed matches
func (n *Notifier) Start(self string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != dom.StateIdle && swipe.SameSubject(n.self, self) {
		return
	}
	n.reset()
	n.self = self
	n.state = dom.StateListening
}

// Stop returns to Idle and forgets displayed and pending matches
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset()
	n.self = ""
	n.state = dom.StateIdle
}

func (n *Notifier) reset() {
	for _, t := range n.timers {
		t.Stop()
	}
	n.timers = nil
	n.current = nil
	n.pending = nil
}

// State reports the current state
func (n *Notifier) State() dom.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Current is the displayed match, if any
func (n *Notifier) Current() (dom.Found, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return dom.Found{}, false
	}
	return *n.current, true
}

// Pending is the number of matches waiting behind the displayed one
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

// Offer puts an event in the inbox without blocking; it reports false when the inbox was full
func (n *Notifier) Offer(ev dom.Event) bool {
	select {
	case n.inbox <- ev:
		return true
	default:
		n.metrics.InboxDrop()
		n.log.Warn().Str("user1", ev.User1).Str("user2", ev.User2).Msg("match inbox full; dropping event")
		return false
	}
}

// Predict schedules a locally predicted match with p after delay
func (n *Notifier) Predict(p dom.Partner, after time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == dom.StateIdle {
		return
	}
	self := n.self
	ev := dom.Event{User1: self, User2: p.Address, Source: dom.SourcePredicted, Partner: &p}
	n.timers = append(n.timers, time.AfterFunc(after, func() { n.Offer(ev) }))
}

// Run drains the inbox until ctx ends
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-n.inbox:
			n.Handle(ev)
		}
	}
}

// Handle applies one event. Events not involving the local address are ignored
func (n *Notifier) Handle(ev dom.Event) {
	n.mu.Lock()
	if n.state == dom.StateIdle {
		n.mu.Unlock()
		return
	}
	var other string
	switch {
	case swipe.SameSubject(ev.User1, n.self):
		other = ev.User2
	case swipe.SameSubject(ev.User2, n.self):
		other = ev.User1
	default:
		n.mu.Unlock()
		return
	}

	f := dom.Found{Partner: n.partner(ev, other), Source: ev.Source, TxHash: ev.TxHash}
	if f.Source == "" {
		f.Source = dom.SourceLedger
	}
	if n.state == dom.StateMatchFound {
		n.pending = append(n.pending, f)
		n.mu.Unlock()
		return
	}
	n.current = &f
	n.state = dom.StateMatchFound
	n.mu.Unlock()

	n.found(f)
}

func (n *Notifier) partner(ev dom.Event, other string) dom.Partner {
	if ev.Partner != nil {
		return *ev.Partner
	}
	if p, ok := n.resolver.Resolve(other); ok {
		return p
	}
	return dom.Placeholder(other)
}

// Dismiss closes the displayed match and surfaces the next pending one, FIFO
func (n *Notifier) Dismiss() (next dom.Found, ok bool) {
	n.mu.Lock()
	if n.state != dom.StateMatchFound {
		n.mu.Unlock()
		return dom.Found{}, false
	}
	if len(n.pending) == 0 {
		n.current = nil
		n.state = dom.StateListening
		n.mu.Unlock()
		return dom.Found{}, false
	}
	next = n.pending[0]
	n.pending = n.pending[1:]
	n.current = &next
	n.mu.Unlock()

	n.found(next)
	return next, true
}

func (n *Notifier) found(f dom.Found) {
	n.metrics.Match(f.Source)
	n.log.Info().Str("partner", f.Partner.Address).Str("source", f.Source).Msg("match found")
	if n.onFound != nil {
		n.onFound(f)
	}
}
