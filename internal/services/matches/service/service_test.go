package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"basematch/internal/platform/metrics"
	kit "basematch/internal/platform/testkit"
	dom "basematch/internal/services/matches/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var self = kit.Addr(0xabcdef)

func known() dom.Resolver {
	return dom.ResolverFunc(func(addr string) (dom.Partner, bool) {
		if strings.EqualFold(addr, kit.Addr(2)) {
			return dom.Partner{Address: kit.Addr(2), FID: 42, Username: "alice", DisplayName: "Alice"}, true
		}
		return dom.Partner{}, false
	})
}

func TestNotifier_StateMachine(t *testing.T) {
	var mu sync.Mutex
	var seen []dom.Found
	m := metrics.New()
	n := New(Config{Resolver: known(), Metrics: m, OnFound: func(f dom.Found) {
		mu.Lock()
		seen = append(seen, f)
		mu.Unlock()
	}})

	if n.State() != dom.StateIdle {
		t.Fatalf("initial state = %s", n.State())
	}
	n.Handle(dom.Event{User1: self, User2: kit.Addr(2)})
	if n.State() != dom.StateIdle {
		t.Fatalf("idle notifier reacted to an event")
	}

	n.Start(self)
	if n.State() != dom.StateListening {
		t.Fatalf("state after Start = %s", n.State())
	}

	n.Handle(dom.Event{User1: kit.Addr(5), User2: kit.Addr(6)})
	if n.State() != dom.StateListening {
		t.Fatalf("unrelated match changed state")
	}

	// case-insensitive on the local address
	n.Handle(dom.Event{User1: kit.Addr(2), User2: "0x" + strings.ToUpper(self[2:]), TxHash: "0xt1"})
	n.Handle(dom.Event{User1: "0x" + strings.ToUpper(self[2:]), User2: kit.Addr(3)})
	n.Handle(dom.Event{User1: self, User2: kit.Addr(4)})

	cur, ok := n.Current()
	if !ok || n.State() != dom.StateMatchFound || cur.Partner.Username != "alice" || cur.TxHash != "0xt1" || cur.Source != dom.SourceLedger {
		t.Fatalf("current = %+v ok=%v", cur, ok)
	}
	if n.Pending() != 2 {
		t.Fatalf("pending = %d", n.Pending())
	}

	next, ok := n.Dismiss()
	if !ok || next.Partner.Address != kit.Addr(3) || next.Partner.DisplayName != dom.PlaceholderDisplayName || next.Partner.Username != dom.PlaceholderUsername {
		t.Fatalf("next = %+v", next)
	}
	next, _ = n.Dismiss()
	if next.Partner.Address != kit.Addr(4) {
		t.Fatalf("FIFO broken: %+v", next)
	}
	if _, ok := n.Dismiss(); ok || n.State() != dom.StateListening {
		t.Fatalf("final dismiss should return to listening, state = %s", n.State())
	}
	if _, ok := n.Dismiss(); ok {
		t.Fatalf("dismiss while listening reported a match")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("OnFound calls = %d", len(seen))
	}
	if v := testutil.ToFloat64(m.Matches.WithLabelValues(dom.SourceLedger)); v != 3 {
		t.Fatalf("matches metric = %v", v)
	}

	n.Stop()
	if n.State() != dom.StateIdle {
		t.Fatalf("state after Stop = %s", n.State())
	}
}

func TestNotifier_StartSwitchesAddress(t *testing.T) {
	n := New(Config{})
	n.Start(self)
	n.Handle(dom.Event{User1: self, User2: kit.Addr(9)})
	n.Start(strings.ToUpper(self))
	if n.State() != dom.StateMatchFound {
		t.Fatalf("restart with the same address reset the notifier")
	}
	n.Start(kit.Addr(7))
	if _, ok := n.Current(); ok || n.State() != dom.StateListening {
		t.Fatalf("new address kept the previous match")
	}
}

func TestNotifier_InboxDropsWhenFull(t *testing.T) {
	m := metrics.New()
	n := New(Config{Inbox: 1, Metrics: m})
	if !n.Offer(dom.Event{User1: self}) {
		t.Fatalf("first offer rejected")
	}
	if n.Offer(dom.Event{User1: self}) {
		t.Fatalf("second offer accepted past capacity")
	}
	if v := testutil.ToFloat64(m.InboxDropped); v != 1 {
		t.Fatalf("dropped metric = %v", v)
	}
}

func TestNotifier_RunDrainsInbox(t *testing.T) {
	n := New(Config{})
	n.Start(self)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	n.Offer(dom.Event{User1: kit.Addr(8), User2: self})
	kit.Eventually(t, time.Second, func() bool { return n.State() == dom.StateMatchFound })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run = %v", err)
	}
}

func TestNotifier_Predict(t *testing.T) {
	n := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx) }()

	n.Predict(dom.Partner{Address: kit.Addr(3)}, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	if n.State() != dom.StateIdle {
		t.Fatalf("prediction surfaced while idle")
	}

	n.Start(self)
	p := dom.Partner{Address: kit.Addr(3), Username: "bob", DisplayName: "Bob"}
	n.Predict(p, time.Millisecond)
	kit.Eventually(t, time.Second, func() bool { return n.State() == dom.StateMatchFound })
	cur, _ := n.Current()
	if cur.Source != dom.SourcePredicted || cur.Partner.Username != "bob" {
		t.Fatalf("current = %+v", cur)
	}

	n.Predict(p, time.Hour)
	n.Stop()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.timers) != 0 {
		t.Fatalf("Stop kept timers")
	}
}

func TestChatLink(t *testing.T) {
	p := dom.Partner{Address: kit.Addr(2), FID: 42, Username: "alice"}
	tests := []struct {
		name   string
		p      dom.Partner
		client int64
		want   string
	}{
		{"warpcast inbox", p, dom.WarpcastClientFID, "https://warpcast.com/~/inbox/create/42"},
		{"profile", p, 0, "https://warpcast.com/alice"},
		{"placeholder", dom.Placeholder(kit.Addr(2)), 0, "https://basescan.org/address/" + kit.Addr(2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dom.ChatLink(tt.p, tt.client); got != tt.want {
				t.Fatalf("ChatLink = %q, want %q", got, tt.want)
			}
		})
	}
}
