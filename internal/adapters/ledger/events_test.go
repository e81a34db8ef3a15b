package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kit "basematch/internal/platform/testkit"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

type fakeSubscriber struct {
	mu    sync.Mutex
	calls int
	fail  int
	q     ethereum.FilterQuery
	logs  []types.Log
	drop  bool
}

func (f *fakeSubscriber) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.q = q
	logs := f.logs
	drop := f.drop
	f.mu.Unlock()
	if call <= f.fail {
		return nil, errors.New("ws: connection refused")
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		for _, l := range logs {
			select {
			case ch <- l:
			case <-quit:
				return nil
			}
		}
		if drop && call == f.fail+1 {
			return errors.New("ws: reset")
		}
		<-quit
		return nil
	}), nil
}

func (f *fakeSubscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func matchLog(c *Contract, a, b int, removed bool) types.Log {
	return types.Log{
		Topics: []common.Hash{
			c.MatchTopic(),
			common.BytesToHash(common.HexToAddress(kit.Addr(a)).Bytes()),
			common.BytesToHash(common.HexToAddress(kit.Addr(b)).Bytes()),
		},
		Removed: removed,
	}
}

func collect(t *testing.T, w *Watcher, want int) ([]Match, context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var got []Match
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(m Match) {
			mu.Lock()
			got = append(got, m)
			mu.Unlock()
		})
	}()
	kit.Eventually(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= want
	})
	mu.Lock()
	defer mu.Unlock()
	return append([]Match(nil), got...), cancel, done
}

func TestWatcher_DeliversDecodedMatches(t *testing.T) {
	c := mustContract(t)
	bad := types.Log{Topics: []common.Hash{c.MatchTopic()}}
	sub := &fakeSubscriber{logs: []types.Log{matchLog(c, 1, 2, false), bad, matchLog(c, 3, 4, true), matchLog(c, 5, 1, false)}}
	w := NewWatcher(sub, c, time.Millisecond)

	got, cancel, done := collect(t, w, 2)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch = %v", err)
	}
	if len(got) != 2 || got[0].User1 != common.HexToAddress(kit.Addr(1)) || got[1].User1 != common.HexToAddress(kit.Addr(5)) {
		t.Fatalf("matches = %+v", got)
	}
	if len(sub.q.Addresses) != 1 || sub.q.Addresses[0] != c.Address() || sub.q.Topics[0][0] != c.MatchTopic() {
		t.Fatalf("filter = %+v", sub.q)
	}
}

func TestWatcher_ResubscribesAfterFailures(t *testing.T) {
	c := mustContract(t)
	sub := &fakeSubscriber{fail: 2, drop: true, logs: []types.Log{matchLog(c, 1, 2, false)}}
	w := NewWatcher(sub, c, time.Millisecond)

	_, cancel, done := collect(t, w, 2)
	cancel()
	<-done
	if sub.Calls() < 4 {
		t.Fatalf("subscribe calls = %d, want at least 4", sub.Calls())
	}
}

func TestNewWatcher_Defaults(t *testing.T) {
	kit.MustPanic(t, func() { _ = NewWatcher(nil, nil, 0) })
	if w := NewWatcher(&fakeSubscriber{}, mustContract(t), 0); w.backoff != 2*time.Second {
		t.Fatalf("backoff = %v", w.backoff)
	}
}
