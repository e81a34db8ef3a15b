package repokit

import (
	"context"
	"errors"
	"testing"
	"time"

	kit "basematch/internal/platform/testkit"
)

type flaky struct {
	fails int
	calls int
}

func (f *flaky) Guard(context.Context) error {
	f.calls++
	if f.calls <= f.fails {
		return errors.New("redis: down")
	}
	return nil
}

func TestWaitReady(t *testing.T) {
	kit.Swap(t, &sleep, func(context.Context, time.Duration) error { return nil })

	tests := []struct {
		name    string
		fails   int
		tries   int
		wantErr bool
		calls   int
	}{
		{name: "first try", fails: 0, tries: 3, calls: 1},
		{name: "recovers", fails: 2, tries: 3, calls: 3},
		{name: "exhausted", fails: 5, tries: 3, wantErr: true, calls: 3},
		{name: "zero tries means one", fails: 1, tries: 0, wantErr: true, calls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &flaky{fails: tt.fails}
			err := WaitReady(context.Background(), f, tt.tries, time.Millisecond)
			if (err != nil) != tt.wantErr || f.calls != tt.calls {
				t.Fatalf("err=%v calls=%d", err, f.calls)
			}
			if err != nil {
				kit.MustContain(t, err.Error(), "redis: down")
			}
		})
	}
}

func TestWaitReady_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitReady(ctx, &flaky{fails: 9}, 3, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestMustGuard(t *testing.T) {
	kit.MustNotPanic(t, func() { MustGuard(context.Background(), &flaky{}) })
	kit.MustPanic(t, func() { MustGuard(context.Background(), &flaky{fails: 1}) })
}
