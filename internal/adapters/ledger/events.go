package ledger

import (
	"context"
	"time"

	perr "basematch/internal/platform/errors"
	"basematch/internal/platform/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// LogSubscriber is the slice of ethclient the watcher uses
type LogSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// DialEvents opens a websocket client for log subscriptions
func DialEvents(ctx context.Context, url string) (*ethclient.Client, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "dial events endpoint")
	}
	return c, nil
}

// Watcher streams NewMatch logs for one contract and resubscribes after drops
type Watcher struct {
	sub     LogSubscriber
	c       *Contract
	backoff time.Duration
	log     *logger.Logger
}

// NewWatcher builds a watcher; backoff defaults to 2s
func NewWatcher(sub LogSubscriber, c *Contract, backoff time.Duration) *Watcher {
	if sub == nil || c == nil {
		panic("ledger.NewWatcher requires a subscriber and a contract")
	}
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &Watcher{sub: sub, c: c, backoff: backoff, log: logger.Named("ledger.watch")}
}

// Query is the filter used for the subscription
func (w *Watcher) Query() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{w.c.Address()},
		Topics:    [][]common.Hash{{w.c.MatchTopic()}},
	}
}

// Watch delivers decoded matches to emit until ctx ends. emit must not block for long;
// the caller owns buffering. Removed (reorged) logs are skipped
func (w *Watcher) Watch(ctx context.Context, emit func(Match)) error {
	for {
		err := w.once(ctx, emit)
		if ctx.Err() != nil {
			return nil
		}
		w.log.Warn().Err(err).Dur("retry_in", w.backoff).Msg("match subscription dropped")
		t := time.NewTimer(w.backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (w *Watcher) once(ctx context.Context, emit func(Match)) error {
	logs := make(chan types.Log, 16)
	sub, err := w.sub.SubscribeFilterLogs(ctx, w.Query(), logs)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	w.log.Info().Str("contract", w.c.Address().Hex()).Msg("watching NewMatch")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = perr.Unavailablef("subscription closed")
			}
			return err
		case l := <-logs:
			m, err := w.c.DecodeMatch(l)
			if err != nil {
				w.log.Warn().Err(err).Str("tx", l.TxHash.Hex()).Msg("skipping undecodable log")
				continue
			}
			if m.Removed {
				continue
			}
			emit(m)
		}
	}
}
