package service

import (
	"context"

	"basematch/internal/adapters/ledger"
	dom "basematch/internal/services/commit/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Submission is what every strategy submits: the same calldata to the same contract
type Submission struct {
	From     common.Address
	To       common.Address
	ChainID  uint64
	Calldata []byte
}

// Strategy is one way to get the batch onto the ledger
type Strategy interface {
	Name() string
	// Available gates the strategy on the wallet's capabilities
	Available(id dom.Identity) bool
	Submit(ctx context.Context, s Submission) (txID string, err error)
}

// BatchSender is the EIP-5792 slice of the wallet
type BatchSender interface {
	SendCalls(ctx context.Context, req ledger.SendCallsRequest) (string, error)
}

// TxSender is the plain transaction slice of the wallet
type TxSender interface {
	SendTransaction(ctx context.Context, tx ledger.TxRequest) (common.Hash, error)
}

// SmartWallet submits through wallet_sendCalls with an attribution data suffix
type SmartWallet struct {
	w       BatchSender
	enabled bool
	suffix  []byte
}

// NewSmartWallet builds the batch strategy; enabled reflects the wallet's advertised capability
func NewSmartWallet(w BatchSender, enabled bool, builderCodes ...string) (*SmartWallet, error) {
	if len(builderCodes) == 0 {
		builderCodes = []string{ledger.DefaultBuilderCode}
	}
	suffix, err := ledger.DataSuffix(builderCodes...)
	if err != nil {
		return nil, err
	}
	return &SmartWallet{w: w, enabled: enabled, suffix: suffix}, nil
}

// Name implements Strategy
func (s *SmartWallet) Name() string { return dom.StrategySmartWallet }

// Available implements Strategy
func (s *SmartWallet) Available(id dom.Identity) bool { return s.enabled && s.w != nil && id.Connected }

// Submit implements Strategy
func (s *SmartWallet) Submit(ctx context.Context, in Submission) (string, error) {
	return s.w.SendCalls(ctx, ledger.SendCallsRequest{
		From:    in.From,
		ChainID: hexutil.Uint64(in.ChainID),
		Calls:   []ledger.Call{{To: in.To, Data: in.Calldata}},
		Capabilities: &ledger.Capabilities{
			DataSuffix: &ledger.DataSuffixCapability{Value: s.suffix, Optional: true},
		},
	})
}

// Direct submits a plain transaction carrying the identical calldata
type Direct struct {
	w TxSender
}

// NewDirect builds the fallback strategy
func NewDirect(w TxSender) *Direct { return &Direct{w: w} }

// Name implements Strategy
func (d *Direct) Name() string { return dom.StrategyDirect }

// Available implements Strategy
func (d *Direct) Available(id dom.Identity) bool { return d.w != nil && id.Connected }

// Submit implements Strategy
func (d *Direct) Submit(ctx context.Context, in Submission) (string, error) {
	chain := hexutil.Uint64(in.ChainID)
	h, err := d.w.SendTransaction(ctx, ledger.TxRequest{From: in.From, To: in.To, Data: in.Calldata, ChainID: &chain})
	if err != nil {
		return "", err
	}
	return h.Hex(), nil
}
