package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	perr "basematch/internal/platform/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 provider error codes the wallet may return
const (
	codeUserRejected   = 4001
	codeUnauthorized   = 4100
	codeUnsupported    = 4200
	codeDisconnected   = 4900
	codeChainNotAdded  = 4902
	codeAtomicRequired = 5760
)

// Caller is the JSON-RPC surface the wallet needs; *rpc.Client implements it
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// Wallet is a client for the signing wallet's JSON-RPC endpoint. It never holds keys
type Wallet struct {
	c Caller
}

// NewWallet wraps an RPC caller
func NewWallet(c Caller) *Wallet {
	if c == nil {
		panic("ledger.NewWallet requires a non nil caller")
	}
	return &Wallet{c: c}
}

// DialWallet connects to a wallet endpoint over http(s) or ws(s)
func DialWallet(ctx context.Context, url string) (*Wallet, *rpc.Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "dial wallet rpc")
	}
	return NewWallet(c), c, nil
}

// RequestAccounts asks the wallet to connect and returns the exposed accounts
func (w *Wallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var out []common.Address
	if err := w.c.CallContext(ctx, &out, "eth_requestAccounts"); err != nil {
		return nil, walletErr(err, "eth_requestAccounts")
	}
	return out, nil
}

// Accounts returns the already-authorized accounts without prompting
func (w *Wallet) Accounts(ctx context.Context) ([]common.Address, error) {
	var out []common.Address
	if err := w.c.CallContext(ctx, &out, "eth_accounts"); err != nil {
		return nil, walletErr(err, "eth_accounts")
	}
	return out, nil
}

// ChainID returns the wallet's active chain
func (w *Wallet) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	if err := w.c.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, walletErr(err, "eth_chainId")
	}
	return uint64(id), nil
}

type switchChainParams struct {
	ChainID hexutil.Uint64 `json:"chainId"`
}

// SwitchChain asks the wallet to change its active chain
func (w *Wallet) SwitchChain(ctx context.Context, chainID uint64) error {
	err := w.c.CallContext(ctx, nil, "wallet_switchEthereumChain", switchChainParams{ChainID: hexutil.Uint64(chainID)})
	return walletErr(err, "wallet_switchEthereumChain")
}

// Call is one entry of an EIP-5792 batch
type Call struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// DataSuffixCapability carries the ERC-8021 attribution suffix
type DataSuffixCapability struct {
	Value    hexutil.Bytes `json:"value"`
	Optional bool          `json:"optional"`
}

// Capabilities are the EIP-5792 capabilities requested for a batch
type Capabilities struct {
	DataSuffix *DataSuffixCapability `json:"dataSuffix,omitempty"`
}

// SendCallsRequest is the wallet_sendCalls parameter object
type SendCallsRequest struct {
	Version        string         `json:"version"`
	From           common.Address `json:"from"`
	ChainID        hexutil.Uint64 `json:"chainId"`
	AtomicRequired bool           `json:"atomicRequired"`
	Calls          []Call         `json:"calls"`
	Capabilities   *Capabilities  `json:"capabilities,omitempty"`
}

// SendCalls submits an EIP-5792 batch and returns the wallet's batch id
func (w *Wallet) SendCalls(ctx context.Context, req SendCallsRequest) (string, error) {
	if req.Version == "" {
		req.Version = "2.0.0"
	}
	var raw json.RawMessage
	if err := w.c.CallContext(ctx, &raw, "wallet_sendCalls", req); err != nil {
		return "", walletErr(err, "wallet_sendCalls")
	}
	id, err := batchID(raw)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeSubmission, "wallet_sendCalls returned no id")
	}
	return id, nil
}

// wallets answer wallet_sendCalls with a bare string (older drafts) or {"id": ...}
func batchID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != "" {
		return obj.ID, nil
	}
	return "", errors.New("unrecognized result " + strings.TrimSpace(string(raw)))
}

// TxRequest is the eth_sendTransaction parameter object
type TxRequest struct {
	From    common.Address  `json:"from"`
	To      common.Address  `json:"to"`
	Data    hexutil.Bytes   `json:"data"`
	ChainID *hexutil.Uint64 `json:"chainId,omitempty"`
}

// SendTransaction asks the wallet to sign and broadcast a plain transaction
func (w *Wallet) SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error) {
	var h common.Hash
	if err := w.c.CallContext(ctx, &h, "eth_sendTransaction", tx); err != nil {
		return common.Hash{}, walletErr(err, "eth_sendTransaction")
	}
	return h, nil
}

// walletErr maps EIP-1193 provider codes onto project error codes
func walletErr(err error, method string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, method+" interrupted")
	}
	var re rpc.Error
	if errors.As(err, &re) {
		switch re.ErrorCode() {
		case codeUserRejected:
			return perr.Wrap(err, perr.ErrorCodeRejected, method+" rejected by wallet")
		case codeUnauthorized, codeDisconnected:
			return perr.Wrap(err, perr.ErrorCodeNotConnected, method+" not authorized")
		case codeChainNotAdded:
			return perr.Wrap(err, perr.ErrorCodeWrongNetwork, method+": chain not added to wallet")
		case codeUnsupported, codeAtomicRequired:
			return perr.Wrap(err, perr.ErrorCodeSubmission, method+" unsupported by wallet")
		}
		return perr.Wrap(err, perr.ErrorCodeSubmission, method+" failed")
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, method+" transport error")
}
