// Package ledger talks to Base: it encodes the batchSwipe write, submits it through the
// connected wallet and follows NewMatch logs emitted by the swipe contract
package ledger

import (
	"fmt"
	"strings"

	perr "basematch/internal/platform/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultContract is the deployed swipe contract on Base mainnet
const DefaultContract = "0x3C5F31E167bA64Bc693B4d32517e2f81d61Bc64A"

// BaseChainID is Base mainnet
const BaseChainID uint64 = 8453

const swipeABI = `[
  {"type":"function","name":"batchSwipe","stateMutability":"nonpayable","outputs":[],
   "inputs":[{"name":"targets","type":"address[]"},{"name":"likes","type":"bool[]"}]},
  {"type":"event","name":"NewMatch","anonymous":false,
   "inputs":[{"name":"user1","type":"address","indexed":true},{"name":"user2","type":"address","indexed":true}]}
]`

// Contract binds the swipe ABI to a deployed address
type Contract struct {
	addr common.Address
	abi  abi.ABI
}

// NewContract parses the ABI and validates the address
func NewContract(address string) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, perr.InvalidArgf("contract address %q is not a hex address", address)
	}
	parsed, err := abi.JSON(strings.NewReader(swipeABI))
	if err != nil {
		return nil, fmt.Errorf("parse swipe abi: %w", err)
	}
	return &Contract{addr: common.HexToAddress(address), abi: parsed}, nil
}

// Address is the contract address
func (c *Contract) Address() common.Address { return c.addr }

// PackBatchSwipe encodes batchSwipe(targets, likes). Equal inputs always yield equal bytes
func (c *Contract) PackBatchSwipe(subjects []string, liked []bool) ([]byte, error) {
	if len(subjects) != len(liked) {
		return nil, perr.InvalidArgf("batchSwipe arrays differ in length: %d targets, %d likes", len(subjects), len(liked))
	}
	targets := make([]common.Address, len(subjects))
	for i, s := range subjects {
		if !common.IsHexAddress(s) {
			return nil, perr.WithField(perr.InvalidArgf("target %d (%q) is not a hex address", i, s), "subject_id")
		}
		targets[i] = common.HexToAddress(s)
	}
	return c.abi.Pack("batchSwipe", targets, liked)
}

// Unpack decodes batchSwipe calldata back into its arrays
func (c *Contract) Unpack(calldata []byte) (targets []common.Address, likes []bool, err error) {
	if len(calldata) < 4 {
		return nil, nil, perr.InvalidArgf("calldata too short")
	}
	m, err := c.abi.MethodById(calldata[:4])
	if err != nil || m.Name != "batchSwipe" {
		return nil, nil, perr.InvalidArgf("calldata is not batchSwipe")
	}
	vals, err := m.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "unpack batchSwipe")
	}
	return vals[0].([]common.Address), vals[1].([]bool), nil
}

// MatchTopic is topic[0] of NewMatch logs
func (c *Contract) MatchTopic() common.Hash { return c.abi.Events["NewMatch"].ID }

// Match is one decoded NewMatch log
type Match struct {
	User1   common.Address
	User2   common.Address
	TxHash  common.Hash
	Block   uint64
	Removed bool
}

// Involves reports whether addr is one of the two parties
func (m Match) Involves(addr common.Address) bool { return m.User1 == addr || m.User2 == addr }

// Partner returns the other party for self; ok is false when self is not involved
func (m Match) Partner(self common.Address) (common.Address, bool) {
	switch self {
	case m.User1:
		return m.User2, true
	case m.User2:
		return m.User1, true
	}
	return common.Address{}, false
}

// DecodeMatch reads user1 and user2 out of the indexed topics
func (c *Contract) DecodeMatch(l types.Log) (Match, error) {
	if len(l.Topics) != 3 || l.Topics[0] != c.MatchTopic() {
		return Match{}, perr.InvalidArgf("log is not NewMatch (topics=%d)", len(l.Topics))
	}
	return Match{
		User1:   common.BytesToAddress(l.Topics[1].Bytes()),
		User2:   common.BytesToAddress(l.Topics[2].Bytes()),
		TxHash:  l.TxHash,
		Block:   l.BlockNumber,
		Removed: l.Removed,
	}, nil
}

// Canonical returns the EIP-55 form of a hex address; ok is false for anything else
func Canonical(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", false
	}
	return common.HexToAddress(s).Hex(), true
}
