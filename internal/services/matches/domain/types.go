// Package domain defines the match notifier states and the partner view shown on a match
package domain

import "strconv"

// State of the notifier
type State string

// States
const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateMatchFound State = "match_found"
)

// Sources a match can come from
const (
	SourceLedger    = "ledger"
	SourcePredicted = "predicted"
)

// WarpcastClientFID identifies the Warpcast client in mini app context
const WarpcastClientFID = 9152

// Placeholder values for a partner missing from the loaded candidates
const (
	PlaceholderDisplayName = "Match!"
	PlaceholderUsername    = "Unknown"
)

// Partner is the other side of a match
type Partner struct {
	Address     string `json:"address"`
	FID         int64  `json:"fid,omitempty"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	PfpURL      string `json:"pfp_url,omitempty"`
}

// Placeholder builds the partner shown when only the address is known
func Placeholder(addr string) Partner {
	return Partner{Address: addr, Username: PlaceholderUsername, DisplayName: PlaceholderDisplayName}
}

// Event is one NewMatch occurrence, or a locally predicted one
type Event struct {
	User1  string `json:"user1"`
	User2  string `json:"user2"`
	TxHash string `json:"tx_hash,omitempty"`
	Source string `json:"source"`

	// Partner is set on predicted events, whose subject already left the candidate set
	Partner *Partner `json:"-"`
}

// Found is a match ready to display
type Found struct {
	Partner Partner `json:"partner"`
	Source  string  `json:"source"`
	TxHash  string  `json:"tx_hash,omitempty"`
}

// Resolver looks a partner up among the loaded candidates
type Resolver interface {
	Resolve(addr string) (Partner, bool)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(addr string) (Partner, bool)

// Resolve implements Resolver
func (f ResolverFunc) Resolve(addr string) (Partner, bool) { return f(addr) }

// ChatLink returns where the user can reach the partner: the Warpcast inbox when
// running inside Warpcast, the Warpcast profile when a username is known, basescan otherwise
func ChatLink(p Partner, clientFID int64) string {
	if clientFID == WarpcastClientFID {
		return "https://warpcast.com/~/inbox/create/" + strconv.FormatInt(p.FID, 10)
	}
	if p.Username != "" && p.Username != PlaceholderUsername {
		return "https://warpcast.com/" + p.Username
	}
	return "https://basescan.org/address/" + p.Address
}
