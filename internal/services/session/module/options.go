package module

import (
	"time"

	"basematch/internal/adapters/ledger"
	"basematch/internal/core/odds"
	"basematch/internal/platform/config"
	matchsvc "basematch/internal/services/matches/service"
)

// Options controls the session and the collaborators it drives
type Options struct {
	ChainID     uint64
	Contract    string
	WalletRPC   string
	EventsWS    string
	SmartWallet bool
	BuilderCode string

	MatchInbox   int
	HubBuffer    int
	PredictOn    bool
	Odds         odds.Params
	PredictDelay time.Duration
	// ClientFID is the host client; 0 means unknown and chat links fall back to profiles
	ClientFID int64

	NeynarBaseURL string
	NeynarAPIKey  string
	NeynarBatch   int
	NeynarRPS     float64
}

// FromConfig reads BASEMATCH_* and NEYNAR_* from the root config
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("BASEMATCH_")
	n := cfg.Prefix("NEYNAR_")
	def := odds.Default()
	return Options{
		ChainID:     c.MayUint64("CHAIN_ID", ledger.BaseChainID),
		Contract:    c.MayString("CONTRACT", ledger.DefaultContract),
		WalletRPC:   c.MayString("WALLET_RPC", ""),
		EventsWS:    c.MayString("EVENTS_WS", ""),
		SmartWallet: c.MayBool("SMART_WALLET", true),
		BuilderCode: c.MayString("BUILDER_CODE", ledger.DefaultBuilderCode),

		MatchInbox: c.MayInt("MATCH_INBOX", matchsvc.DefaultInbox),
		HubBuffer:  c.MayInt("EVENTS_BUFFER", 32),
		PredictOn:  c.MayBool("PREDICT_MATCHES", false),
		Odds: odds.Params{
			CoLocated:    c.MayFloat64("ODDS_COLOCATED", def.CoLocated),
			Remote:       c.MayFloat64("ODDS_REMOTE", def.Remote),
			VeteranSaves: c.MayInt("ODDS_VETERAN_SAVES", def.VeteranSaves),
			VeteranBoost: c.MayFloat64("ODDS_VETERAN_BOOST", def.VeteranBoost),
			Ceiling:      c.MayFloat64("ODDS_CEILING", def.Ceiling),
		},
		PredictDelay: c.MayDuration("PREDICT_DELAY", 1500*time.Millisecond),
		ClientFID:    int64(c.MayInt("CLIENT_FID", 0)),

		NeynarBaseURL: n.MayString("BASE_URL", ""),
		NeynarAPIKey:  n.MayString("API_KEY", ""),
		NeynarBatch:   n.MayInt("BATCH", 50),
		NeynarRPS:     n.MayFloat64("RPS", 0),
	}
}
