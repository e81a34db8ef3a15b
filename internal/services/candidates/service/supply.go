// Package service turns Neynar users into swipeable candidates and keeps the session's working set
package service

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"basematch/internal/adapters/ledger"
	"basematch/internal/adapters/neynar"
	"basematch/internal/core/normalize"
	"basematch/internal/core/swipe"
	"basematch/internal/platform/logger"
	"basematch/internal/platform/metrics"
	dom "basematch/internal/services/candidates/domain"
)

// Defaults for a refresh
const (
	DefaultBatch  = 50
	DefaultMaxFID = 50000
)

// Sources reported to metrics
const (
	SourceNeynar    = "neynar"
	SourceSynthetic = "synthetic"
)

// Users is the slice of the Neynar client the supply needs
type Users interface {
	UsersBulk(ctx context.Context, fids []int64) ([]neynar.User, error)
}

// Config for the supply
type Config struct {
	Batch   int
	MaxFID  int64
	Seed    uint64
	Metrics *metrics.Registry
}

// Supply fetches a window of consecutive fids starting at a random offset
type Supply struct {
	users   Users
	cfg     Config
	metrics *metrics.Registry
	log     *logger.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ dom.SupplyPort = (*Supply)(nil)

// New builds a supply; users may be nil to serve synthetic profiles only
func New(users Users, cfg Config) *Supply {
	if cfg.Batch <= 0 || cfg.Batch > neynar.MaxBulk {
		cfg.Batch = DefaultBatch
	}
	if cfg.MaxFID <= 0 {
		cfg.MaxFID = DefaultMaxFID
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Supply{
		users:   users,
		cfg:     cfg,
		metrics: cfg.Metrics,
		log:     logger.Named("candidates"),
		rnd:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Fetch returns a fresh batch ordered for myLocation. Upstream failures and empty
// answers fall back to synthetic profiles, so Fetch only fails on ctx cancellation
func (s *Supply) Fetch(ctx context.Context, myLocation string) ([]dom.Profile, error) {
	start := s.intN(s.cfg.MaxFID) + 1
	fids := make([]int64, s.cfg.Batch)
	for i := range fids {
		fids[i] = start + int64(i)
	}

	var out []dom.Profile
	if s.users != nil {
		users, err := s.users.UsersBulk(ctx, fids)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn().Err(err).Int64("start_fid", start).Msg("neynar fetch failed; using synthetic profiles")
		}
		out = FromUsers(users)
	}

	source := SourceNeynar
	if len(out) == 0 {
		source = SourceSynthetic
		out = Synthetic(start, s.cfg.Batch)
	}
	s.metrics.CandidateFetch(source)
	s.log.Debug().Str("source", source).Int("count", len(out)).Msg("candidates fetched")

	if myLocation != "" {
		OrderByLocation(out, myLocation)
	} else {
		s.shuffle(out)
	}
	return out, nil
}

// Locate returns the free-form location on a user's profile, "" when unknown
func (s *Supply) Locate(ctx context.Context, fid int64) (string, error) {
	if s.users == nil || fid <= 0 {
		return "", nil
	}
	users, err := s.users.UsersBulk(ctx, []int64{fid})
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", nil
	}
	return normalize.Display(users[0].Profile.Location.Description), nil
}

func (s *Supply) intN(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Int64N(n)
}

func (s *Supply) shuffle(ps []dom.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })
}

// FromUsers maps Neynar users to profiles, dropping users without a picture or a
// valid address and duplicates of an address already seen
func FromUsers(users []neynar.User) []dom.Profile {
	out := make([]dom.Profile, 0, len(users))
	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		raw := strings.TrimSpace(u.Address())
		addr, ok := ledger.Canonical(raw)
		if !ok || !strings.HasPrefix(raw, "0x") || strings.TrimSpace(u.PfpURL) == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		username := normalize.Display(u.Username)
		bio := normalize.Display(u.Profile.Bio.Text)
		if bio == "" {
			bio = "Farcaster OG @" + username
		}
		display := normalize.Display(u.DisplayName)
		if display == "" {
			display = username
		}
		out = append(out, dom.Profile{
			SubjectID:   addr,
			FID:         u.FID,
			Username:    username,
			DisplayName: display,
			PfpURL:      strings.TrimSpace(u.PfpURL),
			Bio:         bio,
			Gender:      GenderOf(addr),
			Kind:        dom.KindFarcaster,
			Location:    normalize.Display(u.Profile.Location.Description),
		})
	}
	return out
}

// GenderOf assigns a stable gender to a subject; the social graph carries none
func GenderOf(subject string) swipe.Gender {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(subject)))
	if h.Sum32()%2 == 0 {
		return swipe.GenderFemale
	}
	return swipe.GenderMale
}

// OrderByLocation moves candidates sharing myLocation's broad area to the end,
// keeping relative order otherwise
func OrderByLocation(ps []dom.Profile, myLocation string) {
	slices.SortStableFunc(ps, func(a, b dom.Profile) int {
		ma, mb := normalize.SameArea(a.Location, myLocation), normalize.SameArea(b.Location, myLocation)
		switch {
		case ma && !mb:
			return 1
		case !ma && mb:
			return -1
		}
		return 0
	})
}
