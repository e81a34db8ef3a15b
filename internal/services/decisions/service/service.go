// Package service implements the local decision store over a domain.KV backend
package service

import (
	"context"
	"encoding/json"
	"strconv"

	"basematch/internal/adapters/ledger"
	"basematch/internal/core/swipe"
	"basematch/internal/platform/logger"
	dom "basematch/internal/services/decisions/domain"
)

// DefaultNamespace prefixes every persisted key
const DefaultNamespace = "baseDating"

// Config for the decision store
type Config struct {
	Namespace string
	Capacity  int
}

// Service loads and saves swipe.State through a KV
type Service struct {
	kv  dom.KV
	cfg Config
	log *logger.Logger
}

// New constructs the store; kv is required
func New(kv dom.KV, cfg Config) *Service {
	if kv == nil {
		panic("decisions.New requires a non nil KV")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = swipe.DefaultCapacity
	}
	return &Service{kv: kv, cfg: cfg, log: logger.Named("decisions")}
}

// QueueKey is the key holding the {addrs, likes} record
func (s *Service) QueueKey() string { return s.cfg.Namespace + "Queue" }

// GenderKey is the key holding the discovery preference
func (s *Service) GenderKey() string { return s.cfg.Namespace + "Gender" }

// SaveCountKey is the key holding the confirmed commit count
func (s *Service) SaveCountKey() string { return s.cfg.Namespace + "SaveCount" }

// Capacity is the queue bound applied to loaded state
func (s *Service) Capacity() int { return s.cfg.Capacity }

// Load reads the persisted state. Absent or unreadable values fall back to
// defaults; only backend failures are returned
func (s *Service) Load(ctx context.Context) (swipe.State, error) {
	st := swipe.NewState(s.cfg.Capacity)

	raw, ok, err := s.kv.Get(ctx, s.QueueKey())
	if err != nil {
		return st, err
	}
	if ok {
		st.Queue = s.decodeQueue(raw)
	}

	raw, ok, err = s.kv.Get(ctx, s.GenderKey())
	if err != nil {
		return st, err
	}
	if ok {
		if g, valid := swipe.ParseGender(raw); valid {
			st.Gender = g
		} else {
			s.log.Warn().Str("key", s.GenderKey()).Str("value", raw).Msg("unknown gender; ignoring")
		}
	}

	raw, ok, err = s.kv.Get(ctx, s.SaveCountKey())
	if err != nil {
		return st, err
	}
	if ok {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n >= 0 {
			st.SaveCount = n
		} else {
			s.log.Warn().Str("key", s.SaveCountKey()).Str("value", raw).Msg("bad save count; using 0")
		}
	}
	return st, nil
}

func (s *Service) decodeQueue(raw string) swipe.Queue {
	var rec dom.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.log.Warn().Err(err).Str("key", s.QueueKey()).Msg("corrupt queue record; starting empty")
		return swipe.NewQueue(s.cfg.Capacity)
	}
	if len(rec.Addrs) != len(rec.Likes) {
		s.log.Warn().Int("addrs", len(rec.Addrs)).Int("likes", len(rec.Likes)).
			Msg("misaligned queue record; starting empty")
		return swipe.NewQueue(s.cfg.Capacity)
	}
	ds := make([]swipe.Decision, 0, len(rec.Addrs))
	for i, a := range rec.Addrs {
		id, ok := ledger.Canonical(a)
		if !ok {
			s.log.Warn().Str("key", s.QueueKey()).Str("value", a).Msg("queued subject is not an address; dropping")
			continue
		}
		ds = append(ds, swipe.Decision{SubjectID: id, Liked: rec.Likes[i]})
	}
	q := swipe.Rebuild(s.cfg.Capacity, ds)
	if q.Len() != len(rec.Addrs) {
		s.log.Warn().Int("stored", len(rec.Addrs)).Int("kept", q.Len()).Msg("queue record trimmed on load")
	}
	return q
}

// Encode renders the queue record exactly as it is persisted
func Encode(q swipe.Queue) (string, error) {
	addrs, likes := swipe.Split(q.Snapshot())
	b, err := json.Marshal(dom.Record{Addrs: addrs, Likes: likes})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Save overwrites the persisted record with st in one Set; an empty queue is
// written as an empty record so the count and the queue never disagree
func (s *Service) Save(ctx context.Context, st swipe.State) error {
	entries := []dom.Entry{{Key: s.SaveCountKey(), Value: strconv.Itoa(st.SaveCount)}}
	if st.Gender.Valid() {
		entries = append(entries, dom.Entry{Key: s.GenderKey(), Value: string(st.Gender)})
	}
	rec, err := Encode(st.Queue)
	if err != nil {
		return err
	}
	entries = append(entries, dom.Entry{Key: s.QueueKey(), Value: rec})
	return s.kv.Set(ctx, entries...)
}

// Reset removes the queue record; preference and save count survive
func (s *Service) Reset(ctx context.Context) error {
	return s.kv.Remove(ctx, s.QueueKey())
}
