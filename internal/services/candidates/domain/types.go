// Package domain defines the candidate profile shown to the user
package domain

import (
	"context"

	"basematch/internal/core/swipe"
)

// Kind is where a profile came from
type Kind string

// Kinds
const (
	KindFarcaster Kind = "farcaster"
	KindSynthetic Kind = "synthetic"
)

// Profile is one swipeable candidate. SubjectID is the EIP-55 address the ledger write carries
type Profile struct {
	SubjectID   string       `json:"subject_id"`
	FID         int64        `json:"fid,omitempty"`
	Username    string       `json:"username"`
	DisplayName string       `json:"display_name"`
	PfpURL      string       `json:"pfp_url"`
	Bio         string       `json:"bio"`
	Gender      swipe.Gender `json:"gender"`
	Kind        Kind         `json:"kind"`
	Location    string       `json:"location,omitempty"`
}

// SupplyPort is what the session uses to refresh its working set
type SupplyPort interface {
	Fetch(ctx context.Context, myLocation string) ([]Profile, error)
	Locate(ctx context.Context, fid int64) (string, error)
}
