// Package odds estimates how likely a like turns into a match so the session can
// surface a predicted match before the ledger confirms one
package odds

import "basematch/internal/core/normalize"

// Params are the knobs of the estimate
type Params struct {
	CoLocated    float64 // chance when both sides share a broad location
	Remote       float64 // chance otherwise
	VeteranSaves int     // confirmed commits after which the boost applies
	VeteranBoost float64
	Ceiling      float64
}

// Default returns the stock parameters
func Default() Params {
	return Params{
		CoLocated:    0.6,
		Remote:       0.05,
		VeteranSaves: 5,
		VeteranBoost: 0.2,
		Ceiling:      0.9,
	}
}

// Chance returns the match probability for a like, in [0, Ceiling]
func (p Params) Chance(myLocation, theirLocation string, saveCount int) float64 {
	c := p.Remote
	if normalize.SameArea(myLocation, theirLocation) {
		c = p.CoLocated
	}
	if p.VeteranSaves > 0 && saveCount >= p.VeteranSaves {
		c += p.VeteranBoost
	}
	if c > p.Ceiling {
		c = p.Ceiling
	}
	if c < 0 {
		c = 0
	}
	return c
}

// Roll reports whether a draw in [0,1) lands under the chance
func (p Params) Roll(draw float64, myLocation, theirLocation string, saveCount int) bool {
	return draw < p.Chance(myLocation, theirLocation, saveCount)
}
