// Package swipe holds the pure swipe queue values and the state transitions the session applies to them.
// Nothing here performs I/O; the owner persists after every accepted transition
package swipe

import "strings"

// DefaultCapacity is the queue bound that triggers an automatic commit
const DefaultCapacity = 50

// Decision is one like/pass judgement about a subject; immutable once recorded
type Decision struct {
	SubjectID string `json:"subject_id"`
	Liked     bool   `json:"liked"`
}

// SameSubject reports whether two subject ids name the same account (hex addresses compare case-insensitively)
func SameSubject(a, b string) bool { return strings.EqualFold(a, b) }

// Gender is the stored discovery preference
type Gender string

// Gender values; GenderUnset means the preference has not been chosen yet
const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender accepts "male" or "female" in any case
func ParseGender(s string) (Gender, bool) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, true
	case GenderFemale:
		return GenderFemale, true
	}
	return GenderUnset, false
}

// Valid reports whether g is a chosen preference
func (g Gender) Valid() bool { return g == GenderMale || g == GenderFemale }

// Split turns decisions into the index-aligned arrays the ledger write takes
func Split(ds []Decision) (subjects []string, liked []bool) {
	subjects = make([]string, len(ds))
	liked = make([]bool, len(ds))
	for i, d := range ds {
		subjects[i] = d.SubjectID
		liked[i] = d.Liked
	}
	return subjects, liked
}
