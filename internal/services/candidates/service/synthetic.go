package service

import (
	"fmt"
	"strconv"
	"strings"

	dom "basematch/internal/services/candidates/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	syntheticNames = []string{
		"Ada", "Basil", "Cleo", "Dario", "Esme", "Felix", "Gia", "Hugo", "Iris", "Jonah",
		"Kaia", "Leon", "Mira", "Nico", "Opal", "Pax", "Quinn", "Rhea", "Silas", "Tova",
	}
	syntheticPlaces = []string{
		"Lisbon, Portugal", "Austin, Texas, United States", "Lagos, Nigeria", "Seoul, South Korea",
		"Berlin, Germany", "Kota Jakarta, Indonesia", "Toronto, Canada", "",
	}
)

// Synthetic builds n stand-in profiles. The same seed always yields the same profiles
// and their addresses never collide with real accounts in practice
func Synthetic(seed int64, n int) []dom.Profile {
	out := make([]dom.Profile, n)
	for i := range out {
		key := crypto.Keccak256([]byte("basematch/synthetic/" + strconv.FormatInt(seed, 10) + "/" + strconv.Itoa(i)))
		addr := common.BytesToAddress(key[12:]).Hex()
		name := syntheticNames[int(key[0])%len(syntheticNames)]
		user := fmt.Sprintf("%s%02d", strings.ToLower(name), key[1]%100)
		out[i] = dom.Profile{
			SubjectID:   addr,
			Username:    user,
			DisplayName: name,
			PfpURL:      "https://api.dicebear.com/9.x/lorelei/png?seed=" + user,
			Bio:         "Based and looking @" + user,
			Gender:      GenderOf(addr),
			Kind:        dom.KindSynthetic,
			Location:    syntheticPlaces[int(key[2])%len(syntheticPlaces)],
		}
	}
	return out
}
