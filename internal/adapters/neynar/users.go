package neynar

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	perr "basematch/internal/platform/errors"
)

// MaxBulk is the most fids one bulk request accepts
const MaxBulk = 100

// User is the subset of a Neynar user the profile supply reads
type User struct {
	FID               int64             `json:"fid"`
	Username          string            `json:"username"`
	DisplayName       string            `json:"display_name"`
	PfpURL            string            `json:"pfp_url"`
	CustodyAddress    string            `json:"custody_address"`
	Profile           Profile           `json:"profile"`
	VerifiedAddresses VerifiedAddresses `json:"verified_addresses"`
}

// Profile holds the free text parts of a user profile
type Profile struct {
	Bio struct {
		Text string `json:"text"`
	} `json:"bio"`
	Location struct {
		Description string `json:"description"`
	} `json:"location"`
}

// VerifiedAddresses lists addresses the user proved ownership of
type VerifiedAddresses struct {
	EthAddresses []string `json:"eth_addresses"`
}

// Address is the first verified eth address, else the custody address
func (u User) Address() string {
	if len(u.VerifiedAddresses.EthAddresses) > 0 && u.VerifiedAddresses.EthAddresses[0] != "" {
		return u.VerifiedAddresses.EthAddresses[0]
	}
	return u.CustodyAddress
}

type bulkResponse struct {
	Users []User `json:"users"`
}

// UsersBulk fetches users by fid via GET /v2/farcaster/user/bulk
func (c *Client) UsersBulk(ctx context.Context, fids []int64) ([]User, error) {
	if len(fids) == 0 {
		return nil, nil
	}
	if len(fids) > MaxBulk {
		return nil, perr.InvalidArgf("at most %d fids per request, got %d", MaxBulk, len(fids))
	}
	ids := make([]string, len(fids))
	for i, f := range fids {
		ids[i] = strconv.FormatInt(f, 10)
	}
	q := url.Values{"fids": {strings.Join(ids, ",")}}

	b, err := c.get(ctx, "/v2/farcaster/user/bulk?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var out bulkResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode neynar bulk users")
	}
	return out.Users, nil
}
