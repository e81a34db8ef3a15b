package ledger

import (
	"bytes"
	"strings"

	perr "basematch/internal/platform/errors"
)

// DefaultBuilderCode is appended to smart wallet calls for builder attribution
const DefaultBuilderCode = "bc_9x9dywpq"

// attributionMarker closes every ERC-8021 suffix
var attributionMarker = bytes.Repeat([]byte{0x80, 0x21}, 8)

// DataSuffix builds an ERC-8021 schema 0 suffix:
// codes joined by "," || len(codes) as one byte || schema id 0x00 || 0x8021 repeated 8 times
func DataSuffix(codes ...string) ([]byte, error) {
	if len(codes) == 0 {
		return nil, perr.InvalidArgf("at least one builder code is required")
	}
	for _, c := range codes {
		if c == "" || strings.ContainsAny(c, ",") {
			return nil, perr.InvalidArgf("builder code %q is empty or contains a comma", c)
		}
	}
	joined := strings.Join(codes, ",")
	if len(joined) > 255 {
		return nil, perr.InvalidArgf("builder codes exceed 255 bytes")
	}
	out := make([]byte, 0, len(joined)+2+len(attributionMarker))
	out = append(out, joined...)
	out = append(out, byte(len(joined)), 0x00)
	return append(out, attributionMarker...), nil
}

// HasSuffix reports whether calldata ends with an ERC-8021 marker
func HasSuffix(calldata []byte) bool { return bytes.HasSuffix(calldata, attributionMarker) }
