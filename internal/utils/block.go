package utils

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// ParseHeight decodes a hex-encoded block number such as "0x10d4f".
func ParseHeight(s string) (uint64, error) {
	height, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, errors.WithMessagef(err, "error parsing height %q", s)
	}
	return height, nil
}

// FormatQuantity converts a hex-encoded quantity to its base-10 string.
// Quantities go through big.Int so 256-bit values keep full precision.
func FormatQuantity(s string) (string, error) {
	if s == "" {
		return "0", nil
	}
	v, err := hexutil.DecodeBig(s)
	if err != nil {
		return "", errors.WithMessagef(err, "error parsing quantity %q", s)
	}
	return v.String(), nil
}

// EncodeHeight is the inverse of ParseHeight.
func EncodeHeight(height uint64) string {
	return hexutil.EncodeUint64(height)
}

// FormatUint renders a native quantity the same way FormatQuantity does.
func FormatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
