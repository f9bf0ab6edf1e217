package ledger

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// The ledger's native word is a felt: a 251-bit field element. Short strings
// are packed big-endian into a single felt, which caps them at 31 bytes.
// Longer free-text fields (titles, storage hashes) are truncated before
// encoding. The truncation is lossy and externally visible in emitted event
// data, so it must be deterministic: a plain byte cut at MaxShortStringLen,
// identical for identical input.
const MaxShortStringLen = 31

// TruncateShortString cuts s to the ledger word size. The cut is by byte, not
// by rune; a multi-byte sequence straddling the boundary is trimmed back to
// the last complete rune so the result stays valid UTF-8.
func TruncateShortString(s string) string {
	if len(s) <= MaxShortStringLen {
		return s
	}
	cut := s[:MaxShortStringLen]
	for len(cut) > 0 && cut[len(cut)-1]&0xC0 == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// EncodeShortString encodes s as a hex felt after truncation.
func EncodeShortString(s string) string {
	t := TruncateShortString(s)
	if t == "" {
		return "0x0"
	}
	return "0x" + hex.EncodeToString([]byte(t))
}

// EncodeUint encodes an unsigned integer as a hex felt.
func EncodeUint(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

// DecodeUint parses a hex felt into an unsigned integer.
func DecodeUint(felt string) (uint64, error) {
	n, ok := new(big.Int).SetString(felt, 0)
	if !ok {
		return 0, fmt.Errorf("invalid felt: %q", felt)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("felt out of range: %q", felt)
	}
	return n.Uint64(), nil
}

// eventSelectorMask keeps the low 250 bits of the keccak digest, per the
// ledger's event key derivation.
var eventSelectorMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// EventSelector derives the event key for an event name (sn_keccak).
func EventSelector(name string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	d := new(big.Int).SetBytes(h.Sum(nil))
	d.And(d, eventSelectorMask)
	return "0x" + d.Text(16)
}
