package model

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Signature is an off-chain ECDSA signature over an allow-list
// authorisation: the standard (r, s, v) triple.
type Signature struct {
	R [32]byte
	S [32]byte
	V uint8
}

// signatureByteWidth is the canonical on-wire length: a 32-byte word holding
// only V in its low byte (the high 31 bytes are zero padding), followed by
// r and s.
const signatureByteWidth = 96

// Bytes returns the canonical 96-byte encoding: 31 zero bytes || v || r || s.
func (s Signature) Bytes() [signatureByteWidth]byte {
	var out [signatureByteWidth]byte
	out[31] = s.V
	copy(out[32:64], s.R[:])
	copy(out[64:96], s.S[:])
	return out
}

// Hex renders the canonical 0x-prefixed 96-byte (192 hex character) form.
func (s Signature) Hex() string {
	b := s.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

// ParseSignature decodes the canonical 96-byte [pad(31) || v || r || s] hex
// string, with or without the 0x prefix.
func ParseSignature(str string) (Signature, error) {
	str = strings.TrimPrefix(str, "0x")
	raw, err := hex.DecodeString(str)
	if err != nil {
		return Signature{}, fmt.Errorf("signature hex: %w", err)
	}
	if len(raw) != signatureByteWidth {
		return Signature{}, fmt.Errorf("signature hex: want %d bytes, got %d", signatureByteWidth, len(raw))
	}
	var sig Signature
	sig.V = raw[31]
	copy(sig.R[:], raw[32:64])
	copy(sig.S[:], raw[64:96])
	return sig, nil
}

// SignatureFromRSV builds a Signature from raw R/S (32 bytes each) and V.
func SignatureFromRSV(r, s []byte, v uint8) (Signature, error) {
	if len(r) != 32 || len(s) != 32 {
		return Signature{}, fmt.Errorf("signature: r/s must be 32 bytes, got %d/%d", len(r), len(s))
	}
	var sig Signature
	copy(sig.R[:], r)
	copy(sig.S[:], s)
	sig.V = v
	return sig, nil
}
