package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds an ECDSA secp256k1 key pair and its derived Ethereum
// address, for tools that need to produce allow-list authorisation
// signatures (see cmd/sign-allowlist) rather than recover/verify them.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	address    common.Address
}

// GenerateKey creates a new random secp256k1 key pair.
func GenerateKey() (*Signer, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return fromECDSA(privateKey)
}

// FromPrivateKeyHex loads a Signer from a hex-encoded private key, with or
// without the 0x prefix.
func FromPrivateKeyHex(hexKey string) (*Signer, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return fromECDSA(privateKey)
}

func fromECDSA(privateKey *ecdsa.PrivateKey) (*Signer, error) {
	publicKey := privateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to cast public key to ECDSA")
	}
	return &Signer{
		privateKey: privateKey,
		publicKey:  publicKeyECDSA,
		address:    crypto.PubkeyToAddress(*publicKeyECDSA),
	}, nil
}

// Address returns the Ethereum address derived from the public key.
func (s *Signer) Address() common.Address {
	return s.address
}

// PrivateKey returns the underlying ECDSA private key, for handing to
// pkg/signatures.Sign.
func (s *Signer) PrivateKey() *ecdsa.PrivateKey {
	return s.privateKey
}

// PrivateKeyHex returns the private key as hex (without 0x prefix).
// Callers printing this to a terminal are responsible for the consequences.
func (s *Signer) PrivateKeyHex() string {
	return fmt.Sprintf("%x", crypto.FromECDSA(s.privateKey))
}
