package signatures

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

// ErrAuctionMismatch is returned when the submission's chain id or
// allow-list contract disagrees with the auction's recorded values.
var ErrAuctionMismatch = errors.New("signatures: chain id or allow-list contract does not match auction")

// ErrSignerMismatch is returned when the recovered address does not match
// the auction's recorded allow-list signer.
var ErrSignerMismatch = errors.New("signatures: recovered address does not match allow-list signer")

const personalSignPrefix = "\x19Ethereum Signed Message:\n32"

// messageHash computes keccak(DomainSeparator || left-pad(user,32) ||
// big-endian u64 auction_id padded to 32 bytes), the inner hash the
// allow-list signer actually signs (before the personal-sign wrapper).
func messageHash(domainSeparator [32]byte, user common.Address, auctionID uint64) common.Hash {
	var auctionIDPadded [32]byte
	binary.BigEndian.PutUint64(auctionIDPadded[24:], auctionID)

	buf := make([]byte, 0, 32+32+32)
	buf = append(buf, domainSeparator[:]...)
	buf = append(buf, common.LeftPadBytes(user.Bytes(), 32)...)
	buf = append(buf, auctionIDPadded[:]...)

	return ethcrypto.Keccak256Hash(buf)
}

// recoveryHash applies the personal-sign prefix to the inner message hash,
// producing the digest the ECDSA signature was actually computed over.
func recoveryHash(inner common.Hash) common.Hash {
	return ethcrypto.Keccak256Hash([]byte(personalSignPrefix), inner.Bytes())
}

// RecoverSigner recovers the address that produced sig over (domainSeparator,
// user, auctionID), masking v to its low 5 bits per the allow-list contract's
// own recovery convention (v' = v & 0x1F) before normalising to 0/1.
func RecoverSigner(domainSeparator [32]byte, user common.Address, auctionID uint64, sig model.Signature) (common.Address, error) {
	digest := recoveryHash(messageHash(domainSeparator, user, auctionID))

	v := sig.V & 0x1F
	if v >= 27 {
		v -= 27
	}

	raw := make([]byte, 65)
	copy(raw[0:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[64] = v

	pub, err := ethcrypto.Ecrecover(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, err
	}
	pubKey, err := ethcrypto.UnmarshalPubkey(pub)
	if err != nil {
		return common.Address{}, err
	}
	return ethcrypto.PubkeyToAddress(*pubKey), nil
}

// Sign produces the allow-list authorisation signature an allow-list signer
// would hand a bidder: personal-sign over (domainSeparator, user, auctionID).
// It is the inverse of RecoverSigner and is used by the allow-list signing CLI.
func Sign(domainSeparator [32]byte, user common.Address, auctionID uint64, priv *ecdsa.PrivateKey) (model.Signature, error) {
	digest := recoveryHash(messageHash(domainSeparator, user, auctionID))
	sig, err := ethcrypto.Sign(digest.Bytes(), priv)
	if err != nil {
		return model.Signature{}, err
	}
	return model.SignatureFromRSV(sig[0:32], sig[32:64], sig[64]+27)
}

// Submission is one allow-list signature handed to the store by a caller.
type Submission struct {
	User      common.Address
	Signature model.Signature
}

// Validate checks the submission's chain id and allow-list contract against
// the auction's recorded values, then verifies every (user, signature) pair
// recovers the auction's allow-list signer. It returns the first mismatch
// encountered.
func Validate(auction model.AuctionDetails, chainID uint64, allowListContract common.Address, submissions []Submission) error {
	if chainID != auction.ChainID || allowListContract != auction.AllowListManager {
		return ErrAuctionMismatch
	}

	domainSeparator, err := model.DomainSeparator(chainID, allowListContract)
	if err != nil {
		return err
	}

	for _, sub := range submissions {
		recovered, err := RecoverSigner(domainSeparator, sub.User, auction.AuctionID, sub.Signature)
		if err != nil {
			return err
		}
		if recovered != auction.AllowListSigner {
			return ErrSignerMismatch
		}
	}
	return nil
}
