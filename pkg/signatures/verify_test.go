package signatures

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

// signAllowList signs (domainSeparator, user, auctionID) with key the same
// way an allow-list signer would: personal-sign over the inner message hash.
func signAllowList(t *testing.T, key []byte, domainSeparator [32]byte, user common.Address, auctionID uint64) model.Signature {
	t.Helper()
	priv, err := ethcrypto.ToECDSA(key)
	if err != nil {
		t.Fatalf("ToECDSA: %v", err)
	}

	digest := recoveryHash(messageHash(domainSeparator, user, auctionID))
	sig, err := ethcrypto.Sign(digest.Bytes(), priv)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	modelSig, err := model.SignatureFromRSV(sig[0:32], sig[32:64], sig[64]+27)
	if err != nil {
		t.Fatalf("SignatureFromRSV: %v", err)
	}
	return modelSig
}

func testKey() []byte {
	b := make([]byte, 32)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return b
}

func TestRecoverSignerRoundTrip(t *testing.T) {
	key := testKey()
	priv, _ := ethcrypto.ToECDSA(key)
	signerAddr := ethcrypto.PubkeyToAddress(priv.PublicKey)

	var domainSeparator [32]byte
	domainSeparator[0] = 0xaa

	user := common.HexToAddress("0x000000000000000000000000000000000000bb")
	auctionID := uint64(7)

	sig := signAllowList(t, key, domainSeparator, user, auctionID)

	recovered, err := RecoverSigner(domainSeparator, user, auctionID, sig)
	if err != nil {
		t.Fatalf("RecoverSigner: %v", err)
	}
	if recovered != signerAddr {
		t.Errorf("recovered = %s, want %s", recovered.Hex(), signerAddr.Hex())
	}
}

func TestValidateSucceedsForMatchingSigner(t *testing.T) {
	key := testKey()
	priv, _ := ethcrypto.ToECDSA(key)
	signerAddr := ethcrypto.PubkeyToAddress(priv.PublicKey)

	chainID := uint64(4)
	allowListContract := common.HexToAddress("0x000000000000000000000000000000000000ed")

	auction := model.AuctionDetails{
		AuctionID:        1,
		ChainID:          chainID,
		AllowListManager: allowListContract,
		AllowListSigner:  signerAddr,
	}

	domainSeparator, err := model.DomainSeparator(chainID, allowListContract)
	if err != nil {
		t.Fatalf("DomainSeparator: %v", err)
	}

	user := common.HexToAddress("0x0000000000000000000000000000000000007a")
	sig := signAllowList(t, key, domainSeparator, user, auction.AuctionID)

	err = Validate(auction, chainID, allowListContract, []Submission{{User: user, Signature: sig}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsChainIDMismatch(t *testing.T) {
	auction := model.AuctionDetails{AuctionID: 1, ChainID: 4, AllowListManager: common.HexToAddress("0x01")}
	err := Validate(auction, 100, common.HexToAddress("0x01"), nil)
	if err != ErrAuctionMismatch {
		t.Errorf("expected ErrAuctionMismatch, got %v", err)
	}
}

func TestValidateRejectsWrongSigner(t *testing.T) {
	key := testKey()

	chainID := uint64(4)
	allowListContract := common.HexToAddress("0x000000000000000000000000000000000000ed")
	wrongSigner := common.HexToAddress("0x000000000000000000000000000000000000ff")

	auction := model.AuctionDetails{
		AuctionID:        1,
		ChainID:          chainID,
		AllowListManager: allowListContract,
		AllowListSigner:  wrongSigner,
	}

	domainSeparator, _ := model.DomainSeparator(chainID, allowListContract)
	user := common.HexToAddress("0x0000000000000000000000000000000000007a")
	sig := signAllowList(t, key, domainSeparator, user, auction.AuctionID)

	err := Validate(auction, chainID, allowListContract, []Submission{{User: user, Signature: sig}})
	if err != ErrSignerMismatch {
		t.Errorf("expected ErrSignerMismatch, got %v", err)
	}
}
